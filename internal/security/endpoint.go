package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Hostnames that must never be dialed from the server, regardless of
// what they resolve to.
var deniedHosts = []string{"localhost", "metadata.google.internal", "metadata.google"}

// ValidateEndpointURL decides whether an operator-supplied endpoint is
// safe to dial from the server. It rejects non-HTTP schemes, known
// internal hostnames, and addresses in loopback, private, link-local,
// or unspecified ranges. Hostnames are resolved so DNS cannot be used
// to smuggle in a blocked address.
func ValidateEndpointURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	host := u.Hostname()
	for _, denied := range deniedHosts {
		if strings.EqualFold(host, denied) {
			return fmt.Errorf("URL host %q is not allowed", host)
		}
	}

	// An IP literal needs no resolution.
	if ip := net.ParseIP(host); ip != nil {
		return blockedRange(ip)
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("cannot resolve URL host: %s", host)
	}
	for _, addr := range addrs {
		resolved := net.ParseIP(addr)
		if resolved == nil {
			continue
		}
		if err := blockedRange(resolved); err != nil {
			return fmt.Errorf("URL host %q resolves to blocked address: %v", host, err)
		}
	}
	return nil
}

func blockedRange(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback addresses are not allowed")
	case ip.IsPrivate():
		return fmt.Errorf("private addresses are not allowed")
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local addresses are not allowed")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified addresses are not allowed")
	}
	return nil
}
