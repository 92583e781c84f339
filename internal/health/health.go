// Package health provides a registry of named subsystem health checkers.
package health

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

const pingTimeout = 2 * time.Second

// Status is the health of a single subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one subsystem.
type Checker func(ctx context.Context) Status

type registration struct {
	name  string
	check Checker
}

// Registry runs registered checkers on demand. Checkers report in
// registration order.
type Registry struct {
	mu            sync.RWMutex
	registrations []registration
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a checker under a name. The name fills in for checkers
// that leave Status.Name empty.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.registrations = append(r.registrations, registration{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll probes every subsystem. The aggregate is healthy only when
// each individual probe is.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	regs := append([]registration(nil), r.registrations...)
	r.mu.RUnlock()

	healthy := true
	statuses := make([]Status, 0, len(regs))
	for _, reg := range regs {
		st := reg.check(ctx)
		if st.Name == "" {
			st.Name = reg.name
		}
		healthy = healthy && st.Healthy
		statuses = append(statuses, st)
	}
	return healthy, statuses
}

// DatabaseChecker probes a database with a bounded ping.
func DatabaseChecker(name string, db *sql.DB) Checker {
	return func(ctx context.Context) Status {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return Status{Name: name, Healthy: false, Detail: err.Error()}
		}
		return Status{Name: name, Healthy: true}
	}
}

// StaticChecker reports a fixed result. Used for subsystems whose
// availability is decided at startup (e.g. a disabled AI scorer).
func StaticChecker(name string, healthy bool, detail string) Checker {
	return func(_ context.Context) Status {
		return Status{Name: name, Healthy: healthy, Detail: detail}
	}
}
