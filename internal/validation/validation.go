// Package validation provides input validation middleware for the churnwatch API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize caps request bodies at 1MB. Assessment requests carry
// at most a small JSON object.
const MaxRequestSize = 1 << 20

// customerIDRegex validates customer identifiers: uppercase prefix plus
// digits, as produced by the data generator (CUST001, CHURN014).
var customerIDRegex = regexp.MustCompile(`^[A-Z]{2,10}[0-9]{1,10}$`)

// RequestSizeMiddleware rejects request bodies larger than maxSize.
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidCustomerID reports whether id is a well-formed customer ID.
func IsValidCustomerID(id string) bool {
	return customerIDRegex.MatchString(id)
}

// NormalizeCustomerID prepares a user-supplied customer ID for lookup.
func NormalizeCustomerID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// CustomerIDParamMiddleware validates the :id URL parameter on routes that
// use it, rejecting malformed customer IDs before any store lookup.
func CustomerIDParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id != "" && !IsValidCustomerID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_customer_id",
				"message": "customer ID must be an uppercase prefix followed by digits",
			})
			return
		}
		c.Next()
	}
}
