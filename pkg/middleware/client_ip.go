// pkg/middleware/client_ip.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP resolves the visitor address from proxy headers in order:
// first X-Forwarded-For entry, CF-Connecting-IP, X-Real-IP.
// Returns "" when none is set.
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}
	return strings.TrimSpace(c.GetHeader("X-Real-IP"))
}

// limiterKey uses gin's client IP, which honors forwarding headers only from
// the engine's trusted proxies and otherwise falls back to the socket address
func limiterKey(c *gin.Context) string {
	return c.ClientIP()
}
