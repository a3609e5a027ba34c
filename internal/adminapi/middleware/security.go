package middleware

import "github.com/gin-gonic/gin"

// Security sets common HTTP security headers on every response. This
// surface is operator-facing and unauthenticated by design (spec §2 admin
// routes are meant to sit behind network-level access control, not app
// auth) so headers are the only hardening applied here.
func Security() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
