package middleware

import (
	"crypto/subtle"
	"net/http"

	"donation-api/internal/response"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards admin routes with a static API key. An empty
// key disables the routes entirely.
func AdminAuthMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			response.AbortWithFailure(c, http.StatusUnauthorized, "unauthorized", "Admin access is not configured")
			return
		}

		// Get API key from header, falling back to query parameters
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey == "" {
			response.AbortWithFailure(c, http.StatusUnauthorized, "unauthorized", "Missing api_key")
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminKey)) != 1 {
			logging.Securityf("Rejected admin request - path: %s, ip: %s", c.Request.URL.Path, c.ClientIP())
			response.AbortWithFailure(c, http.StatusUnauthorized, "unauthorized", "Invalid api_key")
			return
		}

		c.Next()
	}
}
