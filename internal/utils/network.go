package utils

import (
	"github.com/gin-gonic/gin"
)

// GetRealIP returns the client IP address used for rate limiting and audit entries.
// X-Forwarded-For and X-Real-IP are only honoured when the direct peer is one of the
// engine's trusted proxies (see gin.Engine.SetTrustedProxies); otherwise the socket
// address is used.
func GetRealIP(c *gin.Context) string {
	return c.ClientIP()
}

// GetUserAgent extracts the User-Agent header from the request
func GetUserAgent(c *gin.Context) string {
	ua := c.Request.UserAgent()
	if ua == "" {
		return "Unknown"
	}
	return ua
}
