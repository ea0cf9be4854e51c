// Package auth guards the local API with a shared key.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"go.uber.org/zap"
)

const (
	// APIKeyHeader carries the key on ordinary requests.
	APIKeyHeader = "X-API-Key"
	// APIKeyQueryParam carries the key for EventSource clients, which cannot
	// set headers.
	APIKeyQueryParam = "api_key"
)

// extractAPIKey looks in the X-API-Key header, then a Bearer token, then the
// query string.
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader(APIKeyHeader); key != "" {
		return key
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query(APIKeyQueryParam)
}

func isPublic(r *http.Request) bool {
	return r.Method == http.MethodOptions ||
		r.URL.Path == "/health" ||
		strings.HasPrefix(r.URL.Path, "/swagger/")
}

// EnsureValidAPIKey rejects requests that do not present apiKey. An empty
// apiKey disables the check. /health and the API docs are always open.
func EnsureValidAPIKey(apiKey string) gin.HandlerFunc {
	log := logger.Named("auth")
	if apiKey == "" {
		log.Warn("Local API key not configured, API is unauthenticated")
	}

	return func(c *gin.Context) {
		if apiKey == "" || isPublic(c.Request) {
			c.Next()
			return
		}

		presented := extractAPIKey(c)
		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingAPIKey.Error()})
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			log.Warn("Rejected API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidAPIKey.Error()})
			return
		}
		c.Next()
	}
}
