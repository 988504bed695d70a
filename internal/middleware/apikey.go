package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-Api-Key"

// APIKey authenticates requests against the configured key set. Entries may
// be plain keys (compared in constant time) or bcrypt hashes. An empty key
// set disables authentication, for local development only.
func APIKey(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		presented := c.GetHeader(apiKeyHeader)
		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "MISSING_API_KEY", "message": "missing API key"},
			})
			return
		}

		if !matchesAny(keys, presented) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "INVALID_API_KEY", "message": "invalid API key"},
			})
			return
		}

		c.Next()
	}
}

func matchesAny(keys []string, presented string) bool {
	for _, key := range keys {
		if strings.HasPrefix(key, "$2") {
			if bcrypt.CompareHashAndPassword([]byte(key), []byte(presented)) == nil {
				return true
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			return true
		}
	}
	return false
}
