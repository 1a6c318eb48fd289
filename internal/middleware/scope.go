package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireScope rejects requests whose token does not carry the given scope.
// Runs after AuthMiddleware.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
			return
		}
		if !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing required scope: " + scope})
			return
		}
		c.Next()
	}
}
