package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/hookq/pkg/auth"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates every request with the configured identity
// validator. Claims land in the gin context under "userClaims"; the Tenant
// middleware derives the owner principal from them afterwards.
func AuthMiddleware(validator auth.Validator, devMode bool) gin.HandlerFunc {
	if validator == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "identity validator not configured"})
		}
	}
	return func(c *gin.Context) {
		claims, err := validateBearer(validator, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setUserContext(c, claims, devMode)
		c.Next()
	}
}

func validateBearer(validator auth.Validator, authHeader string) (*auth.Claims, error) {
	if strings.TrimSpace(authHeader) == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return validator.Validate(parts[1])
}

func setUserContext(c *gin.Context, claims *auth.Claims, devMode bool) {
	c.Set("userClaims", claims)
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		email = strings.TrimSpace(claims.Subject)
	}
	c.Set("userEmail", email)

	role := ""
	if v, ok := claims.Raw["role"].(string); ok {
		role = strings.ToUpper(strings.TrimSpace(v))
	}
	if role == "" && devMode {
		role = strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role")))
	}
	if role == "" {
		role = "USER"
	}
	c.Set("userRole", role)
}

// GetClaims returns the validated claims set by AuthMiddleware, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get("userClaims"); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
