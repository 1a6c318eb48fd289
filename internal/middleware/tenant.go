package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/osvaldoandrade/hookq/pkg/auth"
)

// Tenant resolves the owner principal from validated claims and stores it
// under "ownerId". Runs after AuthMiddleware; requests without claims simply
// get no owner, which RequireOwner rejects later.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := GetClaims(c); claims != nil {
			if ownerID := extractOwnerID(claims); ownerID != "" {
				c.Set("ownerId", ownerID)
			}
		}
		c.Next()
	}
}

// RequireOwner rejects requests that carry no resolvable owner principal.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetOwnerID(c) == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no owner principal in token"})
			return
		}
		c.Next()
	}
}

// GetOwnerID extracts the owner principal from the request context
func GetOwnerID(c *gin.Context) string {
	if v, ok := c.Get("ownerId"); ok {
		if ownerID, ok := v.(string); ok {
			return ownerID
		}
	}
	return ""
}

// extractOwnerID extracts the owner principal from JWT claims
func extractOwnerID(claims *auth.Claims) string {
	if claims == nil || claims.Raw == nil {
		return strings.TrimSpace(subjectOf(claims))
	}

	// Try multiple common claim names for the tenant ID
	ownerID := ""
	if v, ok := claims.Raw["tenantId"].(string); ok {
		ownerID = strings.TrimSpace(v)
	} else if v, ok := claims.Raw["tenant_id"].(string); ok {
		ownerID = strings.TrimSpace(v)
	} else if v, ok := claims.Raw["organizationId"].(string); ok {
		ownerID = strings.TrimSpace(v)
	} else if v, ok := claims.Raw["organization_id"].(string); ok {
		ownerID = strings.TrimSpace(v)
	}

	// Fall back to using subject as owner for single-tenant scenarios
	if ownerID == "" {
		ownerID = strings.TrimSpace(claims.Subject)
	}

	return ownerID
}

func subjectOf(claims *auth.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.Subject
}
