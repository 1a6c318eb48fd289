package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/osvaldoandrade/hookq/pkg/auth"
)

func contextWithClaims(t *testing.T, claims *auth.Claims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		ctx.Set("userClaims", claims)
	}
	return ctx, rec
}

func TestTenantFromTenantIdClaim(t *testing.T) {
	ctx, _ := contextWithClaims(t, &auth.Claims{
		Subject: "user-7",
		Raw:     map[string]interface{}{"tenantId": "acme"},
	})

	Tenant()(ctx)

	if got := GetOwnerID(ctx); got != "acme" {
		t.Fatalf("GetOwnerID() = %q, want acme", got)
	}
}

func TestTenantClaimNamePrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want string
	}{
		{"tenantId", map[string]interface{}{"tenantId": "a"}, "a"},
		{"tenant_id", map[string]interface{}{"tenant_id": "b"}, "b"},
		{"organizationId", map[string]interface{}{"organizationId": "c"}, "c"},
		{"organization_id", map[string]interface{}{"organization_id": "d"}, "d"},
		{"tenantId wins over organizationId", map[string]interface{}{"tenantId": "a", "organizationId": "c"}, "a"},
		{"whitespace only falls back to subject", map[string]interface{}{"tenantId": "   "}, "user-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := contextWithClaims(t, &auth.Claims{Subject: "user-7", Raw: tt.raw})
			Tenant()(ctx)
			if got := GetOwnerID(ctx); got != tt.want {
				t.Errorf("GetOwnerID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTenantFallsBackToSubject(t *testing.T) {
	ctx, _ := contextWithClaims(t, &auth.Claims{
		Subject: "user-7",
		Raw:     map[string]interface{}{},
	})

	Tenant()(ctx)

	if got := GetOwnerID(ctx); got != "user-7" {
		t.Fatalf("GetOwnerID() = %q, want user-7", got)
	}
}

func TestTenantWithoutClaims(t *testing.T) {
	ctx, _ := contextWithClaims(t, nil)

	Tenant()(ctx)

	if got := GetOwnerID(ctx); got != "" {
		t.Fatalf("GetOwnerID() = %q, want empty", got)
	}
}

func TestRequireOwnerRejectsMissingPrincipal(t *testing.T) {
	ctx, rec := contextWithClaims(t, nil)

	RequireOwner()(ctx)

	if !ctx.IsAborted() {
		t.Fatal("expected abort without owner principal")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireOwnerPassesWithPrincipal(t *testing.T) {
	ctx, _ := contextWithClaims(t, &auth.Claims{Subject: "user-7"})
	Tenant()(ctx)

	RequireOwner()(ctx)

	if ctx.IsAborted() {
		t.Fatal("expected request to pass with owner principal")
	}
}
