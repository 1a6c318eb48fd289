package middleware

import (
	"net/http"
	"testing"

	"github.com/osvaldoandrade/hookq/pkg/auth"
)

func TestRequireScopeMissingClaims(t *testing.T) {
	ctx, rec := contextWithClaims(t, nil)

	RequireScope("hookq:trigger")(ctx)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}
}

func TestRequireScopeMissingScope(t *testing.T) {
	ctx, rec := contextWithClaims(t, &auth.Claims{
		Subject: "u1",
		Scopes:  []string{"hookq:read"},
	})

	RequireScope("hookq:trigger")(ctx)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing scope, got %d", rec.Code)
	}
}

func TestRequireScopePresent(t *testing.T) {
	ctx, _ := contextWithClaims(t, &auth.Claims{
		Subject: "u1",
		Scopes:  []string{"hookq:read", "hookq:trigger"},
	})

	RequireScope("hookq:trigger")(ctx)

	if ctx.IsAborted() {
		t.Fatal("expected request to pass with required scope")
	}
}

func TestRequireAdminRole(t *testing.T) {
	ctx, rec := contextWithClaims(t, &auth.Claims{Subject: "u1"})
	ctx.Set("userRole", "USER")

	RequireAdmin()(ctx)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	ctx2, _ := contextWithClaims(t, &auth.Claims{Subject: "u1"})
	ctx2.Set("userRole", "ADMIN")

	RequireAdmin()(ctx2)

	if ctx2.IsAborted() {
		t.Fatal("expected admin role to pass")
	}
}
