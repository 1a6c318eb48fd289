package middleware

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/osvaldoandrade/hookq/pkg/auth"
	_ "github.com/osvaldoandrade/hookq/pkg/auth/jwks" // Register JWKS provider

	"github.com/gin-gonic/gin"
)

type authEnv struct {
	validator auth.Validator
	privKey   *rsa.PrivateKey
	issuer    string
	audience  string
}

func setupAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key gen: %v", err)
	}
	jwksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := base64.RawURLEncoding.EncodeToString(privKey.PublicKey.N.Bytes())
		e := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{"kty": "RSA", "kid": "kid-1", "n": n, "e": e}},
		})
	}))
	t.Cleanup(jwksSrv.Close)

	rawCfg, _ := json.Marshal(map[string]any{
		"jwksUrl":            jwksSrv.URL,
		"issuer":             "hookq-test",
		"audience":           "hookq-api",
		"clockSkewSeconds":   60,
		"httpTimeoutSeconds": 5,
	})
	validator, err := auth.NewValidator(auth.ProviderConfig{Type: "jwks", Config: rawCfg})
	if err != nil {
		t.Fatalf("validator init: %v", err)
	}
	return &authEnv{validator: validator, privKey: privKey, issuer: "hookq-test", audience: "hookq-api"}
}

func (e *authEnv) token(t *testing.T, extra map[string]any) string {
	t.Helper()
	now := time.Now().Unix()
	claims := map[string]any{
		"iss": e.issuer,
		"aud": e.audience,
		"sub": "u1",
		"exp": now + 3600,
		"iat": now - 10,
	}
	for k, v := range extra {
		claims[k] = v
	}
	return signJWT(t, e.privKey, "kid-1", claims)
}

func signJWT(t *testing.T, key *rsa.PrivateKey, kid string, claims map[string]any) string {
	t.Helper()
	header := map[string]any{"alg": "RS256", "typ": "JWT", "kid": kid}
	enc := func(v any) string {
		b, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	h := enc(header)
	p := enc(claims)
	signingInput := h + "." + p
	hashed := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	s := base64.RawURLEncoding.EncodeToString(sig)
	return signingInput + "." + s
}

func TestAuthMiddlewareValid(t *testing.T) {
	env := setupAuthEnv(t)
	tok := env.token(t, map[string]any{"email": "u@hookq.local", "role": "ADMIN"})

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Bearer "+tok)

	AuthMiddleware(env.validator, false)(ctx)
	if rec.Code == http.StatusUnauthorized {
		t.Fatalf("expected auth to pass")
	}
	if v, ok := ctx.Get("userEmail"); !ok || v.(string) != "u@hookq.local" {
		t.Fatalf("expected userEmail in context, got %v", v)
	}
	if v, ok := ctx.Get("userRole"); !ok || v.(string) != "ADMIN" {
		t.Fatalf("expected userRole ADMIN, got %v", v)
	}
	if GetClaims(ctx) == nil {
		t.Fatal("expected claims in context")
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	env := setupAuthEnv(t)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	AuthMiddleware(env.validator, false)(ctx)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", rec.Code)
	}
}

func TestAuthMiddlewareInvalidScheme(t *testing.T) {
	env := setupAuthEnv(t)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	AuthMiddleware(env.validator, false)(ctx)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	env := setupAuthEnv(t)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Bearer not-a-jwt")

	AuthMiddleware(env.validator, false)(ctx)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestAuthMiddlewareNilValidator(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Bearer anything")

	AuthMiddleware(nil, false)(ctx)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for nil validator, got %d", rec.Code)
	}
}

func TestAuthMiddlewareDevRoleOverride(t *testing.T) {
	env := setupAuthEnv(t)
	tok := env.token(t, nil) // no role claim

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Bearer "+tok)
	ctx.Request.Header.Set("X-Role", "admin")

	AuthMiddleware(env.validator, true)(ctx)
	if v, ok := ctx.Get("userRole"); !ok || v.(string) != "ADMIN" {
		t.Fatalf("expected dev X-Role override to yield ADMIN, got %v", v)
	}

	// Outside dev mode the header must be ignored.
	rec2 := httptest.NewRecorder()
	ctx2, _ := gin.CreateTestContext(rec2)
	ctx2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx2.Request.Header.Set("Authorization", "Bearer "+tok)
	ctx2.Request.Header.Set("X-Role", "admin")

	AuthMiddleware(env.validator, false)(ctx2)
	if v, ok := ctx2.Get("userRole"); !ok || v.(string) != "USER" {
		t.Fatalf("expected default USER role outside dev mode, got %v", v)
	}
}

func TestValidateBearerFormat(t *testing.T) {
	env := setupAuthEnv(t)

	if _, err := validateBearer(env.validator, ""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := validateBearer(env.validator, "Bearer"); err == nil {
		t.Fatal("expected error for scheme without token")
	}
	if _, err := validateBearer(env.validator, "Token abc"); err == nil {
		t.Fatal("expected error for wrong scheme")
	}
}
