package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/osvaldoandrade/hookq/internal/rules"
	"github.com/osvaldoandrade/hookq/pkg/app"
	_ "github.com/osvaldoandrade/hookq/pkg/auth/static" // Register static auth provider.
	"github.com/osvaldoandrade/hookq/pkg/config"
	"github.com/osvaldoandrade/hookq/pkg/domain"
)

const (
	benchOwner = "bench-owner"
	benchToken = "bench-token"
)

func newBenchApp(b *testing.B) *app.Application {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis start: %v", err)
	}
	b.Cleanup(mr.Close)

	cfg := &config.Config{
		Env:                       "dev",
		Timezone:                  "UTC",
		LogLevel:                  "error",
		LogFormat:                 "json",
		RedisAddr:                 mr.Addr(),
		DeliveryTimeoutSeconds:    5,
		DeliveryMaxAttempts:       1,
		BackoffPolicy:             "fixed",
		BackoffBaseSeconds:        1,
		BackoffMaxSeconds:         2,
		DisableThreshold:          10,
		DeliveryLogMaxEntries:     1000,
		ResponseBodyMaxBytes:      2048,
		IndexSweepIntervalSeconds: 3600,
		AuthProvider:              "static",

		// Benchmarks keep rate limiting disabled.
		RateLimit: config.RateLimitConfig{},
	}
	authCfg, _ := json.Marshal(map[string]any{
		"token":   benchToken,
		"subject": "bench-user",
		"email":   "bench@hookq.local",
		"scopes":  []string{"hookq:trigger"},
		"raw": map[string]any{
			"role":     "ADMIN",
			"tenantId": benchOwner,
		},
	})
	cfg.AuthConfig = authCfg

	a, err := app.NewApplication(cfg)
	if err != nil {
		b.Fatalf("app init: %v", err)
	}
	app.SetupMappings(a)
	b.Cleanup(func() { _ = a.TracingShutdown(context.Background()) })
	return a
}

func doJSONRequest(b *testing.B, h http.Handler, method, path string, body []byte) (int, []byte) {
	b.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+benchToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

// createFilteredSubscription registers a subscription whose condition never
// matches the benchmark events, so the dispatch hot path runs matching and
// evaluation without spawning delivery goroutines.
func createFilteredSubscription(b *testing.B, a *app.Application) {
	b.Helper()
	body := []byte(`{
		"name": "bench watcher",
		"entityType": "deal",
		"eventType": "stage_changed",
		"targetUrl": "https://hooks.invalid/bench",
		"conditions": [{"field": "stage", "operator": "equals", "value": "never"}]
	}`)
	status, resp := doJSONRequest(b, a.Engine, http.MethodPost, "/v1/hookq/subscriptions", body)
	if status != http.StatusCreated {
		b.Fatalf("create subscription status %d body=%s", status, string(resp))
	}
}

func BenchmarkHTTP_TriggerEvent(b *testing.B) {
	a := newBenchApp(b)
	createFilteredSubscription(b, a)

	triggerBody := []byte(`{
		"entityType": "deal",
		"eventType": "stage_changed",
		"entityId": "deal-1",
		"data": {"stage": "won", "amount": 4200},
		"previousData": {"stage": "negotiation"},
		"changedFields": ["stage"]
	}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		status, resp := doJSONRequest(b, a.Engine, http.MethodPost, "/v1/hookq/events", triggerBody)
		if status != http.StatusAccepted {
			b.Fatalf("trigger status %d body=%s", status, string(resp))
		}
	}
}

func BenchmarkDispatcher_Dispatch(b *testing.B) {
	a := newBenchApp(b)
	createFilteredSubscription(b, a)
	ctx := context.Background()

	evt := domain.Event{
		EntityType:    domain.EntityDeal,
		EventType:     domain.EventStageChanged,
		EntityID:      "deal-1",
		Data:          map[string]any{"stage": "won", "amount": 4200},
		PreviousData:  map[string]any{"stage": "negotiation"},
		ChangedFields: []string{"stage"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Dispatcher.Dispatch(ctx, benchOwner, evt)
	}
}

func BenchmarkRules_Evaluate(b *testing.B) {
	conds := []domain.Condition{
		{Field: "stage", Operator: domain.OpEquals, Value: "won"},
		{Field: "amount", Operator: domain.OpGreaterThan, Value: 1000, Logic: domain.LogicAnd},
		{Field: "owner.email", Operator: domain.OpContains, Value: "@example.com", Logic: domain.LogicOr},
	}
	data := map[string]any{
		"stage":  "won",
		"amount": 4200,
		"owner":  map[string]any{"email": "rep@example.com"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !rules.Evaluate(conds, data) {
			b.Fatal("expected conditions to match")
		}
	}
}
