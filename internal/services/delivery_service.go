package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/osvaldoandrade/hookq/internal/backoff"
	"github.com/osvaldoandrade/hookq/internal/metrics"
	"github.com/osvaldoandrade/hookq/internal/ratelimit"
	"github.com/osvaldoandrade/hookq/internal/tracing"
	"github.com/osvaldoandrade/hookq/pkg/domain"
)

// DeliveryService owns the HTTP leg: one POST per attempt, a bounded retry
// series per subscription, and nothing else. It never touches stores.
type DeliveryService interface {
	// Deliver runs the full attempt series and returns the final outcome.
	Deliver(ctx context.Context, sub domain.Subscription, payload domain.Payload) domain.Outcome
	// DeliverOnce performs exactly one attempt with no backoff. Used by the
	// manual test trigger.
	DeliverOnce(ctx context.Context, sub domain.Subscription, payload domain.Payload) domain.Outcome
}

type DeliveryConfig struct {
	TimeoutSeconds     int
	MaxAttempts        int
	BackoffPolicy      string
	BaseBackoffSeconds int
	MaxBackoffSeconds  int
	MaxBodyBytes       int
}

type deliveryService struct {
	logger *slog.Logger
	client *http.Client

	maxAttempts   int
	backoffPolicy string
	baseSeconds   int
	maxSeconds    int
	maxBodyBytes  int64

	limiter ratelimit.Limiter
	bucket  ratelimit.Bucket
}

func NewDeliveryService(logger *slog.Logger, cfg DeliveryConfig, limiter ratelimit.Limiter, bucket ratelimit.Bucket) DeliveryService {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if strings.TrimSpace(cfg.BackoffPolicy) == "" {
		cfg.BackoffPolicy = "exponential"
	}
	if cfg.BaseBackoffSeconds <= 0 {
		cfg.BaseBackoffSeconds = 1
	}
	if cfg.MaxBackoffSeconds <= 0 {
		cfg.MaxBackoffSeconds = 60
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2048
	}
	return &deliveryService{
		logger:        logger,
		client:        &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		maxAttempts:   cfg.MaxAttempts,
		backoffPolicy: cfg.BackoffPolicy,
		baseSeconds:   cfg.BaseBackoffSeconds,
		maxSeconds:    cfg.MaxBackoffSeconds,
		maxBodyBytes:  int64(cfg.MaxBodyBytes),
		limiter:       limiter,
		bucket:        bucket,
	}
}

func (s *deliveryService) Deliver(ctx context.Context, sub domain.Subscription, payload domain.Payload) domain.Outcome {
	return s.deliverWithRetry(ctx, sub, payload, s.maxAttempts)
}

func (s *deliveryService) DeliverOnce(ctx context.Context, sub domain.Subscription, payload domain.Payload) domain.Outcome {
	return s.deliverWithRetry(ctx, sub, payload, 1)
}

func (s *deliveryService) deliverWithRetry(ctx context.Context, sub domain.Subscription, payload domain.Payload, maxAttempts int) domain.Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Outcome{ErrorMessage: "encode payload: " + err.Error()}
	}

	start := time.Now()
	var out domain.Outcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		s.waitForSlot(ctx, sub.TargetURL)

		status, respBody, attemptErr := s.attempt(ctx, sub, body)
		out.Attempts = attempt
		metrics.DeliveryAttemptsTotal.WithLabelValues(string(payload.EntityType), string(sub.EventType)).Inc()

		if attemptErr == nil && status >= 200 && status < 300 {
			out.Success = true
			out.StatusCode = status
			out.ResponseBody = respBody
			out.ErrorMessage = ""
			break
		}

		// Keep only the latest attempt's evidence.
		if attemptErr != nil {
			out.StatusCode = 0
			out.ResponseBody = ""
			out.ErrorMessage = attemptErr.Error()
		} else {
			out.StatusCode = status
			out.ResponseBody = respBody
			out.ErrorMessage = ""
		}

		if attempt < maxAttempts {
			delay := backoff.Delay(s.backoffPolicy, s.baseSeconds, s.maxSeconds, attempt, nil)
			if sleepOrDone(ctx, delay) != nil {
				break
			}
		}
	}
	out.Duration = time.Since(start)

	if !out.Success {
		s.logger.Warn("webhook delivery failed",
			"subscriptionId", sub.ID,
			"url", sub.TargetURL,
			"attempts", out.Attempts,
			"status", out.StatusCode,
			"err", out.ErrorMessage,
		)
	}
	return out
}

// attempt performs a single POST. The client timeout bounds each attempt
// independently of its siblings.
func (s *deliveryService) attempt(ctx context.Context, sub domain.Subscription, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.TargetURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range sub.Headers {
		req.Header.Set(k, v)
	}
	signRequest(req, sub.Secret, body)
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes))
	return resp.StatusCode, string(b), nil
}

// waitForSlot gates outbound traffic per target host. Limiter errors fail
// open so a Redis hiccup cannot stall deliveries.
func (s *deliveryService) waitForSlot(ctx context.Context, target string) {
	if s.limiter == nil || !s.bucket.Enabled() {
		return
	}
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	for {
		dec, err := s.limiter.Allow(ctx, "webhook", host, s.bucket)
		if err != nil {
			return
		}
		if dec.Allowed {
			return
		}
		metrics.RateLimitHitsTotal.WithLabelValues("webhook", "delivery").Inc()
		if sleepOrDone(ctx, dec.RetryAfter) != nil {
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
