package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/hookq/internal/metrics"
	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/internal/rules"
	"github.com/osvaldoandrade/hookq/internal/tracing"
	"github.com/osvaldoandrade/hookq/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DispatcherService fans one CRM event out to every matching subscription.
// Dispatch never blocks on deliveries and never surfaces an error to the
// caller: a webhook problem is the subscriber's problem, not the emitter's.
type DispatcherService interface {
	Dispatch(ctx context.Context, ownerID string, evt domain.Event)
	// Test sends a synthetic payload through a single real attempt. It leaves
	// no delivery log entry and no health trace.
	Test(ctx context.Context, ownerID, subscriptionID string, overrides map[string]any) (domain.Outcome, error)
}

type dispatcherService struct {
	subs     repository.SubscriptionRepository
	delivery DeliveryService
	recorder RecorderService
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcherService(subs repository.SubscriptionRepository, delivery DeliveryService, recorder RecorderService, logger *slog.Logger, now func() time.Time) DispatcherService {
	if now == nil {
		now = time.Now
	}
	return &dispatcherService{subs: subs, delivery: delivery, recorder: recorder, logger: logger, now: now}
}

func (d *dispatcherService) Dispatch(ctx context.Context, ownerID string, evt domain.Event) {
	if strings.TrimSpace(ownerID) == "" {
		return
	}
	if !evt.EntityType.Valid() || !evt.EventType.Valid() {
		d.logger.Warn("dispatch dropped unknown event",
			"entityType", string(evt.EntityType),
			"eventType", string(evt.EventType),
		)
		return
	}

	eventName := domain.EventName(evt.EntityType, evt.EventType)
	ctx, span := otel.Tracer("hookq/dispatch").Start(ctx, "hookq.event.dispatch",
		trace.WithAttributes(
			attribute.String("hookq.event", eventName),
			attribute.String("hookq.entity_id", evt.EntityID),
			attribute.String("hookq.owner_id", ownerID),
		),
	)
	defer span.End()

	metrics.EventsTriggeredTotal.WithLabelValues(string(evt.EntityType), string(evt.EventType)).Inc()

	subs, err := d.subs.ListActive(ctx, ownerID, evt.EntityType, evt.EventType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("dispatch list subscriptions failed", "event", eventName, "err", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	// Every subscription of this event shares one timestamp.
	ts := d.now().UTC()
	traceParent, traceState := tracing.TraceContextStrings(ctx)

	matched := 0
	for _, sub := range subs {
		if !rules.Evaluate(sub.Conditions, evt.Data) {
			metrics.SubscriptionsFilteredTotal.WithLabelValues(string(evt.EntityType), string(evt.EventType)).Inc()
			continue
		}
		matched++
		payload := domain.BuildPayload(evt, sub, ts)
		go d.deliverAndRecord(sub, payload, traceParent, traceState)
	}
	span.SetAttributes(attribute.Int("hookq.matched", matched))
}

// deliverAndRecord runs detached from the triggering request: a fresh root
// context linked back to the trigger trace, so deliveries survive the
// emitter hanging up.
func (d *dispatcherService) deliverAndRecord(sub domain.Subscription, payload domain.Payload, traceParent, traceState string) {
	ctx := tracing.ContextWithRemoteParent(context.Background(), traceParent, traceState)
	ctx, span := otel.Tracer("hookq/dispatch").Start(ctx, "hookq.webhook.deliver",
		trace.WithAttributes(
			attribute.String("hookq.event", payload.Event),
			attribute.String("hookq.subscription_id", sub.ID),
		),
	)
	defer span.End()

	out := d.delivery.Deliver(ctx, sub, payload)
	if !out.Success {
		span.SetStatus(codes.Error, out.ErrorMessage)
	}
	span.SetAttributes(
		attribute.Bool("hookq.delivered", out.Success),
		attribute.Int("hookq.attempts", out.Attempts),
	)

	d.recorder.Record(ctx, sub, payload, out)
}

func (d *dispatcherService) Test(ctx context.Context, ownerID, subscriptionID string, overrides map[string]any) (domain.Outcome, error) {
	sub, err := d.subs.Get(ctx, ownerID, subscriptionID)
	if err != nil {
		return domain.Outcome{}, err
	}

	payload := domain.TestPayload(*sub, overrides, d.now())
	out := d.delivery.DeliverOnce(ctx, *sub, payload)
	metrics.TestDeliveriesTotal.WithLabelValues(string(out.Status())).Inc()
	return out, nil
}
