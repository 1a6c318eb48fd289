package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildPayloadSharedTimestamp(t *testing.T) {
	evt := Event{
		EntityType: EntityDeal,
		EventType:  EventStageChanged,
		EntityID:   "deal-42",
		Data:       map[string]any{"stage": "won"},
	}
	subA := Subscription{ID: "sub-a", Name: "closed deals"}
	subB := Subscription{ID: "sub-b", Name: "all deal changes"}
	ts := timeMustParse(t, "2024-03-01T10:15:00Z")

	pa := BuildPayload(evt, subA, ts)
	pb := BuildPayload(evt, subB, ts)

	if pa.Timestamp != pb.Timestamp {
		t.Errorf("timestamps differ across subscriptions: %s vs %s", pa.Timestamp, pb.Timestamp)
	}
	if pa.Timestamp != "2024-03-01T10:15:00Z" {
		t.Errorf("Timestamp = %s, want 2024-03-01T10:15:00Z", pa.Timestamp)
	}
	if pa.Event != "deal.stage_changed" {
		t.Errorf("Event = %s, want deal.stage_changed", pa.Event)
	}
	if pa.SubscriptionID != "sub-a" || pb.SubscriptionID != "sub-b" {
		t.Errorf("subscription identity not carried: %s / %s", pa.SubscriptionID, pb.SubscriptionID)
	}
	if pa.SubscriptionName != "closed deals" {
		t.Errorf("SubscriptionName = %s, want closed deals", pa.SubscriptionName)
	}
}

func TestBuildPayloadTimestampIsUTC(t *testing.T) {
	evt := Event{EntityType: EntityContact, EventType: EventCreated, EntityID: "c-1"}
	ts := timeMustParse(t, "2024-03-01T12:00:00+03:00")

	p := BuildPayload(evt, Subscription{}, ts)
	if p.Timestamp != "2024-03-01T09:00:00Z" {
		t.Errorf("Timestamp = %s, want 2024-03-01T09:00:00Z", p.Timestamp)
	}
}

func TestBuildPayloadNullableFields(t *testing.T) {
	evt := Event{
		EntityType: EntityContact,
		EventType:  EventCreated,
		EntityID:   "c-1",
		Data:       map[string]any{"email": "ada@example.com"},
	}
	p := BuildPayload(evt, Subscription{ID: "sub-1"}, timeMustParse(t, "2024-03-01T10:00:00Z"))

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(raw), `"previous_data":null`) {
		t.Errorf("expected null previous_data, got %s", raw)
	}
	if !strings.Contains(string(raw), `"changed_fields":null`) {
		t.Errorf("expected null changed_fields, got %s", raw)
	}
}

func TestTestPayloadOverrides(t *testing.T) {
	sub := Subscription{
		ID:         "sub-1",
		Name:       "deal probe",
		EntityType: EntityDeal,
		EventType:  EventUpdated,
	}
	now := timeMustParse(t, "2024-03-01T10:00:00Z")

	p := TestPayload(sub, map[string]any{"stage": "won", "amount": 100}, now)

	if p.Event != "deal.updated" {
		t.Errorf("Event = %s, want deal.updated", p.Event)
	}
	if p.EntityID != "test-deal" {
		t.Errorf("EntityID = %s, want test-deal", p.EntityID)
	}
	if p.Data["stage"] != "won" {
		t.Errorf("override not applied, stage = %v", p.Data["stage"])
	}
	if p.Data["amount"] != 100 {
		t.Errorf("override not applied, amount = %v", p.Data["amount"])
	}
	if p.Data["currency"] != "USD" {
		t.Errorf("sample field lost, currency = %v", p.Data["currency"])
	}
	if p.PreviousData != nil || p.ChangedFields != nil {
		t.Error("test payload must not carry previous data or changed fields")
	}
}

func TestSampleEntityDataIsFresh(t *testing.T) {
	a := SampleEntityData(EntityContact)
	a["email"] = "mutated@example.com"
	b := SampleEntityData(EntityContact)
	if b["email"] == "mutated@example.com" {
		t.Error("SampleEntityData() returned a shared map")
	}
}
