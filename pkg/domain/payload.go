package domain

import "time"

// Payload is the JSON document POSTed to subscribers. The snake_case field
// names are the external wire contract; previous_data and changed_fields
// serialize as explicit nulls when absent.
type Payload struct {
	Event            string         `json:"event"`
	Timestamp        string         `json:"timestamp"`
	EntityType       EntityType     `json:"entity_type"`
	EntityID         string         `json:"entity_id"`
	Data             map[string]any `json:"data"`
	PreviousData     map[string]any `json:"previous_data"`
	ChangedFields    []string       `json:"changed_fields"`
	SubscriptionID   string         `json:"subscription_id"`
	SubscriptionName string         `json:"subscription_name"`
}

// BuildPayload renders the delivery document for one subscription. The
// timestamp is passed in so every subscription of the same event shares a
// single instant.
func BuildPayload(evt Event, sub Subscription, ts time.Time) Payload {
	return Payload{
		Event:            EventName(evt.EntityType, evt.EventType),
		Timestamp:        ts.UTC().Format(time.RFC3339),
		EntityType:       evt.EntityType,
		EntityID:         evt.EntityID,
		Data:             evt.Data,
		PreviousData:     evt.PreviousData,
		ChangedFields:    evt.ChangedFields,
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
	}
}

// TestPayload builds the synthetic document used by manual test deliveries:
// placeholder entity data with caller overrides shallow-merged on top, no
// previous data, no changed fields.
func TestPayload(sub Subscription, overrides map[string]any, now time.Time) Payload {
	data := SampleEntityData(sub.EntityType)
	for k, v := range overrides {
		data[k] = v
	}
	return Payload{
		Event:            EventName(sub.EntityType, sub.EventType),
		Timestamp:        now.UTC().Format(time.RFC3339),
		EntityType:       sub.EntityType,
		EntityID:         "test-" + string(sub.EntityType),
		Data:             data,
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
	}
}

// SampleEntityData returns a fresh placeholder record per entity type. The
// values only need to look plausible to a receiving endpoint.
func SampleEntityData(entity EntityType) map[string]any {
	switch entity {
	case EntityContact:
		return map[string]any{
			"id":         "test-contact",
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"email":      "ada@example.com",
			"phone":      "+1-555-0100",
			"tags":       []any{"vip"},
			"status":     "active",
		}
	case EntityCompany:
		return map[string]any{
			"id":       "test-company",
			"name":     "Acme Inc",
			"domain":   "acme.example.com",
			"industry": "software",
			"size":     250,
		}
	case EntityDeal:
		return map[string]any{
			"id":          "test-deal",
			"title":       "Annual license",
			"amount":      4900,
			"currency":    "USD",
			"stage":       "negotiation",
			"probability": 0.6,
		}
	case EntityTask:
		return map[string]any{
			"id":        "test-task",
			"title":     "Follow-up call",
			"due_date":  "2025-01-15",
			"completed": false,
			"priority":  "high",
		}
	case EntityActivity:
		return map[string]any{
			"id":               "test-activity",
			"kind":             "call",
			"subject":          "Intro call",
			"duration_minutes": 30,
			"outcome":          "connected",
		}
	}
	return map[string]any{"id": "test-" + string(entity)}
}
