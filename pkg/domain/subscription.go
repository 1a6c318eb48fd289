package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIn          Operator = "in"
)

func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpIn:
		return true
	}
	return false
}

type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Valid accepts AND/OR in any case plus the empty string (treated as AND).
func (l Logic) Valid() bool {
	switch strings.ToUpper(string(l)) {
	case "", string(LogicAnd), string(LogicOr):
		return true
	}
	return false
}

// IsOr reports whether this combinator ORs the condition with the
// accumulated result. Anything that is not OR combines with AND.
func (l Logic) IsOr() bool {
	return strings.EqualFold(string(l), string(LogicOr))
}

// Condition is one row of a subscription's filter. Logic combines the row
// with the result accumulated so far; the first row's Logic is ignored.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Logic    Logic    `json:"logic,omitempty"`
}

type Subscription struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Name       string     `json:"name"`
	EntityType EntityType `json:"entityType"`
	EventType  EventType  `json:"eventType"`
	TargetURL  string     `json:"targetUrl"`
	// Headers are merged into every delivery request for this subscription.
	Headers map[string]string `json:"headers,omitempty"`
	// Secret, when set, enables HMAC signature headers on deliveries.
	Secret     string      `json:"secret,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`

	Active              bool       `json:"active"`
	TriggerCount        int64      `json:"triggerCount"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastTriggeredAt     *time.Time `json:"lastTriggeredAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubscriptionUpdate is a partial update: nil fields keep their current
// value. Setting Active true on a disabled subscription resets its failure
// streak.
type SubscriptionUpdate struct {
	Name       *string            `json:"name,omitempty"`
	EntityType *EntityType        `json:"entityType,omitempty"`
	EventType  *EventType         `json:"eventType,omitempty"`
	TargetURL  *string            `json:"targetUrl,omitempty"`
	Headers    *map[string]string `json:"headers,omitempty"`
	Secret     *string            `json:"secret,omitempty"`
	Conditions *[]Condition       `json:"conditions,omitempty"`
	Active     *bool              `json:"active,omitempty"`
}

// IsValidWebhookURL accepts only well-formed https targets. Plain http and
// anything that does not parse to a host is rejected.
func IsValidWebhookURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme == "https" && u.Host != ""
}

func (s *Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !s.EntityType.Valid() {
		return fmt.Errorf("unknown entity type %q", s.EntityType)
	}
	if !s.EventType.Valid() {
		return fmt.Errorf("unknown event type %q", s.EventType)
	}
	if !IsValidWebhookURL(s.TargetURL) {
		return fmt.Errorf("target url must be a valid https endpoint")
	}
	for k := range s.Headers {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("header names must not be blank")
		}
	}
	for i, c := range s.Conditions {
		if strings.TrimSpace(c.Field) == "" {
			return fmt.Errorf("condition %d: field is required", i)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("condition %d: unknown operator %q", i, c.Operator)
		}
		if !c.Logic.Valid() {
			return fmt.Errorf("condition %d: logic must be AND or OR", i)
		}
	}
	return nil
}

func (s *Subscription) Health() HealthState {
	return HealthState{
		Active:              s.Active,
		TriggerCount:        s.TriggerCount,
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastTriggeredAt:     s.LastTriggeredAt,
	}
}

func (s *Subscription) ApplyHealth(h HealthState) {
	s.Active = h.Active
	s.TriggerCount = h.TriggerCount
	s.ConsecutiveFailures = h.ConsecutiveFailures
	s.LastTriggeredAt = h.LastTriggeredAt
}
