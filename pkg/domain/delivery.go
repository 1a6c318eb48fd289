package domain

import (
	"encoding"
	"time"
)

type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

var (
	_ encoding.BinaryMarshaler = DeliveryStatus("")
	_ encoding.TextMarshaler   = DeliveryStatus("")
)

func (s DeliveryStatus) MarshalBinary() ([]byte, error) { return []byte(string(s)), nil }
func (s DeliveryStatus) MarshalText() ([]byte, error)   { return []byte(string(s)), nil }

// Outcome is the final result of one delivery series (or of a single manual
// test attempt). StatusCode is zero when no HTTP response was received.
type Outcome struct {
	Success      bool          `json:"success"`
	StatusCode   int           `json:"statusCode,omitempty"`
	ResponseBody string        `json:"responseBody,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	Attempts     int           `json:"attempts"`
	Duration     time.Duration `json:"-"`
}

func (o Outcome) Status() DeliveryStatus {
	if o.Success {
		return DeliverySuccess
	}
	return DeliveryFailed
}

// DeliveryLogEntry records one attempt-series against one subscription.
// HTTPStatus, ResponseBody and ErrorMessage stay null when the series ended
// without the corresponding data.
type DeliveryLogEntry struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscriptionId"`
	OwnerID        string         `json:"ownerId"`
	Status         DeliveryStatus `json:"status"`
	HTTPStatus     *int           `json:"httpStatus"`
	ResponseBody   *string        `json:"responseBody"`
	ErrorMessage   *string        `json:"errorMessage"`
	Attempts       int            `json:"attempts"`
	Payload        Payload        `json:"payload"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// NewDeliveryLogEntry folds a finished outcome into the persisted log shape.
// The store assigns the entry ID.
func NewDeliveryLogEntry(sub Subscription, payload Payload, out Outcome, now time.Time) DeliveryLogEntry {
	entry := DeliveryLogEntry{
		SubscriptionID: sub.ID,
		OwnerID:        sub.OwnerID,
		Status:         out.Status(),
		Attempts:       out.Attempts,
		Payload:        payload,
		CreatedAt:      now,
	}
	if out.StatusCode != 0 {
		sc := out.StatusCode
		entry.HTTPStatus = &sc
	}
	if out.ResponseBody != "" {
		body := out.ResponseBody
		entry.ResponseBody = &body
	}
	if out.ErrorMessage != "" {
		msg := out.ErrorMessage
		entry.ErrorMessage = &msg
	}
	return entry
}
