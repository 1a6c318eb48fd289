package domain

import "time"

// DisableThreshold is the default consecutive-failure count at which a
// subscription is switched off. The comparison runs against the count after
// the current failure is applied, and only on the failure path.
const DisableThreshold = 10

type HealthState struct {
	Active              bool
	TriggerCount        int64
	ConsecutiveFailures int
	LastTriggeredAt     *time.Time
}

// NextHealthState folds one finished delivery series into the health
// counters. Pure; callers persist the result separately. A threshold <= 0
// falls back to DisableThreshold.
func NextHealthState(cur HealthState, success bool, threshold int, now time.Time) HealthState {
	if threshold <= 0 {
		threshold = DisableThreshold
	}
	next := cur
	next.TriggerCount++
	ts := now
	next.LastTriggeredAt = &ts
	if success {
		next.ConsecutiveFailures = 0
		return next
	}
	next.ConsecutiveFailures++
	if next.ConsecutiveFailures >= threshold {
		next.Active = false
	}
	return next
}
