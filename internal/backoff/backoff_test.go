package backoff

import (
	"math/rand"
	"testing"
	"time"
)

func TestDelayExponential(t *testing.T) {
	tests := []struct {
		name        string
		baseSeconds int
		maxSeconds  int
		attempt     int
		want        time.Duration
	}{
		{"after first attempt", 1, 60, 1, 1 * time.Second},
		{"after second attempt", 1, 60, 2, 2 * time.Second},
		{"after third attempt", 1, 60, 3, 4 * time.Second},
		{"after fourth attempt", 1, 60, 4, 8 * time.Second},
		{"capped at max", 1, 5, 10, 5 * time.Second},
		{"zero attempt treated as first", 1, 60, 0, 1 * time.Second},
		{"base two", 2, 60, 2, 4 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delay("exponential", tt.baseSeconds, tt.maxSeconds, tt.attempt, nil)
			if got != tt.want {
				t.Errorf("Delay(exponential) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelayFixed(t *testing.T) {
	tests := []struct {
		name        string
		baseSeconds int
		maxSeconds  int
		attempt     int
		want        time.Duration
	}{
		{"base 5 max 10", 5, 10, 1, 5 * time.Second},
		{"base 5 max 10 many attempts", 5, 10, 100, 5 * time.Second},
		{"base exceeds max", 20, 10, 1, 10 * time.Second},
		{"zero base defaults to 1", 0, 10, 1, 1 * time.Second},
		{"zero max equals base", 5, 0, 1, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delay("fixed", tt.baseSeconds, tt.maxSeconds, tt.attempt, nil)
			if got != tt.want {
				t.Errorf("Delay(fixed) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelayLinear(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first", 1, 5 * time.Second},
		{"second", 2, 10 * time.Second},
		{"third", 3, 15 * time.Second},
		{"capped", 10, 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delay("linear", 5, 20, tt.attempt, nil)
			if got != tt.want {
				t.Errorf("Delay(linear) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelayJitterStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for attempt := 1; attempt <= 8; attempt++ {
		full := Delay("exp_full_jitter", 1, 60, attempt, rng)
		peak := Delay("exponential", 1, 60, attempt, nil)
		if full < 0 || full > peak {
			t.Errorf("exp_full_jitter delay %v outside [0, %v] at attempt %d", full, peak, attempt)
		}

		equal := Delay("exp_equal_jitter", 1, 60, attempt, rng)
		if equal < peak/2 || equal > peak {
			t.Errorf("exp_equal_jitter delay %v outside [%v, %v] at attempt %d", equal, peak/2, peak, attempt)
		}
	}
}

func TestDelayUnknownPolicyFallsBackToExponential(t *testing.T) {
	got := Delay("bogus", 1, 60, 3, nil)
	if got != 4*time.Second {
		t.Errorf("Delay(bogus) = %v, want 4s", got)
	}
}
