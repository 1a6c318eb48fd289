package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Delay returns the pause before the next delivery attempt. attempt is the
// 1-based number of the attempt that just finished, so the default
// exponential policy with base 1s yields 1s, 2s, 4s, ...
// Unknown policies fall back to plain exponential.
func Delay(policy string, baseSeconds, maxSeconds, attempt int, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if baseSeconds <= 0 {
		baseSeconds = 1
	}
	if maxSeconds <= 0 {
		maxSeconds = baseSeconds
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	var secs int
	switch policy {
	case "fixed":
		secs = minInt(baseSeconds, maxSeconds)
	case "linear":
		secs = minInt(baseSeconds*attempt, maxSeconds)
	case "exp_equal_jitter":
		peak := expSeconds(baseSeconds, maxSeconds, attempt)
		half := peak / 2
		secs = half + rng.Intn(half+1)
	case "exp_full_jitter":
		peak := expSeconds(baseSeconds, maxSeconds, attempt)
		secs = rng.Intn(peak + 1)
	default:
		secs = expSeconds(baseSeconds, maxSeconds, attempt)
	}
	return time.Duration(secs) * time.Second
}

func expSeconds(base, max, attempt int) int {
	return minInt(int(float64(base)*math.Pow(2, float64(attempt-1))), max)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
