package worker

import (
	"math"
	"time"
)

// RetryPolicy controls the redelivery backoff for notify tasks. Field
// defaults are filled in by NewNotifyWorker; a zero policy still yields the
// one-second floor.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the pause before delivery attempt n (1-based):
// InitialDelay * BackoffFactor^(n-1), capped at MaxDelay and never below one
// second.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d < time.Second {
		d = time.Second
	}
	return d
}
