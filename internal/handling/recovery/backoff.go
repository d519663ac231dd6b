package recovery

import (
	"math"
	"time"
)

// Backoff computes exponentially increasing retry delays:
// delay(attempt) = Base * 2^(attempt-1), capped at Cap. Attempts are
// 1-indexed; attempt 0 or below yields no delay.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff returns the stock backoff: 1s, 2s, 4s, ... capped at 30s.
func DefaultBackoff() Backoff {
	return Backoff{Base: 1 * time.Second, Cap: 30 * time.Second}
}

// Delay returns the delay before the given attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 || b.Base <= 0 {
		return 0
	}
	delay := float64(b.Base) * math.Pow(2, float64(attempt-1))
	if b.Cap > 0 && delay > float64(b.Cap) {
		return b.Cap
	}
	return time.Duration(delay)
}
