package domain

import "time"

// BreakerState is the health gate state for a (component, category) key.
type BreakerState string

const (
	BreakerClosed   BreakerState = "CLOSED"
	BreakerOpen     BreakerState = "OPEN"
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerSnapshot is a read-only view of one breaker key, exposed to
// the health monitor and the metrics snapshot.
type BreakerSnapshot struct {
	Component   string       `json:"component"`
	Category    Category     `json:"category"`
	State       BreakerState `json:"state"`
	Failures    int          `json:"failures"`
	LastFailure time.Time    `json:"last_failure,omitempty"`
}
