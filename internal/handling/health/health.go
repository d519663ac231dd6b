// Package health provides engine health monitoring and status reporting.
package health

import "github.com/vietddude/remedy/internal/core/domain"

// SystemStatus represents the overall health state of the engine.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full engine health report.
type Report struct {
	Status           SystemStatus             `json:"status"`
	ErrorsByCategory map[domain.Category]int  `json:"errors_by_category"`
	RecoveryRate     float64                  `json:"recovery_rate"`
	RecoverySamples  int                      `json:"recovery_samples"`
	OpenBreakers     int                      `json:"open_breakers"`
	Breakers         []domain.BreakerSnapshot `json:"breakers,omitempty"`
	SinkQueueDepth   int                      `json:"sink_queue_depth"`
	SinkDropped      uint64                   `json:"sink_dropped"`
}
