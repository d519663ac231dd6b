package classify

import (
	"context"
	"io/fs"
	"net"
	"os"

	"github.com/vietddude/remedy/internal/core/domain"
)

// Rule maps a lowercase substring pattern to a category with a base
// confidence. Rules are evaluated in order; first accepted match wins.
type Rule struct {
	Pattern    string
	Category   domain.Category
	Confidence float64
}

// DefaultRules is the ordered pattern table. More specific patterns
// come first so that e.g. "connection timed out" lands on NETWORK
// before "timed out" lands on PERFORMANCE.
func DefaultRules() []Rule {
	return []Rule{
		{"401", domain.CategoryAuthentication, 0.9},
		{"unauthorized", domain.CategoryAuthentication, 0.9},
		{"invalid credentials", domain.CategoryAuthentication, 0.95},
		{"token expired", domain.CategoryAuthentication, 0.9},
		{"authentication", domain.CategoryAuthentication, 0.85},
		{"403", domain.CategoryPlatform, 0.8},
		{"forbidden", domain.CategoryPlatform, 0.8},
		{"429", domain.CategoryPlatform, 0.9},
		{"too many requests", domain.CategoryPlatform, 0.9},
		{"rate limit", domain.CategoryPlatform, 0.9},
		{"quota", domain.CategoryPlatform, 0.85},
		{"video unavailable", domain.CategoryPlatform, 0.95},
		{"extraction failed", domain.CategoryPlatform, 0.9},
		{"download interrupted", domain.CategoryDownload, 0.95},
		{"download failed", domain.CategoryDownload, 0.95},
		{"incomplete read", domain.CategoryDownload, 0.85},
		{"checksum mismatch", domain.CategoryDownload, 0.9},
		{"connection refused", domain.CategoryNetwork, 0.95},
		{"connection reset", domain.CategoryNetwork, 0.95},
		{"no such host", domain.CategoryNetwork, 0.95},
		{"dns", domain.CategoryNetwork, 0.85},
		{"tls", domain.CategoryNetwork, 0.85},
		{"network unreachable", domain.CategoryNetwork, 0.95},
		{"broken pipe", domain.CategoryNetwork, 0.9},
		{"timeout", domain.CategoryNetwork, 0.8},
		{"timed out", domain.CategoryNetwork, 0.8},
		{"constraint violation", domain.CategoryRepository, 0.9},
		{"duplicate key", domain.CategoryRepository, 0.9},
		{"database is locked", domain.CategoryRepository, 0.95},
		{"sql", domain.CategoryRepository, 0.8},
		{"transaction rollback", domain.CategoryRepository, 0.85},
		{"no space left", domain.CategoryFileSystem, 0.95},
		{"permission denied", domain.CategoryFileSystem, 0.9},
		{"no such file", domain.CategoryFileSystem, 0.95},
		{"file exists", domain.CategoryFileSystem, 0.85},
		{"read-only file system", domain.CategoryFileSystem, 0.95},
		{"invalid config", domain.CategoryConfiguration, 0.9},
		{"missing required setting", domain.CategoryConfiguration, 0.9},
		{"yaml", domain.CategoryConfiguration, 0.8},
		{"parse error", domain.CategoryConfiguration, 0.8},
		{"validation failed", domain.CategoryValidation, 0.9},
		{"invalid argument", domain.CategoryValidation, 0.85},
		{"out of range", domain.CategoryValidation, 0.85},
		{"must not be empty", domain.CategoryValidation, 0.9},
		{"widget", domain.CategoryUI, 0.8},
		{"render", domain.CategoryUI, 0.8},
		{"layout", domain.CategoryUI, 0.8},
		{"out of memory", domain.CategoryPerformance, 0.9},
		{"too slow", domain.CategoryPerformance, 0.8},
		{"deadline exceeded", domain.CategoryPerformance, 0.8},
	}
}

// DefaultSeverities maps each category to its default severity. An
// explicit severity hint in the classification context overrides it.
func DefaultSeverities() map[domain.Category]domain.Severity {
	return map[domain.Category]domain.Severity{
		domain.CategoryUI:             domain.SeverityLow,
		domain.CategoryPlatform:       domain.SeverityMedium,
		domain.CategoryDownload:       domain.SeverityMedium,
		domain.CategoryRepository:     domain.SeverityHigh,
		domain.CategoryValidation:     domain.SeverityLow,
		domain.CategoryAuthentication: domain.SeverityHigh,
		domain.CategoryNetwork:        domain.SeverityMedium,
		domain.CategoryFileSystem:     domain.SeverityHigh,
		domain.CategoryConfiguration:  domain.SeverityHigh,
		domain.CategoryPerformance:    domain.SeverityMedium,
		domain.CategoryUnknown:        domain.SeverityMedium,
	}
}

// sentinelRule matches a known error value via errors.Is. Sentinel
// matches are exact-kind matches and yield confidence 1.0.
type sentinelRule struct {
	target   error
	category domain.Category
}

func defaultSentinels() []sentinelRule {
	return []sentinelRule{
		{os.ErrNotExist, domain.CategoryFileSystem},
		{os.ErrExist, domain.CategoryFileSystem},
		{os.ErrPermission, domain.CategoryFileSystem},
		{fs.ErrClosed, domain.CategoryFileSystem},
		{os.ErrDeadlineExceeded, domain.CategoryPerformance},
		{context.DeadlineExceeded, domain.CategoryPerformance},
		{context.Canceled, domain.CategoryPerformance},
		{net.ErrClosed, domain.CategoryNetwork},
	}
}
