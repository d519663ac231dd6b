// Package classify turns raw failures into classified ErrorRecords.
// Classification is pure and reentrant: an exact-kind lookup first,
// then an ordered substring rule table, then the UNKNOWN fallback.
package classify

import (
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/metrics"
)

// Context keys recognized by the classifier.
const (
	HintCategory = "category_hint"
	HintSeverity = "severity_hint"
	HintKind     = "kind"
)

// Config holds classifier tuning.
type Config struct {
	// MinConfidence rejects rule matches below this score.
	MinConfidence float64 `yaml:"min_confidence"`
}

// DefaultConfig returns the stock classifier configuration.
func DefaultConfig() Config {
	return Config{MinConfidence: 0.8}
}

// Kinder lets producers tag failures with a stable kind string that
// the exact lookup table can resolve without pattern matching.
type Kinder interface {
	Kind() string
}

// Classifier assigns category, severity and confidence to failures.
// Safe for concurrent use; all state is read-only after construction.
type Classifier struct {
	cfg        Config
	kinds      map[string]domain.Category
	sentinels  []sentinelRule
	rules      []Rule
	severities map[domain.Category]domain.Severity
	log        *slog.Logger

	metaOnce sync.Once
}

// New builds a classifier with the default tables.
func New(cfg Config, log *slog.Logger) *Classifier {
	if cfg.MinConfidence <= 0 || cfg.MinConfidence > 1 {
		cfg.MinConfidence = DefaultConfig().MinConfidence
	}
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		cfg: cfg,
		kinds: map[string]domain.Category{
			"ui":             domain.CategoryUI,
			"platform":       domain.CategoryPlatform,
			"download":       domain.CategoryDownload,
			"repository":     domain.CategoryRepository,
			"validation":     domain.CategoryValidation,
			"authentication": domain.CategoryAuthentication,
			"network":        domain.CategoryNetwork,
			"file_system":    domain.CategoryFileSystem,
			"configuration":  domain.CategoryConfiguration,
			"performance":    domain.CategoryPerformance,
		},
		sentinels:  defaultSentinels(),
		rules:      DefaultRules(),
		severities: DefaultSeverities(),
		log:        log,
	}
}

// Classify builds an ErrorRecord for the failure. It never fails: any
// internal panic is demoted to an UNKNOWN/MEDIUM/confidence-0 record
// and a meta-error is logged once per process.
func (c *Classifier) Classify(
	failure error,
	source string,
	context []domain.ContextEntry,
) (rec *domain.ErrorRecord) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.metaOnce.Do(func() {
				c.log.Error("classifier panic, demoting to UNKNOWN", "panic", r)
			})
			rec = c.fallback(failure, source, context)
		}
		metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
		metrics.ErrorsTotal.WithLabelValues(string(rec.Category), string(rec.Severity)).Inc()
	}()

	category, confidence := c.resolve(failure, source, context)

	severity := c.severities[category]
	if hint, ok := lookup(context, HintSeverity); ok {
		if s := domain.Severity(hint); s.Valid() {
			severity = s
		}
	}

	return domain.NewErrorRecord(category, severity, confidence, source, message(failure), context)
}

// resolve runs the three-stage algorithm: exact kind, ordered rules,
// category hint, UNKNOWN.
func (c *Classifier) resolve(
	failure error,
	source string,
	context []domain.ContextEntry,
) (domain.Category, float64) {
	// 1. Exact kind lookup: tagged kind, context kind hint, known
	// sentinel values, typed network errors. Confidence 1.0.
	if kind, ok := kindOf(failure, context); ok {
		if cat, ok := c.kinds[strings.ToLower(kind)]; ok {
			return cat, 1.0
		}
	}
	if failure != nil {
		for _, s := range c.sentinels {
			if errors.Is(failure, s.target) {
				return s.category, 1.0
			}
		}
		var netErr net.Error
		if errors.As(failure, &netErr) {
			return domain.CategoryNetwork, 1.0
		}
	}

	// 2. Ordered substring rules over message and source. A rule that
	// hits both gets a boost, capped below exact-match confidence.
	msg := strings.ToLower(message(failure))
	src := strings.ToLower(source)
	for _, r := range c.rules {
		inMsg := msg != "" && strings.Contains(msg, r.Pattern)
		inSrc := src != "" && strings.Contains(src, r.Pattern)
		if !inMsg && !inSrc {
			continue
		}
		confidence := r.Confidence
		if inMsg && inSrc {
			confidence = min(confidence+0.1, 0.99)
		}
		if confidence < c.cfg.MinConfidence {
			continue
		}
		return r.Category, confidence
	}

	// 3. Producer facades pass a default category hint; it beats the
	// UNKNOWN fallback but scores below the acceptance threshold.
	if hint, ok := lookup(context, HintCategory); ok {
		if cat := domain.Category(hint); cat.Valid() {
			return cat, 0.5
		}
	}

	return domain.CategoryUnknown, 0.0
}

func (c *Classifier) fallback(
	failure error,
	source string,
	context []domain.ContextEntry,
) *domain.ErrorRecord {
	return domain.NewErrorRecord(
		domain.CategoryUnknown,
		domain.SeverityMedium,
		0.0,
		source,
		message(failure),
		context,
	)
}

func kindOf(failure error, context []domain.ContextEntry) (string, bool) {
	var k Kinder
	if failure != nil && errors.As(failure, &k) {
		return k.Kind(), true
	}
	if hint, ok := lookup(context, HintKind); ok {
		return hint, true
	}
	return "", false
}

func lookup(context []domain.ContextEntry, key string) (string, bool) {
	for _, e := range context {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

func message(failure error) string {
	if failure == nil {
		return ""
	}
	return failure.Error()
}
