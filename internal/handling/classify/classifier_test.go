package classify

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/vietddude/remedy/internal/core/domain"
)

type kindError struct {
	kind string
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() string  { return e.kind }

func TestClassify_RuleTable(t *testing.T) {
	c := New(DefaultConfig(), nil)

	tests := []struct {
		msg      string
		source   string
		category domain.Category
	}{
		{"429 Too Many Requests", "platform_api", domain.CategoryPlatform},
		{"connection refused", "platform_api", domain.CategoryNetwork},
		{"no such host: cdn.example.com", "downloader", domain.CategoryNetwork},
		{"download interrupted at 42%", "downloader", domain.CategoryDownload},
		{"duplicate key value violates unique constraint", "repo", domain.CategoryRepository},
		{"no space left on device", "repo", domain.CategoryFileSystem},
		{"invalid credentials", "auth", domain.CategoryAuthentication},
		{"yaml: line 3: mapping values are not allowed", "loader", domain.CategoryConfiguration},
		{"argument must not be empty", "form", domain.CategoryValidation},
		{"widget tree rebuild failed", "main_window", domain.CategoryUI},
		{"out of memory", "transcoder", domain.CategoryPerformance},
	}

	for _, tt := range tests {
		rec := c.Classify(errors.New(tt.msg), tt.source, nil)
		if rec.Category != tt.category {
			t.Errorf("Classify(%q) category = %s, want %s", tt.msg, rec.Category, tt.category)
		}
		if rec.Confidence < 0 || rec.Confidence > 1 {
			t.Errorf("Classify(%q) confidence = %v, out of [0,1]", tt.msg, rec.Confidence)
		}
	}
}

func TestClassify_ExactKindConfidence(t *testing.T) {
	c := New(DefaultConfig(), nil)

	rec := c.Classify(&kindError{kind: "download", msg: "anything at all"}, "downloader", nil)
	if rec.Category != domain.CategoryDownload {
		t.Errorf("category = %s, want DOWNLOAD", rec.Category)
	}
	if rec.Confidence != 1.0 {
		t.Errorf("exact kind confidence = %v, want 1.0", rec.Confidence)
	}

	rec = c.Classify(os.ErrNotExist, "repo", nil)
	if rec.Category != domain.CategoryFileSystem || rec.Confidence != 1.0 {
		t.Errorf("sentinel match = (%s, %v), want (FILE_SYSTEM, 1.0)", rec.Category, rec.Confidence)
	}

	rec = c.Classify(fmt.Errorf("open config: %w", os.ErrPermission), "loader", nil)
	if rec.Category != domain.CategoryFileSystem || rec.Confidence != 1.0 {
		t.Errorf("wrapped sentinel = (%s, %v), want (FILE_SYSTEM, 1.0)", rec.Category, rec.Confidence)
	}
}

func TestClassify_SourceBoost(t *testing.T) {
	c := New(DefaultConfig(), nil)

	base := c.Classify(errors.New("widget tree corrupt"), "scheduler", nil)
	boosted := c.Classify(errors.New("widget tree corrupt"), "widget_palette", nil)

	if boosted.Confidence <= base.Confidence {
		t.Errorf("boosted confidence %v <= base %v", boosted.Confidence, base.Confidence)
	}
	if boosted.Confidence > 0.99 {
		t.Errorf("boosted confidence %v exceeds 0.99 cap", boosted.Confidence)
	}
}

func TestClassify_ThresholdRejectsWeakMatches(t *testing.T) {
	c := New(Config{MinConfidence: 0.95}, nil)

	// "sql" matches at 0.8, below the raised threshold.
	rec := c.Classify(errors.New("sql gibberish"), "somewhere", nil)
	if rec.Category != domain.CategoryUnknown {
		t.Errorf("category = %s, want UNKNOWN for sub-threshold match", rec.Category)
	}
	if rec.Confidence != 0.0 {
		t.Errorf("fallback confidence = %v, want 0.0", rec.Confidence)
	}
}

func TestClassify_Fallback(t *testing.T) {
	c := New(DefaultConfig(), nil)

	tests := []struct {
		name    string
		failure error
		source  string
	}{
		{"nil failure", nil, "somewhere"},
		{"empty message", errors.New(""), ""},
		{"gibberish", errors.New("zzz qqq"), "zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.Classify(tt.failure, tt.source, nil)
			if !rec.Category.Valid() {
				t.Fatalf("invalid category %q", rec.Category)
			}
			if rec.Category != domain.CategoryUnknown {
				t.Errorf("category = %s, want UNKNOWN", rec.Category)
			}
			if rec.Severity != domain.SeverityMedium {
				t.Errorf("severity = %s, want MEDIUM", rec.Severity)
			}
			if rec.Confidence != 0.0 {
				t.Errorf("confidence = %v, want 0.0", rec.Confidence)
			}
		})
	}
}

func TestClassify_CategoryHint(t *testing.T) {
	c := New(DefaultConfig(), nil)

	ctx := []domain.ContextEntry{{Key: HintCategory, Value: "DOWNLOAD"}}
	rec := c.Classify(errors.New("zzz qqq"), "downloader", ctx)
	if rec.Category != domain.CategoryDownload {
		t.Errorf("category = %s, want hinted DOWNLOAD", rec.Category)
	}

	// A rule match beats the hint.
	rec = c.Classify(errors.New("connection refused"), "downloader", ctx)
	if rec.Category != domain.CategoryNetwork {
		t.Errorf("category = %s, want NETWORK over hint", rec.Category)
	}
}

func TestClassify_SeverityHint(t *testing.T) {
	c := New(DefaultConfig(), nil)

	ctx := []domain.ContextEntry{{Key: HintSeverity, Value: "CRITICAL"}}
	rec := c.Classify(errors.New("connection refused"), "platform_api", ctx)
	if rec.Severity != domain.SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL from hint", rec.Severity)
	}

	// Bogus hints fall back to the category default.
	ctx = []domain.ContextEntry{{Key: HintSeverity, Value: "WHATEVER"}}
	rec = c.Classify(errors.New("connection refused"), "platform_api", ctx)
	if rec.Severity != domain.SeverityMedium {
		t.Errorf("severity = %s, want category default MEDIUM", rec.Severity)
	}
}

func TestClassify_AlwaysFixedSet(t *testing.T) {
	c := New(DefaultConfig(), nil)

	inputs := []error{
		nil,
		errors.New(""),
		errors.New("429 quota rate limit unauthorized sql yaml"),
		fmt.Errorf("wrapped: %w", errors.New("timeout")),
	}
	for _, in := range inputs {
		rec := c.Classify(in, "", nil)
		if !rec.Category.Valid() {
			t.Errorf("Classify(%v) returned category %q outside the fixed set", in, rec.Category)
		}
	}
}
