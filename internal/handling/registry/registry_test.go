package registry

import (
	"errors"
	"testing"

	"github.com/vietddude/remedy/internal/core/domain"
)

func TestResolvePlan_Precedence(t *testing.T) {
	r := NewRegistry()

	componentPlan := &domain.RecoveryPlan{
		Category:  domain.CategoryDownload,
		Component: "downloader",
		Steps:     []domain.RecoveryStep{{Action: domain.ActionFallbackResource}},
	}
	err := r.Register(Registration{
		Component: "downloader",
		Category:  domain.CategoryDownload,
		Overrides: []PatternOverride{
			{Pattern: "checksum mismatch", Action: domain.ActionClearCache},
		},
		Plan:      componentPlan,
		Fallbacks: []domain.Action{domain.ActionPromptUser},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Pattern override wins and carries the fallback chain.
	plan := r.ResolvePlan("downloader", domain.CategoryDownload, "Checksum MISMATCH on part 3")
	if plan.Steps[0].Action != domain.ActionClearCache {
		t.Errorf("override head = %s, want CLEAR_CACHE", plan.Steps[0].Action)
	}
	if len(plan.Steps) != 2 || plan.Steps[1].Action != domain.ActionPromptUser {
		t.Errorf("override plan = %v, want fallback chain appended", plan.Steps)
	}

	// No pattern match: component default plan.
	plan = r.ResolvePlan("downloader", domain.CategoryDownload, "some other failure")
	if plan != componentPlan {
		t.Error("want component default plan when no pattern matches")
	}

	// Unregistered component: global category plan.
	plan = r.ResolvePlan("other", domain.CategoryDownload, "whatever")
	if plan.Component != "" || plan.Category != domain.CategoryDownload {
		t.Errorf("want global DOWNLOAD plan, got %+v", plan)
	}

	// Unknown category handled by the generic plan.
	plan = r.ResolvePlan("other", domain.CategoryUnknown, "whatever")
	if plan == nil || len(plan.Steps) == 0 {
		t.Fatal("generic UNKNOWN plan missing")
	}
}

func TestResolvePlan_FallbackChainOnly(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Registration{
		Component: "exporter",
		Category:  domain.CategoryFileSystem,
		Fallbacks: []domain.Action{domain.ActionFallbackResource, domain.ActionAbortOperation},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	plan := r.ResolvePlan("exporter", domain.CategoryFileSystem, "disk full")
	if len(plan.Steps) != 2 ||
		plan.Steps[0].Action != domain.ActionFallbackResource ||
		plan.Steps[1].Action != domain.ActionAbortOperation {
		t.Errorf("plan = %v, want registered fallback chain", plan.Steps)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	reg := Registration{Component: "ui", Category: domain.CategoryUI}
	if err := r.Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(reg); err == nil {
		t.Error("duplicate Register accepted")
	}
}

func TestRegister_InvalidCategory(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Registration{Component: "x", Category: "BOGUS"}); err == nil {
		t.Error("invalid category accepted")
	}
}

func TestCheckPreconditions(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Registration{
		Component: "downloader",
		Category:  domain.CategoryDownload,
		Preconditions: []Precondition{
			NonEmpty("url"),
			{
				Arg: "quality",
				Check: func(v string) error {
					if v == "4k" {
						return errors.New("quality 4k not supported")
					}
					return nil
				},
			},
		},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := r.CheckPreconditions("downloader", map[string]string{"url": "", "quality": "hd"})
	if rec == nil {
		t.Fatal("empty url passed preconditions")
	}
	if rec.Category != domain.CategoryValidation {
		t.Errorf("category = %s, want VALIDATION", rec.Category)
	}
	if rec.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", rec.Confidence)
	}

	rec = r.CheckPreconditions("downloader", map[string]string{"url": "https://x", "quality": "4k"})
	if rec == nil || rec.Message != "quality 4k not supported" {
		t.Errorf("custom check not applied, rec = %+v", rec)
	}

	if rec := r.CheckPreconditions("downloader", map[string]string{"url": "https://x"}); rec != nil {
		t.Errorf("valid args rejected: %s", rec.Message)
	}

	if rec := r.CheckPreconditions("unregistered", nil); rec != nil {
		t.Error("component without preconditions rejected")
	}
}
