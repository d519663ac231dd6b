package feedback

import (
	"strings"
	"testing"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

func testRecord(cat domain.Category) *domain.ErrorRecord {
	return domain.NewErrorRecord(cat, domain.SeverityMedium, 0.9, "downloader", "boom", nil)
}

func TestCompose_AllPairsNonEmpty(t *testing.T) {
	c := NewComposer(nil)
	res := &domain.RecoveryResult{
		Success:     true,
		ActionTaken: domain.ActionRetry,
		Attempts:    1,
		Elapsed:     50 * time.Millisecond,
	}

	for _, cat := range domain.Categories() {
		for _, role := range domain.Roles() {
			msg := c.Compose(testRecord(cat), res, role)
			if msg.Title == "" {
				t.Errorf("(%s, %s): empty title", cat, role)
			}
			if msg.Body == "" {
				t.Errorf("(%s, %s): empty body", cat, role)
			}
			if len(msg.Actions) == 0 {
				t.Errorf("(%s, %s): no suggested actions", cat, role)
			}
			if msg.Severity != domain.SeverityMedium {
				t.Errorf("(%s, %s): severity = %s, want MEDIUM", cat, role, msg.Severity)
			}
		}
	}
}

func TestCompose_UnknownEndUser(t *testing.T) {
	c := NewComposer(nil)
	msg := c.Compose(testRecord(domain.CategoryUnknown), nil, domain.RoleEndUser)
	if msg.Title == "" || msg.Body == "" || len(msg.Actions) == 0 {
		t.Errorf("(UNKNOWN, END_USER) incomplete: %+v", msg)
	}
}

func TestCompose_RoleDetail(t *testing.T) {
	c := NewComposer(nil)
	rec := testRecord(domain.CategoryNetwork)
	res := &domain.RecoveryResult{Success: false, Attempts: 3, Failure: "RETRY: still down"}

	endUser := c.Compose(rec, res, domain.RoleEndUser)
	dev := c.Compose(rec, res, domain.RoleDeveloper)

	if strings.Contains(endUser.Body, "RETRY: still down") {
		t.Error("end user message leaks failure internals")
	}
	if !strings.Contains(dev.Body, "boom") {
		t.Errorf("developer message missing raw failure message: %q", dev.Body)
	}
	if !strings.Contains(dev.Body, "3 attempt") {
		t.Errorf("developer message missing attempt count: %q", dev.Body)
	}
}

func TestCompose_NilResult(t *testing.T) {
	c := NewComposer(nil)
	msg := c.Compose(testRecord(domain.CategoryDownload), nil, domain.RolePowerUser)
	if msg.Title == "" || msg.Body == "" || len(msg.Actions) == 0 {
		t.Errorf("nil result produced incomplete message: %+v", msg)
	}
}

func TestCompose_EmptyMessageRecord(t *testing.T) {
	c := NewComposer(nil)
	rec := domain.NewErrorRecord(domain.CategoryValidation, domain.SeverityLow, 1.0, "", "", nil)
	msg := c.Compose(rec, nil, domain.RoleEndUser)
	if msg.Body == "" {
		t.Error("empty record message produced empty body")
	}
}

