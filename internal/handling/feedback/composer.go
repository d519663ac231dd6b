// Package feedback renders handled failures into role-appropriate
// messages from a static template table with an explicit fallback
// chain: (category, role), then (UNKNOWN, role), then a hard-coded
// minimal template.
package feedback

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

// Composer builds FeedbackMessages. All state is read-only after
// construction; safe for concurrent use.
type Composer struct {
	templates map[templateKey]Template
	log       *slog.Logger
}

// NewComposer loads the default template table.
func NewComposer(log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{templates: defaultTemplates(), log: log}
}

// Compose renders the message for a record, its recovery outcome and
// the target role. It never fails and never returns empty fields.
func (c *Composer) Compose(
	rec *domain.ErrorRecord,
	res *domain.RecoveryResult,
	role domain.Role,
) (msg domain.FeedbackMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("feedback composition panic", "panic", r)
			msg = render(minimalTemplate, rec, res, role)
		}
	}()

	tpl, ok := c.templates[templateKey{rec.Category, role}]
	if !ok {
		tpl, ok = c.templates[templateKey{domain.CategoryUnknown, role}]
	}
	if !ok {
		tpl = minimalTemplate
	}
	return render(tpl, rec, res, role)
}

func render(
	tpl Template,
	rec *domain.ErrorRecord,
	res *domain.RecoveryResult,
	role domain.Role,
) domain.FeedbackMessage {
	repl := strings.NewReplacer(
		"{message}", nonEmpty(rec.Message, "no further detail"),
		"{source}", nonEmpty(rec.Source, "an unknown component"),
		"{category}", string(rec.Category),
		"{outcome}", outcomeText(res, role),
	)

	msg := domain.FeedbackMessage{
		Title:    nonEmpty(repl.Replace(tpl.Title), minimalTemplate.Title),
		Body:     nonEmpty(strings.TrimSpace(repl.Replace(tpl.Body)), minimalTemplate.Body),
		Actions:  tpl.Actions,
		Severity: rec.Severity,
	}
	if len(msg.Actions) == 0 {
		msg.Actions = minimalTemplate.Actions
	}
	return msg
}

// outcomeText summarizes the recovery result with role-appropriate
// detail.
func outcomeText(res *domain.RecoveryResult, role domain.Role) string {
	if res == nil {
		return ""
	}
	switch role {
	case domain.RoleEndUser:
		if res.Success {
			return "The problem was resolved automatically."
		}
		return "Automatic recovery did not succeed."
	default:
		if res.Success {
			return fmt.Sprintf("Recovered via %s after %d attempt(s) in %s.",
				res.ActionTaken, res.Attempts, res.Elapsed.Round(time.Millisecond))
		}
		return fmt.Sprintf("Recovery failed after %d attempt(s): %s",
			res.Attempts, nonEmpty(res.Failure, "no detail"))
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
