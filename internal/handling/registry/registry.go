// Package registry layers per-component recovery overrides above the
// global category plans and hosts declarative precondition checks.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vietddude/remedy/internal/core/domain"
)

// PatternOverride maps a lowercase message substring to an action that
// replaces the head of the resolved plan.
type PatternOverride struct {
	Pattern string
	Action  domain.Action
}

// Precondition is a declarative argument check registered by a
// component. A violation is pre-classified as VALIDATION and never
// reaches the pattern matcher.
type Precondition struct {
	Arg   string
	Check func(value string) error
}

// NonEmpty returns a precondition requiring a non-empty argument.
func NonEmpty(arg string) Precondition {
	return Precondition{
		Arg: arg,
		Check: func(v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("argument %q must not be empty", arg)
			}
			return nil
		},
	}
}

// Registration is one component's handler configuration. Registered
// once at component startup and read-only afterward.
type Registration struct {
	Component     string
	Category      domain.Category
	Overrides     []PatternOverride
	Plan          *domain.RecoveryPlan
	Fallbacks     []domain.Action
	Preconditions []Precondition
}

type regKey struct {
	component string
	category  domain.Category
}

// Registry resolves recovery plans with the lookup precedence:
// component pattern override, component default plan, global category
// plan, generic UNKNOWN plan.
type Registry struct {
	mu            sync.RWMutex
	registrations map[regKey]*Registration
	preconditions map[string][]Precondition
	globalPlans   map[domain.Category]*domain.RecoveryPlan
}

// NewRegistry builds a registry seeded with the global default plans.
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[regKey]*Registration),
		preconditions: make(map[string][]Precondition),
		globalPlans:   defaultPlans(),
	}
}

// Register installs a component registration. Re-registering the same
// (component, category) pair is a startup bug and is rejected.
func (r *Registry) Register(reg Registration) error {
	if reg.Component == "" {
		return fmt.Errorf("registration missing component name")
	}
	if !reg.Category.Valid() {
		return fmt.Errorf("registration for %q has invalid category %q", reg.Component, reg.Category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := regKey{reg.Component, reg.Category}
	if _, exists := r.registrations[k]; exists {
		return fmt.Errorf("duplicate registration for (%s, %s)", reg.Component, reg.Category)
	}
	r.registrations[k] = &reg
	if len(reg.Preconditions) > 0 {
		r.preconditions[reg.Component] = append(r.preconditions[reg.Component], reg.Preconditions...)
	}
	return nil
}

// SetGlobalPlan replaces the global plan for a category.
func (r *Registry) SetGlobalPlan(category domain.Category, plan *domain.RecoveryPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globalPlans[category] = plan
}

// ResolvePlan picks the plan for a classified failure.
func (r *Registry) ResolvePlan(
	component string,
	category domain.Category,
	message string,
) *domain.RecoveryPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg := r.registrations[regKey{component, category}]
	if reg != nil {
		// 1. Pattern override: the matched action heads the plan,
		// followed by the registration's fallback chain.
		msg := strings.ToLower(message)
		for _, o := range reg.Overrides {
			if o.Pattern != "" && strings.Contains(msg, o.Pattern) {
				return overridePlan(category, component, o.Action, reg.Fallbacks)
			}
		}
		// 2. Component default plan.
		if reg.Plan != nil {
			return reg.Plan
		}
		// Fallback chain alone still beats the global plan.
		if len(reg.Fallbacks) > 0 {
			return chainPlan(category, component, reg.Fallbacks)
		}
	}

	// 3. Global category plan.
	if plan, ok := r.globalPlans[category]; ok && plan != nil {
		return plan
	}

	// 4. Generic UNKNOWN plan.
	return r.globalPlans[domain.CategoryUnknown]
}

// CheckPreconditions runs a component's registered checks against the
// call arguments. The first violation is returned pre-classified as
// VALIDATION with full confidence; nil means all checks passed.
func (r *Registry) CheckPreconditions(
	component string,
	args map[string]string,
) *domain.ErrorRecord {
	r.mu.RLock()
	checks := r.preconditions[component]
	r.mu.RUnlock()

	for _, pc := range checks {
		if pc.Check == nil {
			continue
		}
		if err := pc.Check(args[pc.Arg]); err != nil {
			return domain.NewErrorRecord(
				domain.CategoryValidation,
				domain.SeverityLow,
				1.0,
				component,
				err.Error(),
				[]domain.ContextEntry{{Key: "argument", Value: pc.Arg}},
			)
		}
	}
	return nil
}

func overridePlan(
	category domain.Category,
	component string,
	action domain.Action,
	fallbacks []domain.Action,
) *domain.RecoveryPlan {
	steps := []domain.RecoveryStep{{Action: action}}
	for _, a := range fallbacks {
		if a != action {
			steps = append(steps, domain.RecoveryStep{Action: a})
		}
	}
	return &domain.RecoveryPlan{Category: category, Component: component, Steps: steps}
}

func chainPlan(
	category domain.Category,
	component string,
	fallbacks []domain.Action,
) *domain.RecoveryPlan {
	steps := make([]domain.RecoveryStep, 0, len(fallbacks))
	for _, a := range fallbacks {
		steps = append(steps, domain.RecoveryStep{Action: a})
	}
	return &domain.RecoveryPlan{Category: category, Component: component, Steps: steps}
}
