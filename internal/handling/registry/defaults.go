package registry

import (
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

func step(action domain.Action) domain.RecoveryStep {
	return domain.RecoveryStep{Action: action}
}

func retryStep(action domain.Action, retries int) domain.RecoveryStep {
	return domain.RecoveryStep{
		Action:      action,
		MaxRetries:  retries,
		BackoffBase: 1 * time.Second,
		BackoffCap:  30 * time.Second,
	}
}

// defaultPlans is the global plan table: one plan per category, each
// ending in an action that always hands off to the user rather than
// failing silently.
func defaultPlans() map[domain.Category]*domain.RecoveryPlan {
	plans := map[domain.Category][]domain.RecoveryStep{
		domain.CategoryUI: {
			step(domain.ActionResetState),
			step(domain.ActionGracefulDegradation),
		},
		domain.CategoryPlatform: {
			retryStep(domain.ActionRetryWithBackoff, 3),
			step(domain.ActionFallbackMethod),
			step(domain.ActionPromptUser),
		},
		domain.CategoryDownload: {
			retryStep(domain.ActionRetryWithBackoff, 3),
			step(domain.ActionFallbackResource),
			step(domain.ActionPromptUser),
		},
		domain.CategoryRepository: {
			retryStep(domain.ActionRetryWithDelay, 2),
			step(domain.ActionResetState),
			step(domain.ActionEscalateToAdmin),
		},
		domain.CategoryValidation: {
			step(domain.ActionPromptUser),
		},
		domain.CategoryAuthentication: {
			step(domain.ActionRequestPermission),
			step(domain.ActionPromptUser),
		},
		domain.CategoryNetwork: {
			retryStep(domain.ActionRetryWithBackoff, 3),
			step(domain.ActionGracefulDegradation),
		},
		domain.CategoryFileSystem: {
			retryStep(domain.ActionRetry, 1),
			step(domain.ActionRequestPermission),
			step(domain.ActionEscalateToAdmin),
		},
		domain.CategoryConfiguration: {
			step(domain.ActionReloadConfig),
			step(domain.ActionResetState),
			step(domain.ActionPromptUser),
		},
		domain.CategoryPerformance: {
			step(domain.ActionClearCache),
			step(domain.ActionGracefulDegradation),
		},
		domain.CategoryUnknown: {
			retryStep(domain.ActionRetry, 1),
			step(domain.ActionGracefulDegradation),
		},
	}

	out := make(map[domain.Category]*domain.RecoveryPlan, len(plans))
	for cat, steps := range plans {
		out[cat] = &domain.RecoveryPlan{Category: cat, Steps: steps}
	}
	return out
}
