package domain

import "time"

// Action is one atomic remediation operation within a recovery plan.
type Action string

const (
	ActionRetry               Action = "RETRY"
	ActionRetryWithDelay      Action = "RETRY_WITH_DELAY"
	ActionRetryWithBackoff    Action = "RETRY_WITH_BACKOFF"
	ActionFallbackResource    Action = "FALLBACK_RESOURCE"
	ActionFallbackMethod      Action = "FALLBACK_METHOD"
	ActionResetState          Action = "RESET_STATE"
	ActionClearCache          Action = "CLEAR_CACHE"
	ActionReloadConfig        Action = "RELOAD_CONFIG"
	ActionPromptUser          Action = "PROMPT_USER"
	ActionRequestPermission   Action = "REQUEST_PERMISSION"
	ActionEscalateToAdmin     Action = "ESCALATE_TO_ADMIN"
	ActionGracefulDegradation Action = "GRACEFUL_DEGRADATION"
	ActionAbortOperation      Action = "ABORT_OPERATION"
	ActionRestartService      Action = "RESTART_SERVICE"
	ActionContactSupport      Action = "CONTACT_SUPPORT"
)

// Gated reports whether the action must pass the circuit breaker before
// it may run. Retries and service restarts hammer the same failing
// dependency, so they are the gated set.
func (a Action) Gated() bool {
	switch a {
	case ActionRetry, ActionRetryWithDelay, ActionRetryWithBackoff, ActionRestartService:
		return true
	}
	return false
}

// RecoveryStep is one step of a plan. Steps are immutable templates
// shared read-only across executions.
type RecoveryStep struct {
	Action      Action            `yaml:"action"       json:"action"`
	Params      map[string]string `yaml:"params"       json:"params,omitempty"`
	Timeout     time.Duration     `yaml:"timeout"      json:"timeout"`
	MaxRetries  int               `yaml:"max_retries"  json:"max_retries"`
	BackoffBase time.Duration     `yaml:"backoff_base" json:"backoff_base"`
	BackoffCap  time.Duration     `yaml:"backoff_cap"  json:"backoff_cap"`
	// Independent steps may run concurrently with adjacent independent
	// steps; the first success cancels the rest of the group.
	Independent bool `yaml:"independent" json:"independent"`
}

// RecoveryPlan is an ordered remediation procedure for a category,
// optionally narrowed to a single component.
type RecoveryPlan struct {
	Category  Category       `yaml:"category"  json:"category"`
	Component string         `yaml:"component" json:"component,omitempty"`
	Steps     []RecoveryStep `yaml:"steps"     json:"steps"`
}

// RecoveryResult is produced exactly once per plan execution.
type RecoveryResult struct {
	Success     bool          `json:"success"`
	ActionTaken Action        `json:"action_taken,omitempty"`
	Attempts    int           `json:"attempts"`
	Elapsed     time.Duration `json:"elapsed"`
	Failure     string        `json:"failure,omitempty"`
}
