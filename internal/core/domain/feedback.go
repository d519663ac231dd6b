package domain

// Role is the audience tier a feedback message is composed for.
type Role string

const (
	RoleEndUser       Role = "END_USER"
	RolePowerUser     Role = "POWER_USER"
	RoleDeveloper     Role = "DEVELOPER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Roles returns all audience tiers.
func Roles() []Role {
	return []Role{RoleEndUser, RolePowerUser, RoleDeveloper, RoleAdministrator}
}

// Valid reports whether r is a member of the fixed role set.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// FeedbackMessage is the role-appropriate rendering of a handled failure.
// It is generated per request and never persisted.
type FeedbackMessage struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Actions  []string `json:"actions"`
	Severity Severity `json:"severity"`
}
