package feedback

import "github.com/vietddude/remedy/internal/core/domain"

// Template is one (category, role) entry of the message table. Bodies
// may reference {message}, {source}, {category} and {outcome}; the
// composer substitutes them at render time.
type Template struct {
	Title   string
	Body    string
	Actions []string
}

type templateKey struct {
	category domain.Category
	role     domain.Role
}

// minimalTemplate is the hard-coded last resort when both the
// (category, role) and (UNKNOWN, role) lookups miss.
var minimalTemplate = Template{
	Title:   "Something went wrong",
	Body:    "An unexpected problem occurred. Please try again.",
	Actions: []string{"retry", "dismiss"},
}

// defaultTemplates builds the static table loaded at startup. End
// users get plain language; power users get the failing operation;
// developers get classification detail; administrators get escalation
// hooks.
func defaultTemplates() map[templateKey]Template {
	t := map[templateKey]Template{}

	add := func(cat domain.Category, role domain.Role, tpl Template) {
		t[templateKey{cat, role}] = tpl
	}

	// UNKNOWN is the documented fallback row and must cover all roles.
	add(domain.CategoryUnknown, domain.RoleEndUser, Template{
		Title:   "Something went wrong",
		Body:    "An unexpected problem occurred. {outcome}",
		Actions: []string{"retry", "dismiss"},
	})
	add(domain.CategoryUnknown, domain.RolePowerUser, Template{
		Title:   "Unexpected error",
		Body:    "An unclassified failure occurred in {source}. {outcome}",
		Actions: []string{"retry", "view_log", "dismiss"},
	})
	add(domain.CategoryUnknown, domain.RoleDeveloper, Template{
		Title:   "Unclassified failure",
		Body:    "{category} failure in {source}: {message}. {outcome}",
		Actions: []string{"view_log", "copy_details", "report_bug"},
	})
	add(domain.CategoryUnknown, domain.RoleAdministrator, Template{
		Title:   "Unclassified failure",
		Body:    "Unclassified failure in {source}: {message}. {outcome}",
		Actions: []string{"view_log", "escalate", "dismiss"},
	})

	add(domain.CategoryNetwork, domain.RoleEndUser, Template{
		Title:   "Connection problem",
		Body:    "We couldn't reach the server. Check your internet connection. {outcome}",
		Actions: []string{"retry", "work_offline", "dismiss"},
	})
	add(domain.CategoryNetwork, domain.RoleDeveloper, Template{
		Title:   "Network failure",
		Body:    "{category} failure in {source}: {message}. {outcome}",
		Actions: []string{"retry", "view_log", "copy_details"},
	})

	add(domain.CategoryDownload, domain.RoleEndUser, Template{
		Title:   "Download failed",
		Body:    "The download could not be completed. {outcome}",
		Actions: []string{"retry", "change_quality", "dismiss"},
	})
	add(domain.CategoryDownload, domain.RolePowerUser, Template{
		Title:   "Download failed",
		Body:    "Download in {source} failed: {message}. {outcome}",
		Actions: []string{"retry", "change_source", "view_log"},
	})

	add(domain.CategoryPlatform, domain.RoleEndUser, Template{
		Title:   "Service unavailable",
		Body:    "The video platform rejected the request. {outcome}",
		Actions: []string{"retry_later", "dismiss"},
	})

	add(domain.CategoryAuthentication, domain.RoleEndUser, Template{
		Title:   "Sign-in required",
		Body:    "Your session has expired or your credentials were rejected. {outcome}",
		Actions: []string{"sign_in", "dismiss"},
	})
	add(domain.CategoryAuthentication, domain.RoleAdministrator, Template{
		Title:   "Authentication failure",
		Body:    "Authentication failure in {source}: {message}. {outcome}",
		Actions: []string{"rotate_credentials", "view_log", "escalate"},
	})

	add(domain.CategoryFileSystem, domain.RoleEndUser, Template{
		Title:   "Storage problem",
		Body:    "A file could not be read or written. Check free disk space and permissions. {outcome}",
		Actions: []string{"retry", "choose_location", "dismiss"},
	})

	add(domain.CategoryRepository, domain.RoleAdministrator, Template{
		Title:   "Database error",
		Body:    "Repository failure in {source}: {message}. {outcome}",
		Actions: []string{"view_log", "run_integrity_check", "escalate"},
	})

	add(domain.CategoryValidation, domain.RoleEndUser, Template{
		Title:   "Invalid input",
		Body:    "{message}",
		Actions: []string{"edit_input", "dismiss"},
	})

	add(domain.CategoryConfiguration, domain.RoleAdministrator, Template{
		Title:   "Configuration error",
		Body:    "Configuration failure in {source}: {message}. {outcome}",
		Actions: []string{"open_settings", "reload_config", "view_log"},
	})

	add(domain.CategoryUI, domain.RoleEndUser, Template{
		Title:   "Display problem",
		Body:    "A part of the interface failed to update. {outcome}",
		Actions: []string{"refresh_view", "dismiss"},
	})

	add(domain.CategoryPerformance, domain.RolePowerUser, Template{
		Title:   "Performance degraded",
		Body:    "{source} is running slowly: {message}. {outcome}",
		Actions: []string{"clear_cache", "reduce_quality", "dismiss"},
	})

	return t
}
