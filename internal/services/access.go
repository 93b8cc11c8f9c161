package services

import "github.com/soaringjerry/npsdesk/internal/models"

type Action string

const (
	ActionManageQuestions    Action = "manage_questions"
	ActionManageUsers        Action = "manage_users"
	ActionReadAnalytics      Action = "read_analytics"
	ActionExportReports      Action = "export_reports"
	ActionReadAllResponses   Action = "read_all_responses"
	ActionReadAudit          Action = "read_audit"
	ActionReadAdminDashboard Action = "read_admin_dashboard"

	ActionSubmitResponse   Action = "submit_response"
	ActionReadOwnResponses Action = "read_own_responses"
	ActionReadOwnDashboard Action = "read_own_dashboard"
	ActionReadProfile      Action = "read_profile"
)

const (
	LoginPath     = "/login"
	AdminHomePath = "/admin"
	UserHomePath  = "/user"
)

var userActions = map[Action]bool{
	ActionSubmitResponse:   true,
	ActionReadOwnResponses: true,
	ActionReadOwnDashboard: true,
	ActionReadProfile:      true,
}

// Can reports whether u may perform action. Admins may do everything;
// a nil user may do nothing.
func Can(u *models.User, action Action) bool {
	switch {
	case u == nil:
		return false
	case u.Role == models.RoleAdmin:
		return true
	case u.Role == models.RoleUser:
		return userActions[action]
	}
	return false
}

// HomePath is where u lands after login or when visiting the root.
func HomePath(u *models.User) string {
	switch {
	case u == nil:
		return LoginPath
	case u.IsAdmin():
		return AdminHomePath
	}
	return UserHomePath
}

// Guard returns the redirect target for a request needing action, or ""
// when the request may proceed.
func Guard(u *models.User, action Action) string {
	if u == nil {
		return LoginPath
	}
	if !Can(u, action) {
		return UserHomePath
	}
	return ""
}
