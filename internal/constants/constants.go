package constants

const (
	// ContextKeyUserID is the key used for the user ID in sessions and gin contexts
	ContextKeyUserID = "user_id"
	// ContextKeyPrincipal holds the authenticated principal loaded by RequireAuth
	ContextKeyPrincipal = "principal"

	SessionCookieName = "report_session"

	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// InviteTokenBytes is the entropy of invite and reset tokens
	InviteTokenBytes = 24

	MaxAISuggestions = 6

	DefaultDashboardDescription = "No description provided"
)
