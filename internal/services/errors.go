package services

import "errors"

// Error kinds. Every error a service returns on purpose wraps exactly one of these,
// so the HTTP layer can map it onto a status code.
var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// kindError carries a user facing message and unwraps to its kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// ErrInvalidCredentials is deliberately outside the four kinds; it maps to 401.
var ErrInvalidCredentials = errors.New("invalid email or password")

var (
	ErrNameRequired           = newError(ErrValidation, "name is required")
	ErrEmailRequired          = newError(ErrValidation, "email is required")
	ErrInvalidEmail           = newError(ErrValidation, "email address is invalid")
	ErrPasswordTooShort       = newError(ErrValidation, "password too short")
	ErrInvalidRole            = newError(ErrValidation, "role must be User or Admin")
	ErrInvalidLevel           = newError(ErrValidation, "invalid permission level")
	ErrInvalidToken           = newError(ErrValidation, "token is invalid")
	ErrTokenExpired           = newError(ErrValidation, "token has expired")
	ErrNoOrganization         = newError(ErrValidation, "user does not belong to an organization")
	ErrForeignPrincipal       = newError(ErrValidation, "users and groups must belong to the same organization as the resource")
	ErrForeignFolder          = newError(ErrValidation, "folder belongs to another organization")
	ErrTitleRequired          = newError(ErrValidation, "title is required")
	ErrTextRequired           = newError(ErrValidation, "comment text is required")
	ErrFileRequired           = newError(ErrValidation, "file is required")
	ErrUnsupportedFileType    = newError(ErrValidation, "file type is not supported")
	ErrFileTooLarge           = newError(ErrValidation, "file exceeds the upload limit")
	ErrNotTabular             = newError(ErrValidation, "report is not a tabular data source")
	ErrInvalidVisualization   = newError(ErrValidation, "invalid visualization")
	ErrUnknownColumn          = newError(ErrValidation, "column does not exist in the report")
	ErrNonNumericRange        = newError(ErrValidation, "range filters need a numeric column")
	ErrInvalidOrder           = newError(ErrValidation, "order must list every visualization of the dashboard exactly once")
	ErrCrossOrganizationData  = newError(ErrValidation, "report belongs to another organization")
	ErrPendingUser            = newError(ErrValidation, "user has not completed registration")
	ErrCannotDeleteSelf       = newError(ErrValidation, "you cannot delete your own account")
	ErrAIServiceNotConfigured = newError(ErrValidation, "AI service is not configured")
	ErrAINoSuggestions        = newError(ErrValidation, "AI did not suggest any usable visualization")
)

var (
	ErrSuperadminOnly          = newError(ErrPermission, "only a Superadmin can perform this action")
	ErrAdminOnly               = newError(ErrPermission, "only an Admin can perform this action")
	ErrInviteForbidden         = newError(ErrPermission, "you are not allowed to invite users")
	ErrAdminInviteForbidden    = newError(ErrPermission, "only a Superadmin can invite an Admin")
	ErrForeignOrganization     = newError(ErrPermission, "you can only manage your own organization")
	ErrInsufficientPermission  = newError(ErrPermission, "insufficient permission on this report")
	ErrDashboardAccessDenied   = newError(ErrPermission, "insufficient permission on this dashboard")
	ErrCannotManagePermissions = newError(ErrPermission, "only Editors and Owners can change permissions")
)

var (
	ErrUserNotFound          = newError(ErrNotFound, "user not found")
	ErrOrganizationNotFound  = newError(ErrNotFound, "organization not found")
	ErrGroupNotFound         = newError(ErrNotFound, "group not found")
	ErrFolderNotFound        = newError(ErrNotFound, "folder not found")
	ErrReportNotFound        = newError(ErrNotFound, "report not found")
	ErrReportFileMissing     = newError(ErrNotFound, "report file is missing")
	ErrDashboardNotFound     = newError(ErrNotFound, "dashboard not found")
	ErrVisualizationNotFound = newError(ErrNotFound, "visualization not found")
)

var (
	ErrEmailTaken         = newError(ErrConflict, "a user with this email already exists")
	ErrOrganizationExists = newError(ErrConflict, "an organization with this name already exists")
	ErrFolderExists       = newError(ErrConflict, "a folder with this name already exists")
	ErrDashboardExists    = newError(ErrConflict, "a dashboard with this name already exists")
	ErrSuperadminExists   = newError(ErrConflict, "a Superadmin already exists")
)
