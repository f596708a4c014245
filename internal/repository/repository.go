package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

var (
	// ErrCreateReport is returned when inserting a report or its Owner grant fails
	ErrCreateReport = errors.New("report repository: create report failed")
	// ErrReplaceGrants is returned when replacing the grants of a resource fails
	ErrReplaceGrants = errors.New("permission repository: replace grants failed")
	// ErrPropagateGrants is returned when inserting propagated report grants fails
	ErrPropagateGrants = errors.New("permission repository: propagate grants failed")
	// ErrCascadeDelete is returned when a cascading delete pass fails
	ErrCascadeDelete = errors.New("repository: cascade delete failed")
)

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error

	// CreateWithAdmin creates the organization and, when admin is not nil, its pending
	// admin user within a single transaction.
	CreateWithAdmin(ctx context.Context, org *models.Organization, admin *models.User) error

	FindByID(ctx context.Context, id string) (*models.Organization, error)
	FindByName(ctx context.Context, name string) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error

	// Delete removes the organization with everything it owns and detaches its users.
	// It returns the blob paths of the removed reports.
	Delete(ctx context.Context, id string) ([]string, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByInviteToken(ctx context.Context, token string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// Count returns the number of users
	Count(ctx context.Context) (int64, error)

	CountByRole(ctx context.Context, roleID uint) (int64, error)

	// ListByOrganization lists active and pending users of an organization
	ListByOrganization(ctx context.Context, organizationID string, params utils.PaginationParams) ([]models.User, int64, error)

	// CountInOrganization counts how many of the given user ids belong to the organization
	CountInOrganization(ctx context.Context, userIDs []string, organizationID string) (int64, error)

	// GroupIDs lists the groups the user is a member of
	GroupIDs(ctx context.Context, userID string) ([]string, error)

	// Delete removes the user and cascades over owned reports, the user's grants,
	// comments and memberships. Dashboards they created are kept without a creator.
	// It returns the blob paths of the removed reports.
	Delete(ctx context.Context, id string) ([]string, error)
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)

	// ListByOrganization lists groups with their members preloaded
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Group, error)

	// ReplaceMembers sets the member list of a group
	ReplaceMembers(ctx context.Context, groupID string, userIDs []string) error

	CountInOrganization(ctx context.Context, groupIDs []string, organizationID string) (int64, error)

	// Delete removes the group with its memberships and grants
	Delete(ctx context.Context, id string) error
}

// FolderRepository defines the interface for folder data access
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	FindByID(ctx context.Context, id string) (*models.Folder, error)
	FindByName(ctx context.Context, organizationID, name string) (*models.Folder, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Folder, error)

	// Delete removes the folder and moves its reports to the root
	Delete(ctx context.Context, id string) error
}

// ReportRepository defines the interface for report data access
type ReportRepository interface {
	// CreateWithOwner inserts the report and the Owner grant of its uploader atomically
	CreateWithOwner(ctx context.Context, report *models.Report) error

	FindByID(ctx context.Context, id string) (*models.Report, error)

	// ListVisible lists reports the filter's user owns, shares an organization with, or holds a grant on
	ListVisible(ctx context.Context, filter ReportFilter) ([]models.Report, error)

	UpdateFolder(ctx context.Context, reportID string, folderID *string) error

	// Delete removes the report with its grants and comments
	Delete(ctx context.Context, id string) error
}

// ReportFilter holds filtering options for listing reports
type ReportFilter struct {
	UserID         string
	OrganizationID *string
	GroupIDs       []string

	// FolderID restricts the listing to one folder; RootOnly to reports outside any folder
	FolderID *string
	RootOnly bool

	Search      string
	Extension   string
	OldestFirst bool
}

// PermissionRepository defines the interface for report and dashboard grants
type PermissionRepository interface {
	ListReportGrants(ctx context.Context, reportID string) ([]models.ReportPermission, error)

	// ReportGrantsFor returns the grants naming the user directly or one of groupIDs
	ReportGrantsFor(ctx context.Context, reportID, userID string, groupIDs []string) ([]models.ReportPermission, error)

	// ReplaceReportGrants deletes every non-Owner grant of the report and inserts grants
	// in the same transaction
	ReplaceReportGrants(ctx context.Context, reportID string, grants []models.ReportPermission) error

	ListDashboardGrants(ctx context.Context, dashboardID string) ([]models.DashboardPermission, error)
	DashboardGrantsFor(ctx context.Context, dashboardID, userID string, groupIDs []string) ([]models.DashboardPermission, error)

	// ShareDashboard replaces every grant of the dashboard with grants and gives each
	// grantee Viewer on the dashboard's source reports where they hold no grant yet.
	// It returns how many report grants were added.
	ShareDashboard(ctx context.Context, dashboardID string, grants []models.DashboardPermission) (int, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error

	// ListByReport lists comments newest first with their authors preloaded
	ListByReport(ctx context.Context, reportID string, params utils.PaginationParams) ([]models.Comment, int64, error)
}

// DashboardRepository defines the interface for dashboards and their visualizations
type DashboardRepository interface {
	Create(ctx context.Context, dashboard *models.Dashboard) error

	// FindByID loads the dashboard with visualizations ordered by position
	FindByID(ctx context.Context, id string) (*models.Dashboard, error)

	FindByName(ctx context.Context, organizationID, name string) (*models.Dashboard, error)
	ListVisible(ctx context.Context, filter DashboardFilter) ([]models.Dashboard, error)

	// Delete removes the dashboard with its visualizations and grants
	Delete(ctx context.Context, id string) error

	// CreateVisualization appends viz at the end of its dashboard
	CreateVisualization(ctx context.Context, viz *models.Visualization) error

	FindVisualization(ctx context.Context, dashboardID, vizID string) (*models.Visualization, error)
	UpdateVisualization(ctx context.Context, viz *models.Visualization) error

	// DeleteVisualization removes viz and closes the gap in positions
	DeleteVisualization(ctx context.Context, dashboardID, vizID string) error

	// ReorderVisualizations assigns positions 0..n-1 following orderedIDs
	ReorderVisualizations(ctx context.Context, dashboardID string, orderedIDs []string) error
}

// DashboardFilter holds filtering options for listing dashboards
type DashboardFilter struct {
	UserID   string
	GroupIDs []string

	// AdminOrganizationID lists every dashboard of the organization, for Admins
	AdminOrganizationID *string
}
