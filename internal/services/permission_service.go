package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/metrics"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
)

// PermissionService resolves effective access on reports and dashboards and
// replaces report grants.
type PermissionService struct {
	userRepo   repository.UserRepository
	groupRepo  repository.GroupRepository
	permRepo   repository.PermissionRepository
	reportRepo repository.ReportRepository
	metrics    *metrics.Metrics
}

func NewPermissionService(
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	permRepo repository.PermissionRepository,
	reportRepo repository.ReportRepository,
	m *metrics.Metrics,
) *PermissionService {
	return &PermissionService{
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		permRepo:   permRepo,
		reportRepo: reportRepo,
		metrics:    m,
	}
}

// SavePermissionsInput replaces every non-Owner grant of a report
type SavePermissionsInput struct {
	ReportID   string
	UserIDs    []string
	UserLevel  models.PermissionLevel
	GroupIDs   []string
	GroupLevel models.PermissionLevel
}

// EffectiveReportPermission resolves the level userID holds on report.
// Unknown users resolve to no access.
func (s *PermissionService) EffectiveReportPermission(ctx context.Context, userID string, report *models.Report) (models.PermissionLevel, bool, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to find user: %w", err)
	}
	return s.ReportLevel(ctx, access.PrincipalFromUser(user), report)
}

// ReportLevel resolves the level of an already authenticated principal
func (s *PermissionService) ReportLevel(ctx context.Context, p access.Principal, report *models.Report) (models.PermissionLevel, bool, error) {
	if report == nil || p.UserID == "" {
		return "", false, nil
	}
	if report.OwnerID == p.UserID {
		return models.LevelOwner, true, nil
	}

	groupIDs, err := s.userRepo.GroupIDs(ctx, p.UserID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load groups: %w", err)
	}
	grants, err := s.permRepo.ReportGrantsFor(ctx, report.ID, p.UserID, groupIDs)
	if err != nil {
		return "", false, fmt.Errorf("failed to load report grants: %w", err)
	}

	level, ok := access.ReportLevel(p.UserID, p.OrganizationID, report, grants)
	return level, ok, nil
}

// RequireReportLevel returns the principal's level when it reaches required.
// A principal without any access gets ErrReportNotFound so the report stays hidden.
func (s *PermissionService) RequireReportLevel(ctx context.Context, p access.Principal, report *models.Report, required models.PermissionLevel) (models.PermissionLevel, error) {
	level, ok, err := s.ReportLevel(ctx, p, report)
	if err != nil {
		return "", err
	}
	if !ok {
		s.metrics.AccessDenied("report")
		return "", ErrReportNotFound
	}
	if !level.AtLeast(required) {
		s.metrics.AccessDenied("report")
		return level, ErrInsufficientPermission
	}
	return level, nil
}

// LoadReport finds a report and checks the principal reaches required on it
func (s *PermissionService) LoadReport(ctx context.Context, p access.Principal, reportID string, required models.PermissionLevel) (*models.Report, models.PermissionLevel, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrReportNotFound
		}
		return nil, "", fmt.Errorf("failed to find report: %w", err)
	}

	level, err := s.RequireReportLevel(ctx, p, report, required)
	if err != nil {
		return nil, "", err
	}
	return report, level, nil
}

// EffectiveDashboardPermission reports whether p may use dashboard at the required level.
// An empty required level accepts any grant.
func (s *PermissionService) EffectiveDashboardPermission(ctx context.Context, p access.Principal, dashboard *models.Dashboard, required models.PermissionLevel) (bool, error) {
	grants, err := s.dashboardGrants(ctx, p, dashboard)
	if err != nil {
		return false, err
	}
	return access.DashboardAllowed(p, dashboard, grants, required), nil
}

// RequireDashboard fails with ErrDashboardNotFound when p cannot see the dashboard at all
// and with ErrDashboardAccessDenied when the level is too low.
func (s *PermissionService) RequireDashboard(ctx context.Context, p access.Principal, dashboard *models.Dashboard, required models.PermissionLevel) error {
	grants, err := s.dashboardGrants(ctx, p, dashboard)
	if err != nil {
		return err
	}
	if !access.DashboardAllowed(p, dashboard, grants, "") {
		s.metrics.AccessDenied("dashboard")
		return ErrDashboardNotFound
	}
	if !access.DashboardAllowed(p, dashboard, grants, required) {
		s.metrics.AccessDenied("dashboard")
		return ErrDashboardAccessDenied
	}
	return nil
}

func (s *PermissionService) dashboardGrants(ctx context.Context, p access.Principal, dashboard *models.Dashboard) ([]models.DashboardPermission, error) {
	if dashboard == nil || p.UserID == "" {
		return nil, nil
	}
	groupIDs, err := s.userRepo.GroupIDs(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	grants, err := s.permRepo.DashboardGrantsFor(ctx, dashboard.ID, p.UserID, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard grants: %w", err)
	}
	return grants, nil
}

// CanManagePermissions reports whether level may replace report grants
func (s *PermissionService) CanManagePermissions(level models.PermissionLevel) bool {
	return access.CanManagePermissions(level)
}

// SavePermissions replaces the report's non-Owner grants with one level for the selected
// users and one for the selected groups. The Owner row is never touched.
func (s *PermissionService) SavePermissions(ctx context.Context, actor access.Principal, input SavePermissionsInput) ([]models.ReportPermission, error) {
	report, level, err := s.LoadReport(ctx, actor, input.ReportID, models.LevelViewer)
	if err != nil {
		return nil, err
	}
	if !s.CanManagePermissions(level) {
		s.metrics.AccessDenied("report")
		return nil, ErrCannotManagePermissions
	}

	userIDs := uniqueStrings(input.UserIDs)
	groupIDs := uniqueStrings(input.GroupIDs)
	if len(userIDs) > 0 && !input.UserLevel.Grantable() {
		return nil, ErrInvalidLevel
	}
	if len(groupIDs) > 0 && !input.GroupLevel.Grantable() {
		return nil, ErrInvalidLevel
	}
	if err := s.ensureTargets(ctx, userIDs, groupIDs, report.OrganizationID); err != nil {
		return nil, err
	}

	grants := make([]models.ReportPermission, 0, len(userIDs)+len(groupIDs))
	for _, id := range userIDs {
		if id == report.OwnerID {
			continue
		}
		grants = append(grants, models.ReportPermission{ReportID: report.ID, UserID: stringPtr(id), Level: input.UserLevel})
	}
	for _, id := range groupIDs {
		grants = append(grants, models.ReportPermission{ReportID: report.ID, GroupID: stringPtr(id), Level: input.GroupLevel})
	}

	if err := s.permRepo.ReplaceReportGrants(ctx, report.ID, grants); err != nil {
		return nil, fmt.Errorf("failed to save permissions: %w", err)
	}
	s.metrics.ReportGrantsReplaced()

	return s.permRepo.ListReportGrants(ctx, report.ID)
}

// ListReportGrants lists every grant of a report, Owner row included
func (s *PermissionService) ListReportGrants(ctx context.Context, actor access.Principal, reportID string) ([]models.ReportPermission, error) {
	report, _, err := s.LoadReport(ctx, actor, reportID, models.LevelViewer)
	if err != nil {
		return nil, err
	}
	grants, err := s.permRepo.ListReportGrants(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report grants: %w", err)
	}
	return grants, nil
}

// ensureTargets checks every user and group belongs to orgID
func (s *PermissionService) ensureTargets(ctx context.Context, userIDs, groupIDs []string, orgID string) error {
	if len(userIDs) > 0 {
		count, err := s.userRepo.CountInOrganization(ctx, userIDs, orgID)
		if err != nil {
			return fmt.Errorf("failed to verify users: %w", err)
		}
		if int(count) != len(userIDs) {
			return ErrForeignPrincipal
		}
	}
	if len(groupIDs) > 0 {
		count, err := s.groupRepo.CountInOrganization(ctx, groupIDs, orgID)
		if err != nil {
			return fmt.Errorf("failed to verify groups: %w", err)
		}
		if int(count) != len(groupIDs) {
			return ErrForeignPrincipal
		}
	}
	return nil
}

func stringPtr(s string) *string {
	return &s
}
