package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/constants"
	"github.com/yukikurage/report-hub-api/internal/metrics"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/storage"
	"github.com/yukikurage/report-hub-api/internal/tabular"
)

// DashboardService manages dashboards, their visualizations and sharing
type DashboardService struct {
	dashboardRepo repository.DashboardRepository
	reportRepo    repository.ReportRepository
	permRepo      repository.PermissionRepository
	userRepo      repository.UserRepository
	perms         *PermissionService
	blobs         storage.BlobStore
	ai            *AIService
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	reportRepo repository.ReportRepository,
	permRepo repository.PermissionRepository,
	userRepo repository.UserRepository,
	perms *PermissionService,
	blobs storage.BlobStore,
	ai *AIService,
	m *metrics.Metrics,
	log zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		reportRepo:    reportRepo,
		permRepo:      permRepo,
		userRepo:      userRepo,
		perms:         perms,
		blobs:         blobs,
		ai:            ai,
		metrics:       m,
		log:           log,
	}
}

type CreateDashboardInput struct {
	Name        string
	Description string
}

// ShareDashboardInput replaces the recipients of a dashboard
type ShareDashboardInput struct {
	DashboardID string
	UserIDs     []string
	GroupIDs    []string
	Level       models.PermissionLevel
}

type VisualizationInput struct {
	Title  string
	Type   string
	Config models.VisualizationConfig
}

func (s *DashboardService) Create(ctx context.Context, actor access.Principal, input CreateDashboardInput) (*models.Dashboard, error) {
	if actor.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.dashboardRepo.FindByName(ctx, *actor.OrganizationID, name); err == nil {
		return nil, ErrDashboardExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check dashboard name: %w", err)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = constants.DefaultDashboardDescription
	}

	creatorID := actor.UserID
	dashboard := &models.Dashboard{
		Name:           name,
		Description:    description,
		OrganizationID: *actor.OrganizationID,
		CreatedByID:    &creatorID,
	}
	if err := s.dashboardRepo.Create(ctx, dashboard); err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}

	s.log.Info().Str("dashboard_id", dashboard.ID).Str("creator_id", creatorID).Msg("Dashboard created")
	return dashboard, nil
}

// List returns dashboards the actor created or was granted. Admins see their whole organization.
func (s *DashboardService) List(ctx context.Context, actor access.Principal) ([]models.Dashboard, error) {
	groupIDs, err := s.userRepo.GroupIDs(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	filter := repository.DashboardFilter{UserID: actor.UserID, GroupIDs: groupIDs}
	if actor.IsAdmin() && actor.OrganizationID != nil {
		filter.AdminOrganizationID = actor.OrganizationID
	}

	dashboards, err := s.dashboardRepo.ListVisible(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	return dashboards, nil
}

// Get returns a dashboard with its visualizations in position order
func (s *DashboardService) Get(ctx context.Context, actor access.Principal, dashboardID string) (*models.Dashboard, error) {
	return s.load(ctx, actor, dashboardID, models.LevelViewer)
}

// Delete is reserved to the creator and Admins of the dashboard's organization
func (s *DashboardService) Delete(ctx context.Context, actor access.Principal, dashboardID string) error {
	dashboard, err := s.load(ctx, actor, dashboardID, "")
	if err != nil {
		return err
	}
	if !dashboard.IsCreator(actor.UserID) && !(actor.IsAdmin() && actor.InOrganization(dashboard.OrganizationID)) {
		s.metrics.AccessDenied("dashboard")
		return ErrDashboardAccessDenied
	}

	if err := s.dashboardRepo.Delete(ctx, dashboard.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDashboardNotFound
		}
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}

	s.log.Info().Str("dashboard_id", dashboard.ID).Str("actor_id", actor.UserID).Msg("Dashboard deleted")
	return nil
}

// Share replaces every grant of the dashboard and gives the recipients Viewer on the
// reports it visualizes where they hold nothing yet. It returns how many report grants
// were added.
func (s *DashboardService) Share(ctx context.Context, actor access.Principal, input ShareDashboardInput) (int, error) {
	dashboard, err := s.load(ctx, actor, input.DashboardID, models.LevelEditor)
	if err != nil {
		return 0, err
	}

	level := input.Level
	if level == "" {
		level = models.LevelViewer
	}
	if !level.ValidForDashboard() {
		return 0, ErrInvalidLevel
	}

	userIDs := uniqueStrings(input.UserIDs)
	groupIDs := uniqueStrings(input.GroupIDs)
	if err := s.perms.ensureTargets(ctx, userIDs, groupIDs, dashboard.OrganizationID); err != nil {
		return 0, err
	}

	grants := make([]models.DashboardPermission, 0, len(userIDs)+len(groupIDs))
	for _, id := range userIDs {
		grants = append(grants, models.DashboardPermission{DashboardID: dashboard.ID, UserID: stringPtr(id), Level: level})
	}
	for _, id := range groupIDs {
		grants = append(grants, models.DashboardPermission{DashboardID: dashboard.ID, GroupID: stringPtr(id), Level: level})
	}

	propagated, err := s.permRepo.ShareDashboard(ctx, dashboard.ID, grants)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrDashboardNotFound
		}
		return 0, fmt.Errorf("failed to share dashboard: %w", err)
	}

	s.metrics.DashboardShared(propagated)
	s.log.Info().
		Str("dashboard_id", dashboard.ID).
		Str("actor_id", actor.UserID).
		Int("users", len(userIDs)).
		Int("groups", len(groupIDs)).
		Str("level", string(level)).
		Int("report_grants_added", propagated).
		Msg("Dashboard shared")
	return propagated, nil
}

// ListGrants lists the recipients of a dashboard
func (s *DashboardService) ListGrants(ctx context.Context, actor access.Principal, dashboardID string) ([]models.DashboardPermission, error) {
	dashboard, err := s.load(ctx, actor, dashboardID, models.LevelViewer)
	if err != nil {
		return nil, err
	}
	grants, err := s.permRepo.ListDashboardGrants(ctx, dashboard.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboard grants: %w", err)
	}
	return grants, nil
}

// AddVisualization appends a chart at the end of the dashboard
func (s *DashboardService) AddVisualization(ctx context.Context, actor access.Principal, dashboardID string, input VisualizationInput) (*models.Visualization, error) {
	dashboard, err := s.load(ctx, actor, dashboardID, models.LevelEditor)
	if err != nil {
		return nil, err
	}

	title, kind, err := s.checkVisualization(ctx, actor, dashboard, input)
	if err != nil {
		return nil, err
	}

	viz := &models.Visualization{
		DashboardID: dashboard.ID,
		Title:       title,
		Type:        kind,
		Config:      datatypes.NewJSONType(input.Config),
	}
	if err := s.dashboardRepo.CreateVisualization(ctx, viz); err != nil {
		return nil, fmt.Errorf("failed to create visualization: %w", err)
	}
	return viz, nil
}

func (s *DashboardService) UpdateVisualization(ctx context.Context, actor access.Principal, dashboardID, vizID string, input VisualizationInput) (*models.Visualization, error) {
	dashboard, err := s.load(ctx, actor, dashboardID, models.LevelEditor)
	if err != nil {
		return nil, err
	}
	viz, err := s.findVisualization(ctx, dashboard.ID, vizID)
	if err != nil {
		return nil, err
	}

	title, kind, err := s.checkVisualization(ctx, actor, dashboard, input)
	if err != nil {
		return nil, err
	}

	viz.Title = title
	viz.Type = kind
	viz.Config = datatypes.NewJSONType(input.Config)
	if err := s.dashboardRepo.UpdateVisualization(ctx, viz); err != nil {
		return nil, fmt.Errorf("failed to update visualization: %w", err)
	}
	return viz, nil
}

// DeleteVisualization removes a chart and closes the gap in positions
func (s *DashboardService) DeleteVisualization(ctx context.Context, actor access.Principal, dashboardID, vizID string) error {
	dashboard, err := s.load(ctx, actor, dashboardID, models.LevelEditor)
	if err != nil {
		return err
	}
	if err := s.dashboardRepo.DeleteVisualization(ctx, dashboard.ID, vizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVisualizationNotFound
		}
		return fmt.Errorf("failed to delete visualization: %w", err)
	}
	return nil
}

// ReorderVisualizations takes a permutation of every visualization id of the dashboard
func (s *DashboardService) ReorderVisualizations(ctx context.Context, actor access.Principal, dashboardID string, orderedIDs []string) (*models.Dashboard, error) {
	dashboard, err := s.load(ctx, actor, dashboardID, models.LevelEditor)
	if err != nil {
		return nil, err
	}
	if !isPermutation(dashboard.Visualizations, orderedIDs) {
		return nil, ErrInvalidOrder
	}

	if err := s.dashboardRepo.ReorderVisualizations(ctx, dashboard.ID, orderedIDs); err != nil {
		return nil, fmt.Errorf("failed to reorder visualizations: %w", err)
	}
	return s.find(ctx, dashboard.ID)
}

// SuggestVisualizations asks the AI service for charts over a report. Suggestions that
// do not pass the same checks as a manually built chart are dropped.
func (s *DashboardService) SuggestVisualizations(ctx context.Context, actor access.Principal, dashboardID, reportID string) ([]SuggestedVisualization, error) {
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}
	dashboard, err := s.load(ctx, actor, dashboardID, models.LevelEditor)
	if err != nil {
		return nil, err
	}
	report, err := s.sourceReport(ctx, actor, dashboard, reportID)
	if err != nil {
		return nil, err
	}
	schema, err := loadSchema(ctx, s.blobs, report)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.ai.SuggestVisualizations(ctx, report.Title, schema.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}

	valid := make([]SuggestedVisualization, 0, len(suggestions))
	for _, sug := range suggestions {
		kind, err := models.ParseChartType(sug.Type)
		if err != nil {
			continue
		}
		sug.Type = string(kind)
		sug.Config.ReportID = report.ID
		if strings.TrimSpace(sug.Title) == "" {
			sug.Title = fmt.Sprintf("%s %s", report.Title, kind)
		}
		if err := checkConfig(kind, sug.Config, schema); err != nil {
			s.log.Debug().Err(err).Str("report_id", report.ID).Msg("Dropped AI suggestion")
			continue
		}
		valid = append(valid, sug)
	}
	if len(valid) == 0 {
		return nil, ErrAINoSuggestions
	}
	return valid, nil
}

// load finds a dashboard and checks the actor reaches required on it
func (s *DashboardService) load(ctx context.Context, actor access.Principal, dashboardID string, required models.PermissionLevel) (*models.Dashboard, error) {
	dashboard, err := s.find(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequireDashboard(ctx, actor, dashboard, required); err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (s *DashboardService) find(ctx context.Context, dashboardID string) (*models.Dashboard, error) {
	dashboard, err := s.dashboardRepo.FindByID(ctx, dashboardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDashboardNotFound
		}
		return nil, fmt.Errorf("failed to find dashboard: %w", err)
	}
	return dashboard, nil
}

func (s *DashboardService) findVisualization(ctx context.Context, dashboardID, vizID string) (*models.Visualization, error) {
	viz, err := s.dashboardRepo.FindVisualization(ctx, dashboardID, vizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisualizationNotFound
		}
		return nil, fmt.Errorf("failed to find visualization: %w", err)
	}
	return viz, nil
}

// checkVisualization validates a chart against its source report and returns the
// normalized title and chart type
func (s *DashboardService) checkVisualization(ctx context.Context, actor access.Principal, dashboard *models.Dashboard, input VisualizationInput) (string, models.ChartType, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", "", ErrTitleRequired
	}
	kind, err := models.ParseChartType(input.Type)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidVisualization, err)
	}
	if err := input.Config.Validate(kind); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidVisualization, err)
	}

	report, err := s.sourceReport(ctx, actor, dashboard, input.Config.ReportID)
	if err != nil {
		return "", "", err
	}
	schema, err := loadSchema(ctx, s.blobs, report)
	if err != nil {
		return "", "", err
	}
	if err := checkConfig(kind, input.Config, schema); err != nil {
		return "", "", err
	}
	return title, kind, nil
}

// sourceReport loads a report a chart may read: same organization as the dashboard and
// at least Viewer for the actor
func (s *DashboardService) sourceReport(ctx context.Context, actor access.Principal, dashboard *models.Dashboard, reportID string) (*models.Report, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	if report.OrganizationID != dashboard.OrganizationID {
		return nil, ErrCrossOrganizationData
	}
	if _, err := s.perms.RequireReportLevel(ctx, actor, report, models.LevelViewer); err != nil {
		return nil, err
	}
	if !report.IsTabular() {
		return nil, ErrNotTabular
	}
	return report, nil
}

// checkConfig validates the mappings of cfg and checks them against the report columns
func checkConfig(kind models.ChartType, cfg models.VisualizationConfig, schema *tabular.Schema) error {
	if err := cfg.Validate(kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVisualization, err)
	}
	for _, name := range cfg.ReferencedColumns() {
		if _, ok := schema.Column(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
	}
	for name, f := range cfg.Filters {
		if !f.IsRange() {
			continue
		}
		if col, _ := schema.Column(name); col.Kind != tabular.KindNumeric {
			return fmt.Errorf("%w: %q", ErrNonNumericRange, name)
		}
	}
	return nil
}

func isPermutation(visualizations []models.Visualization, orderedIDs []string) bool {
	if len(visualizations) != len(orderedIDs) {
		return false
	}
	pending := make(map[string]struct{}, len(visualizations))
	for _, v := range visualizations {
		pending[v.ID] = struct{}{}
	}
	for _, id := range orderedIDs {
		if _, ok := pending[id]; !ok {
			return false
		}
		delete(pending, id)
	}
	return len(pending) == 0
}
