package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// GormDashboardRepository is a GORM implementation of DashboardRepository
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &GormDashboardRepository{db: db}
}

func (r *GormDashboardRepository) Create(ctx context.Context, dashboard *models.Dashboard) error {
	return r.db.WithContext(ctx).Omit("Visualizations").Create(dashboard).Error
}

func (r *GormDashboardRepository) FindByID(ctx context.Context, id string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := r.db.WithContext(ctx).
		Preload("Visualizations", func(db *gorm.DB) *gorm.DB {
			return db.Order("visualizations.position ASC")
		}).
		First(&dashboard, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (r *GormDashboardRepository) FindByName(ctx context.Context, organizationID, name string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND name = ?", organizationID, name).
		First(&dashboard).Error; err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// ListVisible lists dashboards the user created or holds a grant on, directly or via a group
func (r *GormDashboardRepository) ListVisible(ctx context.Context, filter DashboardFilter) ([]models.Dashboard, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.Dashboard{})

	if filter.AdminOrganizationID != nil {
		query = query.Where("dashboards.organization_id = ? OR dashboards.created_by_id = ?", *filter.AdminOrganizationID, filter.UserID)
	} else {
		grantSubQuery := principalScope(
			db.Model(&models.DashboardPermission{}).
				Select("1").
				Where("dashboard_permissions.dashboard_id = dashboards.id"),
			filter.UserID, filter.GroupIDs,
		)
		query = query.Where("dashboards.created_by_id = ? OR EXISTS (?)", filter.UserID, grantSubQuery)
	}

	var dashboards []models.Dashboard
	if err := query.Order("dashboards.name ASC").Find(&dashboards).Error; err != nil {
		return nil, err
	}
	return dashboards, nil
}

func (r *GormDashboardRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dashboard models.Dashboard
		if err := tx.Select("id").First(&dashboard, "id = ?", id).Error; err != nil {
			return err
		}
		return deleteDashboards(tx, []string{id})
	})
}

// CreateVisualization places viz after the last existing visualization
func (r *GormDashboardRepository) CreateVisualization(ctx context.Context, viz *models.Visualization) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Visualization{}).Where("dashboard_id = ?", viz.DashboardID).Count(&count).Error; err != nil {
			return err
		}

		viz.Position = int(count)
		return tx.Create(viz).Error
	})
}

func (r *GormDashboardRepository) FindVisualization(ctx context.Context, dashboardID, vizID string) (*models.Visualization, error) {
	var viz models.Visualization
	if err := r.db.WithContext(ctx).
		Where("id = ? AND dashboard_id = ?", vizID, dashboardID).
		First(&viz).Error; err != nil {
		return nil, err
	}
	return &viz, nil
}

func (r *GormDashboardRepository) UpdateVisualization(ctx context.Context, viz *models.Visualization) error {
	return r.db.WithContext(ctx).Model(viz).
		Select("title", "type", "config").
		Updates(viz).Error
}

func (r *GormDashboardRepository) DeleteVisualization(ctx context.Context, dashboardID, vizID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND dashboard_id = ?", vizID, dashboardID).Delete(&models.Visualization{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return renumber(tx, dashboardID, nil)
	})
}

func (r *GormDashboardRepository) ReorderVisualizations(ctx context.Context, dashboardID string, orderedIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return renumber(tx, dashboardID, orderedIDs)
	})
}

// renumber rewrites positions to 0..n-1. With order nil the current order is kept.
func renumber(tx *gorm.DB, dashboardID string, order []string) error {
	if order == nil {
		if err := tx.Model(&models.Visualization{}).
			Where("dashboard_id = ?", dashboardID).
			Order("position ASC, created_at ASC").
			Pluck("id", &order).Error; err != nil {
			return err
		}
	}

	for position, id := range order {
		result := tx.Model(&models.Visualization{}).
			Where("id = ? AND dashboard_id = ?", id, dashboardID).
			Update("position", position)
		if result.Error != nil {
			return fmt.Errorf("renumber visualization %s: %w", id, result.Error)
		}
	}
	return nil
}
