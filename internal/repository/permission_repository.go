package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/models"
)

// GormPermissionRepository is a GORM implementation of PermissionRepository
type GormPermissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository creates a new PermissionRepository
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &GormPermissionRepository{db: db}
}

func (r *GormPermissionRepository) ListReportGrants(ctx context.Context, reportID string) ([]models.ReportPermission, error) {
	var grants []models.ReportPermission
	if err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *GormPermissionRepository) ReportGrantsFor(ctx context.Context, reportID, userID string, groupIDs []string) ([]models.ReportPermission, error) {
	var grants []models.ReportPermission
	query := principalScope(r.db.WithContext(ctx).Where("report_id = ?", reportID), userID, groupIDs)
	if err := query.Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// ReplaceReportGrants keeps Owner rows and swaps every other grant
func (r *GormPermissionRepository) ReplaceReportGrants(ctx context.Context, reportID string, grants []models.ReportPermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ? AND level <> ?", reportID, models.LevelOwner).
			Delete(&models.ReportPermission{}).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrReplaceGrants, err)
		}
		if len(grants) == 0 {
			return nil
		}

		for i := range grants {
			grants[i].ReportID = reportID
		}
		if err := tx.Create(&grants).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrReplaceGrants, err)
		}
		return nil
	})
}

func (r *GormPermissionRepository) ListDashboardGrants(ctx context.Context, dashboardID string) ([]models.DashboardPermission, error) {
	var grants []models.DashboardPermission
	if err := r.db.WithContext(ctx).
		Where("dashboard_id = ?", dashboardID).
		Order("created_at ASC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *GormPermissionRepository) DashboardGrantsFor(ctx context.Context, dashboardID, userID string, groupIDs []string) ([]models.DashboardPermission, error) {
	var grants []models.DashboardPermission
	query := principalScope(r.db.WithContext(ctx).Where("dashboard_id = ?", dashboardID), userID, groupIDs)
	if err := query.Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// ShareDashboard replaces the dashboard's grants, then propagates Viewer to every
// source report for grantees that hold no grant on it. Stronger grants are untouched.
func (r *GormPermissionRepository) ShareDashboard(ctx context.Context, dashboardID string, grants []models.DashboardPermission) (int, error) {
	propagated := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dashboard models.Dashboard
		if err := tx.Select("id").First(&dashboard, "id = ?", dashboardID).Error; err != nil {
			return err
		}

		if err := tx.Where("dashboard_id = ?", dashboardID).Delete(&models.DashboardPermission{}).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrReplaceGrants, err)
		}
		if len(grants) == 0 {
			return nil
		}
		for i := range grants {
			grants[i].DashboardID = dashboardID
		}
		if err := tx.Create(&grants).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrReplaceGrants, err)
		}

		reportIDs, err := sourceReports(tx, dashboardID)
		if err != nil {
			return err
		}

		for _, reportID := range reportIDs {
			for _, g := range grants {
				var count int64
				query := tx.Model(&models.ReportPermission{}).Where("report_id = ?", reportID)
				if g.UserID != nil {
					query = query.Where("user_id = ?", *g.UserID)
				} else {
					query = query.Where("group_id = ?", *g.GroupID)
				}
				if err := query.Count(&count).Error; err != nil {
					return fmt.Errorf("%w: %w", ErrPropagateGrants, err)
				}
				if count > 0 {
					continue
				}

				perm := models.ReportPermission{
					ReportID: reportID,
					UserID:   g.UserID,
					GroupID:  g.GroupID,
					Level:    models.LevelViewer,
				}
				if err := tx.Create(&perm).Error; err != nil {
					return fmt.Errorf("%w: %w", ErrPropagateGrants, err)
				}
				propagated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return propagated, nil
}

// sourceReports lists the reports referenced by the dashboard's visualizations that still exist
func sourceReports(tx *gorm.DB, dashboardID string) ([]string, error) {
	var visualizations []models.Visualization
	if err := tx.Where("dashboard_id = ?", dashboardID).Order("position ASC").Find(&visualizations).Error; err != nil {
		return nil, err
	}

	referenced := access.ReferencedReportIDs(visualizations)
	if len(referenced) == 0 {
		return nil, nil
	}

	var existing []string
	if err := tx.Model(&models.Report{}).Where("id IN ?", referenced).Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	ids := make([]string, 0, len(existing))
	for _, id := range referenced {
		if _, ok := found[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// principalScope restricts grants to the user or one of groupIDs
func principalScope(query *gorm.DB, userID string, groupIDs []string) *gorm.DB {
	if len(groupIDs) == 0 {
		return query.Where("user_id = ?", userID)
	}
	return query.Where("user_id = ? OR group_id IN ?", userID, groupIDs)
}
