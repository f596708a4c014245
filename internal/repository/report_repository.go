package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// GormReportRepository is a GORM implementation of ReportRepository
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &GormReportRepository{db: db}
}

// CreateWithOwner inserts the report and the uploader's Owner grant atomically
func (r *GormReportRepository) CreateWithOwner(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Folder").Create(report).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateReport, err)
		}

		ownerID := report.OwnerID
		grant := models.ReportPermission{
			ReportID: report.ID,
			UserID:   &ownerID,
			Level:    models.LevelOwner,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return fmt.Errorf("%w: owner grant: %w", ErrCreateReport, err)
		}
		return nil
	})
}

func (r *GormReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Owner").First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ListVisible lists reports the user owns, shares an organization with, or holds a grant on
func (r *GormReportRepository) ListVisible(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	db := r.db.WithContext(ctx)

	grantSubQuery := db.Model(&models.ReportPermission{}).
		Select("1").
		Where("report_permissions.report_id = reports.id")
	if len(filter.GroupIDs) > 0 {
		grantSubQuery = grantSubQuery.Where("report_permissions.user_id = ? OR report_permissions.group_id IN ?", filter.UserID, filter.GroupIDs)
	} else {
		grantSubQuery = grantSubQuery.Where("report_permissions.user_id = ?", filter.UserID)
	}

	visible := db.Where("reports.owner_id = ?", filter.UserID).
		Or("EXISTS (?)", grantSubQuery)
	if filter.OrganizationID != nil {
		visible = visible.Or("reports.organization_id = ?", *filter.OrganizationID)
	}

	query := db.Model(&models.Report{}).Where(visible)

	switch {
	case filter.FolderID != nil:
		query = query.Where("reports.folder_id = ?", *filter.FolderID)
	case filter.RootOnly:
		query = query.Where("reports.folder_id IS NULL")
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(reports.title) LIKE ? OR LOWER(reports.filename) LIKE ?", pattern, pattern)
	}
	if ext := strings.TrimPrefix(strings.ToLower(filter.Extension), "."); ext != "" {
		query = query.Where("LOWER(reports.filename) LIKE ?", "%."+ext)
	}

	if filter.OldestFirst {
		query = query.Order("reports.created_at ASC")
	} else {
		query = query.Order("reports.created_at DESC")
	}

	var reports []models.Report
	if err := query.Preload("Owner").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *GormReportRepository) UpdateFolder(ctx context.Context, reportID string, folderID *string) error {
	return r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", reportID).
		Update("folder_id", folderID).Error
}

func (r *GormReportRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.Select("id").First(&report, "id = ?", id).Error; err != nil {
			return err
		}
		return deleteReports(tx, []string{id})
	})
}
