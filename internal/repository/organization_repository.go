package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

func (r *GormOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

// CreateWithAdmin creates the organization and its first admin atomically
func (r *GormOrganizationRepository) CreateWithAdmin(ctx context.Context, org *models.Organization, admin *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		if admin == nil {
			return nil
		}

		admin.OrganizationID = &org.ID
		return tx.Create(admin).Error
	})
}

func (r *GormOrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *GormOrganizationRepository) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *GormOrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *GormOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

// Delete runs the cascade explicitly: dashboards, reports, folders and groups go,
// users stay without an organization.
func (r *GormOrganizationRepository) Delete(ctx context.Context, id string) ([]string, error) {
	var paths []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Select("id").First(&org, "id = ?", id).Error; err != nil {
			return err
		}

		var dashboardIDs []string
		if err := tx.Model(&models.Dashboard{}).Where("organization_id = ?", id).Pluck("id", &dashboardIDs).Error; err != nil {
			return err
		}
		if err := deleteDashboards(tx, dashboardIDs); err != nil {
			return err
		}

		var blobs []reportBlob
		if err := tx.Model(&models.Report{}).Where("organization_id = ?", id).Select("id", "file_path").Scan(&blobs).Error; err != nil {
			return err
		}
		reportIDs, reportPaths := splitBlobs(blobs)
		if err := deleteReports(tx, reportIDs); err != nil {
			return err
		}

		if err := tx.Where("organization_id = ?", id).Delete(&models.Folder{}).Error; err != nil {
			return fmt.Errorf("%w: folders: %w", ErrCascadeDelete, err)
		}

		var groupIDs []string
		if err := tx.Model(&models.Group{}).Where("organization_id = ?", id).Pluck("id", &groupIDs).Error; err != nil {
			return err
		}
		if err := deleteGroups(tx, groupIDs); err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("organization_id = ?", id).Update("organization_id", nil).Error; err != nil {
			return fmt.Errorf("%w: detach users: %w", ErrCascadeDelete, err)
		}

		if err := tx.Delete(&models.Organization{}, "id = ?", id).Error; err != nil {
			return err
		}

		paths = reportPaths
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
