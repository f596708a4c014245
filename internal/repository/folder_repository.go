package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// GormFolderRepository is a GORM implementation of FolderRepository
type GormFolderRepository struct {
	db *gorm.DB
}

// NewFolderRepository creates a new FolderRepository
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &GormFolderRepository{db: db}
}

func (r *GormFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	return r.db.WithContext(ctx).Create(folder).Error
}

func (r *GormFolderRepository) FindByID(ctx context.Context, id string) (*models.Folder, error) {
	var folder models.Folder
	if err := r.db.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *GormFolderRepository) FindByName(ctx context.Context, organizationID, name string) (*models.Folder, error) {
	var folder models.Folder
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND name = ?", organizationID, name).
		First(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *GormFolderRepository) ListByOrganization(ctx context.Context, organizationID string) ([]models.Folder, error) {
	var folders []models.Folder
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("name ASC").
		Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// Delete moves contained reports to the root before removing the folder
func (r *GormFolderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Report{}).Where("folder_id = ?", id).Update("folder_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Folder{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
