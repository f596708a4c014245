package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Omit("Members").Create(group).Error
}

func (r *GormGroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Members.User").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GormGroupRepository) ListByOrganization(ctx context.Context, organizationID string) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Preload("Members.User").
		Where("organization_id = ?", organizationID).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// ReplaceMembers swaps the whole member list in one transaction
func (r *GormGroupRepository) ReplaceMembers(ctx context.Context, groupID string, userIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}

		members := make([]models.GroupMember, 0, len(userIDs))
		seen := make(map[string]struct{}, len(userIDs))
		for _, userID := range userIDs {
			if _, ok := seen[userID]; ok {
				continue
			}
			seen[userID] = struct{}{}
			members = append(members, models.GroupMember{GroupID: groupID, UserID: userID})
		}
		return tx.Omit("User").Create(&members).Error
	})
}

func (r *GormGroupRepository) CountInOrganization(ctx context.Context, groupIDs []string, organizationID string) (int64, error) {
	if len(groupIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id IN ? AND organization_id = ?", groupIDs, organizationID).
		Count(&count).Error
	return count, err
}

func (r *GormGroupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteGroups(tx, []string{id})
	})
}
