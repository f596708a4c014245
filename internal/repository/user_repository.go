package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/report-hub-api/internal/database"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormUserRepository) FindByInviteToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, "invite_token = ?", token)
}

func (r *GormUserRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, "reset_token = ?", token)
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").Where(query, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) CountByRole(ctx context.Context, roleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// ListByOrganization lists users of an organization, pending invitees included
func (r *GormUserRepository) ListByOrganization(ctx context.Context, organizationID string, params utils.PaginationParams) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Preload("Role").
		Order("email ASC").
		Scopes(database.Paginate(params)).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *GormUserRepository) CountInOrganization(ctx context.Context, userIDs []string, organizationID string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ? AND organization_id = ?", userIDs, organizationID).
		Count(&count).Error
	return count, err
}

func (r *GormUserRepository) GroupIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}

// Delete removes the user and everything that hangs off them
func (r *GormUserRepository) Delete(ctx context.Context, id string) ([]string, error) {
	var paths []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", id).Error; err != nil {
			return err
		}

		var blobs []reportBlob
		if err := tx.Model(&models.Report{}).Where("owner_id = ?", id).Select("id", "file_path").Scan(&blobs).Error; err != nil {
			return err
		}
		reportIDs, reportPaths := splitBlobs(blobs)
		if err := deleteReports(tx, reportIDs); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.ReportPermission{}).Error; err != nil {
			return fmt.Errorf("%w: report grants: %w", ErrCascadeDelete, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.DashboardPermission{}).Error; err != nil {
			return fmt.Errorf("%w: dashboard grants: %w", ErrCascadeDelete, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("%w: comments: %w", ErrCascadeDelete, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return fmt.Errorf("%w: group members: %w", ErrCascadeDelete, err)
		}
		if err := tx.Model(&models.Dashboard{}).Where("created_by_id = ?", id).Update("created_by_id", nil).Error; err != nil {
			return fmt.Errorf("%w: dashboards: %w", ErrCascadeDelete, err)
		}

		if err := tx.Delete(&models.User{}, "id = ?", id).Error; err != nil {
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
