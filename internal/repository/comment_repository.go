package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/database"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("User").Create(comment).Error
}

func (r *GormCommentRepository) ListByReport(ctx context.Context, reportID string, params utils.PaginationParams) ([]models.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Comment{}).Where("report_id = ?", reportID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	if err := query.Preload("User").
		Order("created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
