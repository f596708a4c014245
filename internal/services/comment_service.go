package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// CommentService handles the append-only discussion on a report
type CommentService struct {
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	perms       *PermissionService
}

func NewCommentService(commentRepo repository.CommentRepository, userRepo repository.UserRepository, perms *PermissionService) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		perms:       perms,
	}
}

// Add posts a comment. Commenter is the lowest level allowed to write.
func (s *CommentService) Add(ctx context.Context, actor access.Principal, reportID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	report, _, err := s.perms.LoadReport(ctx, actor, reportID, models.LevelCommenter)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReportID: report.ID,
		UserID:   actor.UserID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if author, err := s.userRepo.FindByID(ctx, actor.UserID); err == nil {
		comment.User = *author
	}
	return comment, nil
}

// List returns a page of comments, newest first
func (s *CommentService) List(ctx context.Context, actor access.Principal, reportID string, params utils.PaginationParams) ([]models.Comment, int64, error) {
	report, _, err := s.perms.LoadReport(ctx, actor, reportID, models.LevelViewer)
	if err != nil {
		return nil, 0, err
	}

	comments, total, err := s.commentRepo.ListByReport(ctx, report.ID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}
