package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/storage"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// UserService lists and removes organization users
type UserService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	blobs    storage.BlobStore
	log      zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, blobs storage.BlobStore, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		blobs:    blobs,
		log:      log,
	}
}

// ListOrganizationUsers lists active and pending users. Admins see their own organization only.
func (s *UserService) ListOrganizationUsers(ctx context.Context, actor access.Principal, orgID string, params utils.PaginationParams) ([]models.User, int64, error) {
	if err := authorizeOrgAdmin(actor, orgID); err != nil {
		return nil, 0, err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrOrganizationNotFound
		}
		return nil, 0, fmt.Errorf("failed to find organization: %w", err)
	}

	users, total, err := s.userRepo.ListByOrganization(ctx, orgID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes a user with everything they own
func (s *UserService) DeleteUser(ctx context.Context, actor access.Principal, userID string) error {
	if actor.UserID == userID {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	switch {
	case actor.IsSuperadmin():
	case actor.IsAdmin():
		if user.OrganizationID == nil || !actor.InOrganization(*user.OrganizationID) {
			return ErrForeignOrganization
		}
		if user.RoleName() == models.RoleSuperadmin {
			return ErrSuperadminOnly
		}
	default:
		return ErrAdminOnly
	}

	paths, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	removeBlobs(ctx, s.blobs, s.log, paths)
	s.log.Info().Str("user_id", userID).Str("actor_id", actor.UserID).Int("reports_removed", len(paths)).Msg("User deleted")
	return nil
}

// authorizeOrgAdmin lets the Superadmin through and Admins for their own organization
func authorizeOrgAdmin(actor access.Principal, orgID string) error {
	switch {
	case actor.IsSuperadmin():
		return nil
	case actor.IsAdmin():
		if !actor.InOrganization(orgID) {
			return ErrForeignOrganization
		}
		return nil
	default:
		return ErrAdminOnly
	}
}
