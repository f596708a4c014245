package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// InviteService provisions users through invite tokens
type InviteService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewInviteService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, ttl time.Duration) *InviteService {
	return &InviteService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		ttl:      ttl,
		now:      time.Now,
	}
}

type CreateInviteInput struct {
	Email          string
	OrganizationID string
	Role           models.RoleName
}

// Invite is the pending user plus the token to deliver out-of-band
type Invite struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// CreateInvite checks who may invite whom, then creates or overwrites the pending user.
//
// Only User and Admin can be invited, and only a Superadmin may invite an Admin.
// Admins invite into their own organization and cannot take over a pending user
// of another one. A pending user with the same email is updated in place; an email
// that already has credentials is a conflict.
func (s *InviteService) CreateInvite(ctx context.Context, inviter access.Principal, input CreateInviteInput) (*Invite, error) {
	roleID, err := inviteRoleID(input.Role)
	if err != nil {
		return nil, err
	}

	switch {
	case inviter.IsSuperadmin():
	case inviter.IsAdmin():
		if roleID == models.RoleIDAdmin {
			return nil, ErrAdminInviteForbidden
		}
		if !inviter.InOrganization(input.OrganizationID) {
			return nil, ErrForeignOrganization
		}
	default:
		if roleID == models.RoleIDAdmin {
			return nil, ErrAdminInviteForbidden
		}
		return nil, ErrInviteForbidden
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.FindByID(ctx, input.OrganizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}
	expires := s.now().Add(s.ttl)
	orgID := input.OrganizationID

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsPending() {
			return nil, ErrEmailTaken
		}
		if !inviter.IsSuperadmin() && existing.OrganizationID != nil && *existing.OrganizationID != orgID {
			return nil, ErrForeignOrganization
		}
		existing.InviteToken = &token
		existing.InviteTokenExpiresAt = &expires
		existing.OrganizationID = &orgID
		existing.RoleID = roleID
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update invite: %w", err)
		}
		return &Invite{User: existing, Token: token, ExpiresAt: expires}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		user := &models.User{
			Email:                email,
			RoleID:               roleID,
			OrganizationID:       &orgID,
			InviteToken:          &token,
			InviteTokenExpiresAt: &expires,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create invite: %w", err)
		}
		return &Invite{User: user, Token: token, ExpiresAt: expires}, nil

	default:
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
}

// pendingAdmin builds the first admin of a new organization, used by OrganizationService
func (s *InviteService) pendingAdmin(ctx context.Context, email string) (*models.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	expires := s.now().Add(s.ttl)

	return &models.User{
		Email:                email,
		RoleID:               models.RoleIDAdmin,
		InviteToken:          &token,
		InviteTokenExpiresAt: &expires,
	}, token, nil
}

func inviteRoleID(role models.RoleName) (uint, error) {
	switch models.RoleName(strings.TrimSpace(string(role))) {
	case models.RoleUser:
		return models.RoleIDUser, nil
	case models.RoleAdmin:
		return models.RoleIDAdmin, nil
	default:
		return 0, ErrInvalidRole
	}
}
