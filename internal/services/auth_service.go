package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/constants"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

var validate = validator.New()

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	resetTTL time.Duration
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, resetTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// BootstrapInput holds the first Superadmin account.
type BootstrapInput struct {
	FullName string
	Email    string
	Password string
}

// BootstrapSuperadmin creates the Superadmin. It only works while none exists.
func (s *AuthService) BootstrapSuperadmin(ctx context.Context, input BootstrapInput) (*models.User, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, ErrNameRequired
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	count, err := s.userRepo.CountByRole(ctx, models.RoleIDSuperadmin)
	if err != nil {
		return nil, fmt.Errorf("failed to count superadmins: %w", err)
	}
	if count > 0 {
		return nil, ErrSuperadminExists
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       models.RoleIDSuperadmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create superadmin: %w", err)
	}
	return s.GetUser(ctx, user.ID)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
// Pending invitees have no password and can never log in.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.IsPending() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// RegisterInput completes a pending invitation.
type RegisterInput struct {
	Token    string
	FullName string
	Password string
}

// CompleteRegistration sets name and password for the invitee holding token.
// Role and organization stay as the inviter set them.
func (s *AuthService) CompleteRegistration(ctx context.Context, input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, ErrNameRequired
	}
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.FindByInviteToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	if user.InviteTokenExpiresAt != nil && s.now().After(*user.InviteTokenExpiresAt) {
		return nil, ErrTokenExpired
	}

	user.FullName = name
	user.PasswordHash = hash
	user.InviteToken = nil
	user.InviteTokenExpiresAt = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to complete registration: %w", err)
	}
	return user, nil
}

// ResetTicket is handed to the requester for out-of-band delivery.
type ResetTicket struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// IssuePasswordReset creates a reset token for the user with email.
// Admins may reset users of their organization; the Superadmin anyone.
func (s *AuthService) IssuePasswordReset(ctx context.Context, actor access.Principal, email string) (*ResetTicket, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	switch {
	case actor.IsSuperadmin():
	case actor.IsAdmin():
		if user.OrganizationID == nil || !actor.InOrganization(*user.OrganizationID) {
			return nil, ErrForeignOrganization
		}
	default:
		return nil, ErrAdminOnly
	}
	if user.IsPending() {
		return nil, ErrPendingUser
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	expires := s.now().Add(s.resetTTL)
	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expires

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}
	return &ResetTicket{UserID: user.ID, Token: token, ExpiresAt: expires}, nil
}

// ResetPassword replaces the password of the user holding a valid reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to find reset token: %w", err)
	}
	if user.ResetTokenExpiresAt == nil || s.now().After(*user.ResetTokenExpiresAt) {
		return ErrTokenExpired
	}

	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// normalizeEmail lower-cases and validates an address
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}
