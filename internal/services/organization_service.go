package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/storage"
)

// OrganizationService handles organization management, reserved to the Superadmin
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
	invites *InviteService
	blobs   storage.BlobStore
	log     zerolog.Logger
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, invites *InviteService, blobs storage.BlobStore, log zerolog.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
		invites: invites,
		blobs:   blobs,
		log:     log,
	}
}

type CreateOrganizationInput struct {
	Name string
	// AdminEmail optionally invites the first Admin in the same transaction
	AdminEmail string
}

type CreatedOrganization struct {
	Organization *models.Organization
	AdminInvite  *Invite
}

func (s *OrganizationService) List(ctx context.Context, actor access.Principal) ([]models.Organization, error) {
	if !actor.IsSuperadmin() {
		return nil, ErrSuperadminOnly
	}
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

func (s *OrganizationService) Create(ctx context.Context, actor access.Principal, input CreateOrganizationInput) (*CreatedOrganization, error) {
	if !actor.IsSuperadmin() {
		return nil, ErrSuperadminOnly
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	org := &models.Organization{Name: name}
	var (
		admin  *models.User
		invite *Invite
	)
	if strings.TrimSpace(input.AdminEmail) != "" {
		user, token, err := s.invites.pendingAdmin(ctx, input.AdminEmail)
		if err != nil {
			return nil, err
		}
		admin = user
		invite = &Invite{User: user, Token: token, ExpiresAt: *user.InviteTokenExpiresAt}
	}

	if err := s.orgRepo.CreateWithAdmin(ctx, org, admin); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.log.Info().Str("organization_id", org.ID).Str("name", org.Name).Msg("Organization created")
	return &CreatedOrganization{Organization: org, AdminInvite: invite}, nil
}

func (s *OrganizationService) Rename(ctx context.Context, actor access.Principal, id, name string) (*models.Organization, error) {
	if !actor.IsSuperadmin() {
		return nil, ErrSuperadminOnly
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	org, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, org.ID); err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to rename organization: %w", err)
	}
	return org, nil
}

// Delete removes the organization and its resources, then the stored report files
func (s *OrganizationService) Delete(ctx context.Context, actor access.Principal, id string) error {
	if !actor.IsSuperadmin() {
		return ErrSuperadminOnly
	}

	paths, err := s.orgRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	removeBlobs(ctx, s.blobs, s.log, paths)
	s.log.Info().Str("organization_id", id).Int("reports_removed", len(paths)).Msg("Organization deleted")
	return nil
}

func (s *OrganizationService) find(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

func (s *OrganizationService) ensureNameFree(ctx context.Context, name, exceptID string) error {
	existing, err := s.orgRepo.FindByName(ctx, name)
	if err == nil {
		if existing.ID == exceptID {
			return nil
		}
		return ErrOrganizationExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check organization name: %w", err)
	}
	return nil
}

// removeBlobs deletes files of reports already removed from the database.
// Failures only leave orphaned files, so they are logged and skipped.
func removeBlobs(ctx context.Context, blobs storage.BlobStore, log zerolog.Logger, paths []string) {
	if blobs == nil {
		return
	}
	for _, p := range paths {
		if err := blobs.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Failed to delete report file")
		}
	}
}
