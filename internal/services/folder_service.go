package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
)

// FolderService manages the one-level folders reports are grouped in
type FolderService struct {
	folderRepo repository.FolderRepository
}

func NewFolderService(folderRepo repository.FolderRepository) *FolderService {
	return &FolderService{folderRepo: folderRepo}
}

func (s *FolderService) List(ctx context.Context, actor access.Principal) ([]models.Folder, error) {
	if actor.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	folders, err := s.folderRepo.ListByOrganization(ctx, *actor.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

func (s *FolderService) Create(ctx context.Context, actor access.Principal, name string) (*models.Folder, error) {
	if actor.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.folderRepo.FindByName(ctx, *actor.OrganizationID, name); err == nil {
		return nil, ErrFolderExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check folder name: %w", err)
	}

	folder := &models.Folder{Name: name, OrganizationID: *actor.OrganizationID}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return folder, nil
}

// Delete removes a folder of the actor's organization; its reports move to the root
func (s *FolderService) Delete(ctx context.Context, actor access.Principal, folderID string) error {
	folder, err := s.Find(ctx, actor, folderID)
	if err != nil {
		return err
	}
	if err := s.folderRepo.Delete(ctx, folder.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFolderNotFound
		}
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

// Find loads a folder visible to the actor
func (s *FolderService) Find(ctx context.Context, actor access.Principal, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.FindByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}
	if !actor.InOrganization(folder.OrganizationID) {
		return nil, ErrFolderNotFound
	}
	return folder, nil
}
