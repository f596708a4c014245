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

// GroupService manages groups of an organization. Only Admins may change them.
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

// List returns the groups of the actor's organization with members
func (s *GroupService) List(ctx context.Context, actor access.Principal) ([]models.Group, error) {
	if actor.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	groups, err := s.groupRepo.ListByOrganization(ctx, *actor.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) Create(ctx context.Context, actor access.Principal, name string, memberIDs []string) (*models.Group, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if actor.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	memberIDs = uniqueStrings(memberIDs)
	if err := s.ensureMembers(ctx, memberIDs, *actor.OrganizationID); err != nil {
		return nil, err
	}

	group := &models.Group{Name: name, OrganizationID: *actor.OrganizationID}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	if len(memberIDs) > 0 {
		if err := s.groupRepo.ReplaceMembers(ctx, group.ID, memberIDs); err != nil {
			return nil, fmt.Errorf("failed to add group members: %w", err)
		}
	}
	return s.groupRepo.FindByID(ctx, group.ID)
}

// SetMembers replaces the member list. Every member must belong to the group's organization.
func (s *GroupService) SetMembers(ctx context.Context, actor access.Principal, groupID string, memberIDs []string) (*models.Group, error) {
	group, err := s.findManaged(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}

	memberIDs = uniqueStrings(memberIDs)
	if err := s.ensureMembers(ctx, memberIDs, group.OrganizationID); err != nil {
		return nil, err
	}
	if err := s.groupRepo.ReplaceMembers(ctx, group.ID, memberIDs); err != nil {
		return nil, fmt.Errorf("failed to replace group members: %w", err)
	}
	return s.groupRepo.FindByID(ctx, group.ID)
}

func (s *GroupService) Delete(ctx context.Context, actor access.Principal, groupID string) error {
	group, err := s.findManaged(ctx, actor, groupID)
	if err != nil {
		return err
	}
	if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

func (s *GroupService) findManaged(ctx context.Context, actor access.Principal, groupID string) (*models.Group, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if !actor.InOrganization(group.OrganizationID) {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (s *GroupService) ensureMembers(ctx context.Context, userIDs []string, orgID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	count, err := s.userRepo.CountInOrganization(ctx, userIDs, orgID)
	if err != nil {
		return fmt.Errorf("failed to verify members: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrForeignPrincipal
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
