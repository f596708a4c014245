package dto

import (
	"time"

	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/services"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID             string          `json:"id"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	Role           models.RoleName `json:"role"`
	OrganizationID *string         `json:"organization_id"`
	Pending        bool            `json:"pending"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteDTO carries the invite token for out-of-band delivery
type InviteDTO struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreatedOrganizationDTO struct {
	Organization OrganizationDTO `json:"organization"`
	AdminInvite  *InviteDTO      `json:"admin_invite,omitempty"`
}

type ResetTicketDTO struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GroupDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id"`
	Members        []UserDTO `json:"members"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		Role:           user.RoleName(),
		OrganizationID: user.OrganizationID,
		Pending:        user.IsPending(),
		CreatedAt:      user.CreatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
	}
}

func ToInviteDTO(invite services.Invite) InviteDTO {
	return InviteDTO{
		User:      ToUserDTO(*invite.User),
		Token:     invite.Token,
		ExpiresAt: invite.ExpiresAt,
	}
}

func ToCreatedOrganizationDTO(created services.CreatedOrganization) CreatedOrganizationDTO {
	out := CreatedOrganizationDTO{Organization: ToOrganizationDTO(*created.Organization)}
	if created.AdminInvite != nil {
		invite := ToInviteDTO(*created.AdminInvite)
		out.AdminInvite = &invite
	}
	return out
}

func ToResetTicketDTO(ticket services.ResetTicket) ResetTicketDTO {
	return ResetTicketDTO{
		UserID:    ticket.UserID,
		Token:     ticket.Token,
		ExpiresAt: ticket.ExpiresAt,
	}
}

// ToGroupDTO expects Members.User to be preloaded
func ToGroupDTO(group models.Group) GroupDTO {
	members := make([]UserDTO, len(group.Members))
	for i, m := range group.Members {
		members[i] = ToUserDTO(m.User)
	}
	return GroupDTO{
		ID:             group.ID,
		Name:           group.Name,
		OrganizationID: group.OrganizationID,
		Members:        members,
		CreatedAt:      group.CreatedAt,
	}
}
