package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/report-hub-api/internal/dto"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/services"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// OrganizationHandler serves organizations, their users and invites
type OrganizationHandler struct {
	orgService    *services.OrganizationService
	userService   *services.UserService
	inviteService *services.InviteService
	log           zerolog.Logger
}

func NewOrganizationHandler(orgService *services.OrganizationService, userService *services.UserService, inviteService *services.InviteService, log zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:    orgService,
		userService:   userService,
		inviteService: inviteService,
		log:           log,
	}
}

type CreateOrganizationRequest struct {
	Name       string `json:"name" binding:"required"`
	AdminEmail string `json:"admin_email"`
}

type UpdateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateInviteRequest invites into organization_id, or the caller's own organization when omitted
type CreateInviteRequest struct {
	Email          string          `json:"email" binding:"required"`
	OrganizationID string          `json:"organization_id"`
	Role           models.RoleName `json:"role"`
}

func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	orgs, err := h.orgService.List(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := make([]dto.OrganizationDTO, len(orgs))
	for i, org := range orgs {
		out[i] = dto.ToOrganizationDTO(org)
	}
	c.JSON(http.StatusOK, gin.H{"organizations": out})
}

// CreateOrganization creates an organization, optionally inviting its first Admin
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.orgService.Create(c.Request.Context(), actor, services.CreateOrganizationInput{
		Name:       req.Name,
		AdminEmail: req.AdminEmail,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCreatedOrganizationDTO(*created))
}

func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.orgService.Rename(c.Request.Context(), actor, c.Param("id"), req.Name)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// DeleteOrganization removes the organization and everything it owns
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted successfully"})
}

// ListUsers lists the users and pending invitees of an organization
func (h *OrganizationHandler) ListUsers(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.userService.ListOrganizationUsers(c.Request.Context(), actor, c.Param("id"), params)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users: dto.ToUserDTOs(users),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// CreateInvite returns the invite token for out-of-band delivery
func (h *OrganizationHandler) CreateInvite(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateInviteRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.OrganizationID == "" {
		req.OrganizationID = actor.OrgID()
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	invite, err := h.inviteService.CreateInvite(c.Request.Context(), actor, services.CreateInviteInput{
		Email:          req.Email,
		OrganizationID: req.OrganizationID,
		Role:           req.Role,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInviteDTO(*invite))
}

func (h *OrganizationHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
