package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/report-hub-api/internal/dto"
	"github.com/yukikurage/report-hub-api/internal/services"
)

// GroupHandler serves groups and folders, both scoped to the caller's organization
type GroupHandler struct {
	groupService  *services.GroupService
	folderService *services.FolderService
	log           zerolog.Logger
}

func NewGroupHandler(groupService *services.GroupService, folderService *services.FolderService, log zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		groupService:  groupService,
		folderService: folderService,
		log:           log,
	}
}

type CreateGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"member_ids"`
}

type SetMembersRequest struct {
	MemberIDs []string `json:"member_ids"`
}

type CreateFolderRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	groups, err := h.groupService.List(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := make([]dto.GroupDTO, len(groups))
	for i, g := range groups {
		out[i] = dto.ToGroupDTO(g)
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), actor, req.Name, req.MemberIDs)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupDTO(*group))
}

// SetMembers replaces the member set of a group
func (h *GroupHandler) SetMembers(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req SetMembersRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.SetMembers(c.Request.Context(), actor, c.Param("id"), req.MemberIDs)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group))
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

func (h *GroupHandler) ListFolders(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	folders, err := h.folderService.List(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": dto.ToFolderDTOs(folders)})
}

func (h *GroupHandler) CreateFolder(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	folder, err := h.folderService.Create(c.Request.Context(), actor, req.Name)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFolderDTO(*folder))
}

// DeleteFolder moves the folder's reports to the root before removing it
func (h *GroupHandler) DeleteFolder(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.folderService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted successfully"})
}
