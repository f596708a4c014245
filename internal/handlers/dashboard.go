package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/report-hub-api/internal/dto"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	log              zerolog.Logger
}

func NewDashboardHandler(dashboardService *services.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log,
	}
}

type CreateDashboardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ShareDashboardRequest replaces the recipients; level defaults to Viewer
type ShareDashboardRequest struct {
	UserIDs  []string `json:"user_ids"`
	GroupIDs []string `json:"group_ids"`
	Level    string   `json:"level"`
}

type VisualizationRequest struct {
	Title  string                     `json:"title" binding:"required"`
	Type   string                     `json:"type" binding:"required"`
	Config models.VisualizationConfig `json:"config"`
}

type ReorderRequest struct {
	VisualizationIDs []string `json:"visualization_ids" binding:"required"`
}

type SuggestRequest struct {
	ReportID string `json:"report_id" binding:"required"`
}

func (h *DashboardHandler) ListDashboards(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	dashboards, err := h.dashboardService.List(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboards": dto.ToDashboardDTOs(dashboards)})
}

func (h *DashboardHandler) CreateDashboard(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateDashboardRequest
	if !bindJSON(c, &req) {
		return
	}

	dashboard, err := h.dashboardService.Create(c.Request.Context(), actor, services.CreateDashboardInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDashboardDTO(*dashboard))
}

// GetDashboard returns the dashboard with its visualizations in display order
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardDTO(*dashboard))
}

func (h *DashboardHandler) DeleteDashboard(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.dashboardService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Dashboard deleted successfully"})
}

// ShareDashboard shares the dashboard and grants Viewer on its source reports where needed
func (h *DashboardHandler) ShareDashboard(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req ShareDashboardRequest
	if !bindJSON(c, &req) {
		return
	}
	level, err := parseLevel(req.Level)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	added, err := h.dashboardService.Share(c.Request.Context(), actor, services.ShareDashboardInput{
		DashboardID: c.Param("id"),
		UserIDs:     req.UserIDs,
		GroupIDs:    req.GroupIDs,
		Level:       level,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             "Dashboard shared successfully",
		"report_grants_added": added,
	})
}

func (h *DashboardHandler) ListPermissions(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	grants, err := h.dashboardService.ListGrants(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": dto.ToDashboardGrantDTOs(grants)})
}

func (h *DashboardHandler) AddVisualization(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req VisualizationRequest
	if !bindJSON(c, &req) {
		return
	}

	viz, err := h.dashboardService.AddVisualization(c.Request.Context(), actor, c.Param("id"), services.VisualizationInput{
		Title:  req.Title,
		Type:   req.Type,
		Config: req.Config,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToVisualizationDTO(*viz))
}

func (h *DashboardHandler) UpdateVisualization(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req VisualizationRequest
	if !bindJSON(c, &req) {
		return
	}

	viz, err := h.dashboardService.UpdateVisualization(c.Request.Context(), actor, c.Param("id"), c.Param("vizId"), services.VisualizationInput{
		Title:  req.Title,
		Type:   req.Type,
		Config: req.Config,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToVisualizationDTO(*viz))
}

func (h *DashboardHandler) DeleteVisualization(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.dashboardService.DeleteVisualization(c.Request.Context(), actor, c.Param("id"), c.Param("vizId")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Visualization deleted successfully"})
}

// ReorderVisualizations takes every visualization id of the dashboard in the new order
func (h *DashboardHandler) ReorderVisualizations(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	dashboard, err := h.dashboardService.ReorderVisualizations(c.Request.Context(), actor, c.Param("id"), req.VisualizationIDs)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardDTO(*dashboard))
}

// SuggestVisualizations proposes charts for a report; nothing is saved
func (h *DashboardHandler) SuggestVisualizations(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req SuggestRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestions, err := h.dashboardService.SuggestVisualizations(c.Request.Context(), actor, c.Param("id"), req.ReportID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": dto.ToSuggestionDTOs(suggestions)})
}
