package dto

import (
	"time"

	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/services"
)

type VisualizationDTO struct {
	ID       string                     `json:"id"`
	Title    string                     `json:"title"`
	Type     models.ChartType           `json:"type"`
	Config   models.VisualizationConfig `json:"config"`
	Position int                        `json:"position"`
}

// DashboardDTO lists visualizations in display order
type DashboardDTO struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	OrganizationID string             `json:"organization_id"`
	CreatedByID    *string            `json:"created_by_id"`
	Visualizations []VisualizationDTO `json:"visualizations"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type SuggestionDTO struct {
	Title  string                     `json:"title"`
	Type   string                     `json:"type"`
	Config models.VisualizationConfig `json:"config"`
}

func ToVisualizationDTO(viz models.Visualization) VisualizationDTO {
	return VisualizationDTO{
		ID:       viz.ID,
		Title:    viz.Title,
		Type:     viz.Type,
		Config:   viz.Config.Data(),
		Position: viz.Position,
	}
}

func ToDashboardDTO(dashboard models.Dashboard) DashboardDTO {
	vizs := make([]VisualizationDTO, len(dashboard.Visualizations))
	for i, v := range dashboard.Visualizations {
		vizs[i] = ToVisualizationDTO(v)
	}
	return DashboardDTO{
		ID:             dashboard.ID,
		Name:           dashboard.Name,
		Description:    dashboard.Description,
		OrganizationID: dashboard.OrganizationID,
		CreatedByID:    dashboard.CreatedByID,
		Visualizations: vizs,
		CreatedAt:      dashboard.CreatedAt,
		UpdatedAt:      dashboard.UpdatedAt,
	}
}

func ToDashboardDTOs(dashboards []models.Dashboard) []DashboardDTO {
	out := make([]DashboardDTO, len(dashboards))
	for i, d := range dashboards {
		out[i] = ToDashboardDTO(d)
	}
	return out
}

func ToSuggestionDTOs(suggestions []services.SuggestedVisualization) []SuggestionDTO {
	out := make([]SuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		out[i] = SuggestionDTO{Title: s.Title, Type: s.Type, Config: s.Config}
	}
	return out
}
