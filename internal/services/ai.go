package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/yukikurage/report-hub-api/internal/constants"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/tabular"
)

// chatCompleter is the part of the OpenAI client the service uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client chatCompleter
	model  string
}

// SuggestedVisualization is a chart proposed for a report. It is not validated.
type SuggestedVisualization struct {
	Title  string                     `json:"title"`
	Type   string                     `json:"type"`
	Config models.VisualizationConfig `json:"config"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// SuggestVisualizations asks the model for charts that fit the report's columns
func (s *AIService) SuggestVisualizations(ctx context.Context, reportTitle string, columns []tabular.Column) ([]SuggestedVisualization, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	var cols strings.Builder
	for _, c := range columns {
		fmt.Fprintf(&cols, "- %s (%s)\n", c.Name, c.Kind)
	}

	prompt := fmt.Sprintf(`You help analysts build dashboards. Propose up to %d charts for the dataset below.

Dataset: %s
Columns:
%s
Return a JSON object of this shape:
{
  "visualizations": [
    {
      "title": "short chart title",
      "type": "one of Bar, Line, Pie, Scatter, Area, Table",
      "config": {
        "x": "column for Bar/Line/Scatter/Area",
        "y": "numeric column for Bar/Line/Scatter/Area",
        "color": "optional categorical column",
        "names": "categorical column for Pie",
        "values": "numeric column for Pie",
        "columns": ["columns for Table"]
      }
    }
  ]
}

Rules:
- Only use column names from the list, spelled exactly
- Leave out fields a chart type does not use
- Return JSON only`, constants.MaxAISuggestions, reportTitle, cols.String())

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var parsed struct {
		Visualizations []SuggestedVisualization `json:"visualizations"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	if len(parsed.Visualizations) > constants.MaxAISuggestions {
		parsed.Visualizations = parsed.Visualizations[:constants.MaxAISuggestions]
	}
	return parsed.Visualizations, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
