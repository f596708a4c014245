package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/yukikurage/report-hub-api/internal/dto"
	"github.com/yukikurage/report-hub-api/internal/models"
)

func (s *HandlerTestSuite) storeCSV(report *models.Report) {
	s.Require().NoError(s.blobs.Put(context.Background(), report.FilePath, strings.NewReader(salesCSV), "text/csv"))
}

func barChart(reportID string) map[string]interface{} {
	return map[string]interface{}{
		"title": "Revenue by region",
		"type":  "Bar",
		"config": map[string]interface{}{
			"report_id": reportID,
			"x":         "region",
			"y":         "revenue",
			"filters":   map[string]interface{}{"revenue": []float64{0, 100}},
		},
	}
}

func (s *HandlerTestSuite) TestDashboardLifecycle() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	colleague := s.fx.Member("colleague@acme.test", org)
	report := s.fx.Report(creator, "sales")
	s.storeCSV(report)
	cookies := s.login(creator)

	w := s.doJSON(http.MethodPost, "/api/dashboards", map[string]string{"name": "Sales"}, cookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var dashboard dto.DashboardDTO
	s.decode(w, &dashboard)
	s.NotEmpty(dashboard.Description)
	url := "/api/dashboards/" + dashboard.ID

	w = s.doJSON(http.MethodPost, "/api/dashboards", map[string]string{"name": "Sales"}, cookies)
	s.Equal(http.StatusConflict, w.Code)

	var vizIDs []string
	for i := 0; i < 2; i++ {
		w = s.doJSON(http.MethodPost, url+"/visualizations", barChart(report.ID), cookies)
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

		var viz dto.VisualizationDTO
		s.decode(w, &viz)
		s.Equal(i, viz.Position)
		vizIDs = append(vizIDs, viz.ID)
	}

	bad := barChart(report.ID)
	bad["config"].(map[string]interface{})["y"] = "missing"
	w = s.doJSON(http.MethodPost, url+"/visualizations", bad, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	update := barChart(report.ID)
	update["title"] = "Units by region"
	update["type"] = "Line"
	update["config"].(map[string]interface{})["y"] = "units"
	w = s.doJSON(http.MethodPut, url+"/visualizations/"+vizIDs[0], update, cookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated dto.VisualizationDTO
	s.decode(w, &updated)
	s.Equal(models.ChartLine, updated.Type)
	s.Equal("units", updated.Config.Y)

	w = s.doJSON(http.MethodPut, url+"/visualizations/order", map[string]interface{}{
		"visualization_ids": []string{vizIDs[0]},
	}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPut, url+"/visualizations/order", map[string]interface{}{
		"visualization_ids": []string{vizIDs[1], vizIDs[0]},
	}, cookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &dashboard)
	s.Require().Len(dashboard.Visualizations, 2)
	s.Equal(vizIDs[1], dashboard.Visualizations[0].ID)

	colleagueCookies := s.login(colleague)
	w = s.doJSON(http.MethodGet, url, nil, colleagueCookies)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.doJSON(http.MethodPut, url+"/share", map[string]interface{}{"user_ids": []string{colleague.ID}}, cookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var shared struct {
		Added int `json:"report_grants_added"`
	}
	s.decode(w, &shared)
	s.Equal(1, shared.Added)

	w = s.doJSON(http.MethodGet, url, nil, colleagueCookies)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodGet, url+"/permissions", nil, colleagueCookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var grants struct {
		Permissions []dto.GrantDTO `json:"permissions"`
	}
	s.decode(w, &grants)
	s.Require().Len(grants.Permissions, 1)
	s.Equal(models.LevelViewer, grants.Permissions[0].Level)

	w = s.doJSON(http.MethodDelete, url+"/visualizations/"+vizIDs[0], nil, colleagueCookies)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.doJSON(http.MethodDelete, url+"/visualizations/"+vizIDs[0], nil, cookies)
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodGet, "/api/dashboards", nil, colleagueCookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var list struct {
		Dashboards []dto.DashboardDTO `json:"dashboards"`
	}
	s.decode(w, &list)
	s.Require().Len(list.Dashboards, 1)

	w = s.doJSON(http.MethodDelete, url, nil, colleagueCookies)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.doJSON(http.MethodDelete, url, nil, cookies)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestSuggestVisualizations_NotConfigured() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	report := s.fx.Report(creator, "sales")
	dashboard := s.fx.Dashboard(org, creator, "Sales")

	w := s.doJSON(http.MethodPost, "/api/dashboards/"+dashboard.ID+"/visualizations/suggest",
		map[string]string{"report_id": report.ID}, s.login(creator))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "AI service is not configured")
}
