package services

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/yukikurage/report-hub-api/internal/models"
)

type fakeCompleter struct {
	content string
	err     error
	calls   int
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
		},
	}, nil
}

func barInput(reportID string) VisualizationInput {
	return VisualizationInput{
		Title: "Revenue by region",
		Type:  "bar",
		Config: models.VisualizationConfig{
			ReportID: reportID,
			X:        "region",
			Y:        "revenue",
		},
	}
}

func (s *ServiceTestSuite) TestShareDashboard_PropagatesWithoutDowngrade() {
	org := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", org)
	owner := s.fx.Member("owner@acme.test", org)
	x := s.fx.Member("x@acme.test", org)

	reportA := s.fx.Report(owner, "a")
	reportB := s.fx.Report(owner, "b")
	s.fx.GrantUser(reportA, x, models.LevelEditor)

	dashboard := s.fx.Dashboard(org, admin, "Sales")
	s.fx.Visualization(dashboard, reportA, 0)
	s.fx.Visualization(dashboard, reportB, 1)
	s.fx.Visualization(dashboard, reportA, 2)

	added, err := s.dashboards.Share(s.ctx, principal(admin), ShareDashboardInput{
		DashboardID: dashboard.ID,
		UserIDs:     []string{x.ID},
		Level:       models.LevelViewer,
	})
	s.Require().NoError(err)
	s.Equal(1, added)

	s.Equal(models.LevelEditor, s.level(x, reportA))
	s.Equal(int64(1), s.count(&models.ReportPermission{}, "report_id = ? AND user_id = ?", reportA.ID, x.ID))
	s.Equal(int64(1), s.count(&models.ReportPermission{}, "report_id = ? AND user_id = ? AND level = ?", reportB.ID, x.ID, models.LevelViewer))

	grants, err := s.dashboards.ListGrants(s.ctx, principal(admin), dashboard.ID)
	s.Require().NoError(err)
	s.Require().Len(grants, 1)
	s.Equal(x.ID, *grants[0].UserID)
	s.Equal(models.LevelViewer, grants[0].Level)

	// sharing again adds nothing on the reports
	added, err = s.dashboards.Share(s.ctx, principal(admin), ShareDashboardInput{
		DashboardID: dashboard.ID,
		UserIDs:     []string{x.ID},
	})
	s.Require().NoError(err)
	s.Zero(added)
}

func (s *ServiceTestSuite) TestShareDashboard_ReplacesRecipients() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	x := s.fx.Member("x@acme.test", org)
	y := s.fx.Member("y@acme.test", org)
	group := s.fx.Group(org, "analysts", y)
	dashboard := s.fx.Dashboard(org, creator, "Sales")

	_, err := s.dashboards.Share(s.ctx, principal(creator), ShareDashboardInput{DashboardID: dashboard.ID, UserIDs: []string{x.ID}})
	s.Require().NoError(err)
	_, err = s.dashboards.Share(s.ctx, principal(creator), ShareDashboardInput{
		DashboardID: dashboard.ID,
		UserIDs:     []string{y.ID},
		GroupIDs:    []string{group.ID},
		Level:       models.LevelEditor,
	})
	s.Require().NoError(err)

	s.Zero(s.count(&models.DashboardPermission{}, "dashboard_id = ? AND user_id = ?", dashboard.ID, x.ID))
	s.Equal(int64(1), s.count(&models.DashboardPermission{}, "dashboard_id = ? AND user_id = ?", dashboard.ID, y.ID))
	s.Equal(int64(1), s.count(&models.DashboardPermission{}, "dashboard_id = ? AND group_id = ?", dashboard.ID, group.ID))

	_, err = s.dashboards.Get(s.ctx, principal(x), dashboard.ID)
	s.ErrorIs(err, ErrDashboardNotFound)
	_, err = s.dashboards.Get(s.ctx, principal(y), dashboard.ID)
	s.NoError(err)
}

func (s *ServiceTestSuite) TestShareDashboard_Rejections() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	viewer := s.fx.Member("viewer@acme.test", org)
	outsider := s.fx.Member("outsider@globex.test", s.fx.Organization("Globex"))
	dashboard := s.fx.Dashboard(org, creator, "Sales")
	s.fx.ShareDashboardWithUser(dashboard, viewer, models.LevelViewer)

	_, err := s.dashboards.Share(s.ctx, principal(creator), ShareDashboardInput{DashboardID: "missing", UserIDs: []string{viewer.ID}})
	s.ErrorIs(err, ErrDashboardNotFound)

	_, err = s.dashboards.Share(s.ctx, principal(viewer), ShareDashboardInput{DashboardID: dashboard.ID})
	s.ErrorIs(err, ErrDashboardAccessDenied)

	_, err = s.dashboards.Share(s.ctx, principal(creator), ShareDashboardInput{
		DashboardID: dashboard.ID, UserIDs: []string{viewer.ID}, Level: models.LevelCommenter,
	})
	s.ErrorIs(err, ErrInvalidLevel)

	_, err = s.dashboards.Share(s.ctx, principal(creator), ShareDashboardInput{
		DashboardID: dashboard.ID, UserIDs: []string{outsider.ID},
	})
	s.ErrorIs(err, ErrForeignPrincipal)

	// the original grant survived every failed attempt
	s.Equal(int64(1), s.count(&models.DashboardPermission{}, "dashboard_id = ?", dashboard.ID))
}

func (s *ServiceTestSuite) TestCreateDashboard() {
	org := s.fx.Organization("Acme")
	user := s.fx.Member("user@acme.test", org)

	dashboard, err := s.dashboards.Create(s.ctx, principal(user), CreateDashboardInput{Name: "  Sales  "})
	s.Require().NoError(err)
	s.Equal("Sales", dashboard.Name)
	s.Equal("No description provided", dashboard.Description)
	s.True(dashboard.IsCreator(user.ID))

	_, err = s.dashboards.Create(s.ctx, principal(user), CreateDashboardInput{Name: "Sales"})
	s.ErrorIs(err, ErrDashboardExists)

	_, err = s.dashboards.Create(s.ctx, principal(user), CreateDashboardInput{Name: " "})
	s.ErrorIs(err, ErrNameRequired)

	// names are unique per organization only
	other := s.fx.Member("user@globex.test", s.fx.Organization("Globex"))
	_, err = s.dashboards.Create(s.ctx, principal(other), CreateDashboardInput{Name: "Sales"})
	s.NoError(err)
}

func (s *ServiceTestSuite) TestListDashboards() {
	org := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", org)
	creator := s.fx.Member("creator@acme.test", org)
	user := s.fx.Member("user@acme.test", org)

	mine := s.fx.Dashboard(org, creator, "Mine")
	shared := s.fx.Dashboard(org, creator, "Shared")
	s.fx.Dashboard(org, creator, "Private")
	s.fx.ShareDashboardWithGroup(shared, s.fx.Group(org, "readers", user), models.LevelViewer)

	list, err := s.dashboards.List(s.ctx, principal(user))
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(shared.ID, list[0].ID)

	list, err = s.dashboards.List(s.ctx, principal(creator))
	s.Require().NoError(err)
	s.Len(list, 3)

	list, err = s.dashboards.List(s.ctx, principal(admin))
	s.Require().NoError(err)
	s.Len(list, 3)
	s.NotEmpty(mine.ID)
}

func (s *ServiceTestSuite) TestDeleteDashboard() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	editor := s.fx.Member("editor@acme.test", org)
	admin := s.fx.Admin("admin@acme.test", org)
	dashboard := s.fx.Dashboard(org, creator, "Sales")
	s.fx.ShareDashboardWithUser(dashboard, editor, models.LevelEditor)

	s.ErrorIs(s.dashboards.Delete(s.ctx, principal(editor), dashboard.ID), ErrDashboardAccessDenied)
	s.Require().NoError(s.dashboards.Delete(s.ctx, principal(admin), dashboard.ID))
	s.Zero(s.count(&models.DashboardPermission{}, "dashboard_id = ?", dashboard.ID))
	s.ErrorIs(s.dashboards.Delete(s.ctx, principal(creator), dashboard.ID), ErrDashboardNotFound)
}

func (s *ServiceTestSuite) TestAddVisualization_AppendsAndValidates() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	report := s.csvReport(creator, "sales")
	dashboard := s.fx.Dashboard(org, creator, "Sales")

	first, err := s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, barInput(report.ID))
	s.Require().NoError(err)
	s.Equal(0, first.Position)
	s.Equal(models.ChartBar, first.Type)

	pie := VisualizationInput{
		Title: "Share",
		Type:  "Pie",
		Config: models.VisualizationConfig{
			ReportID: report.ID,
			Names:    "region",
			Values:   "units",
			Filters: map[string]models.Filter{
				"revenue": {Range: &[2]float64{0, 100}},
				"region":  {Values: []string{"north"}},
			},
		},
	}
	second, err := s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, pie)
	s.Require().NoError(err)
	s.Equal(1, second.Position)

	unknown := barInput(report.ID)
	unknown.Config.Y = "profit"
	_, err = s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, unknown)
	s.ErrorIs(err, ErrUnknownColumn)

	badRange := barInput(report.ID)
	badRange.Config.Filters = map[string]models.Filter{"region": {Range: &[2]float64{1, 2}}}
	_, err = s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, badRange)
	s.ErrorIs(err, ErrNonNumericRange)

	incomplete := VisualizationInput{Title: "t", Type: "Pie", Config: models.VisualizationConfig{ReportID: report.ID, Names: "region"}}
	_, err = s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, incomplete)
	s.ErrorIs(err, ErrInvalidVisualization)
	s.ErrorIs(err, ErrValidation)

	badType := barInput(report.ID)
	badType.Type = "Radar"
	_, err = s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, badType)
	s.ErrorIs(err, ErrInvalidVisualization)

	s.Equal(int64(2), s.count(&models.Visualization{}, "dashboard_id = ?", dashboard.ID))
}

func (s *ServiceTestSuite) TestAddVisualization_SourceReportRules() {
	acme := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", acme)
	viewer := s.fx.Member("viewer@acme.test", acme)
	dashboard := s.fx.Dashboard(acme, creator, "Sales")
	s.fx.ShareDashboardWithUser(dashboard, viewer, models.LevelViewer)

	foreignOwner := s.fx.Member("owner@globex.test", s.fx.Organization("Globex"))
	foreign := s.csvReport(foreignOwner, "foreign")
	s.fx.GrantUser(foreign, creator, models.LevelViewer)
	_, err := s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, barInput(foreign.ID))
	s.ErrorIs(err, ErrCrossOrganizationData)

	pdf := &models.Report{Title: "deck", Filename: "deck.pdf", FilePath: "x/deck.pdf", OwnerID: creator.ID, OrganizationID: acme.ID}
	s.Require().NoError(s.db.Create(pdf).Error)
	_, err = s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, barInput(pdf.ID))
	s.ErrorIs(err, ErrNotTabular)

	_, err = s.dashboards.AddVisualization(s.ctx, principal(creator), dashboard.ID, barInput("missing"))
	s.ErrorIs(err, ErrReportNotFound)

	report := s.csvReport(creator, "sales")
	_, err = s.dashboards.AddVisualization(s.ctx, principal(viewer), dashboard.ID, barInput(report.ID))
	s.ErrorIs(err, ErrDashboardAccessDenied)
}

func (s *ServiceTestSuite) TestUpdateVisualization() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	report := s.csvReport(creator, "sales")
	dashboard := s.fx.Dashboard(org, creator, "Sales")
	viz := s.fx.Visualization(dashboard, report, 0)

	input := VisualizationInput{
		Title:  "Table",
		Type:   "Table",
		Config: models.VisualizationConfig{ReportID: report.ID, Columns: []string{"region", "units"}},
	}
	updated, err := s.dashboards.UpdateVisualization(s.ctx, principal(creator), dashboard.ID, viz.ID, input)
	s.Require().NoError(err)
	s.Equal(models.ChartTable, updated.Type)

	reloaded, err := s.dashboards.Get(s.ctx, principal(creator), dashboard.ID)
	s.Require().NoError(err)
	s.Require().Len(reloaded.Visualizations, 1)
	s.Equal("Table", reloaded.Visualizations[0].Title)
	s.Equal([]string{"region", "units"}, reloaded.Visualizations[0].Config.Data().Columns)

	_, err = s.dashboards.UpdateVisualization(s.ctx, principal(creator), dashboard.ID, "missing", input)
	s.ErrorIs(err, ErrVisualizationNotFound)
}

func (s *ServiceTestSuite) TestReorderAndDeleteVisualizations() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	report := s.csvReport(creator, "sales")
	dashboard := s.fx.Dashboard(org, creator, "Sales")
	a := s.fx.Visualization(dashboard, report, 0)
	b := s.fx.Visualization(dashboard, report, 1)
	c := s.fx.Visualization(dashboard, report, 2)

	_, err := s.dashboards.ReorderVisualizations(s.ctx, principal(creator), dashboard.ID, []string{c.ID, a.ID})
	s.ErrorIs(err, ErrInvalidOrder)
	_, err = s.dashboards.ReorderVisualizations(s.ctx, principal(creator), dashboard.ID, []string{c.ID, a.ID, a.ID})
	s.ErrorIs(err, ErrInvalidOrder)

	reordered, err := s.dashboards.ReorderVisualizations(s.ctx, principal(creator), dashboard.ID, []string{c.ID, a.ID, b.ID})
	s.Require().NoError(err)
	s.Require().Len(reordered.Visualizations, 3)
	s.Equal([]string{c.ID, a.ID, b.ID}, vizIDs(reordered.Visualizations))

	s.Require().NoError(s.dashboards.DeleteVisualization(s.ctx, principal(creator), dashboard.ID, a.ID))
	s.ErrorIs(s.dashboards.DeleteVisualization(s.ctx, principal(creator), dashboard.ID, a.ID), ErrVisualizationNotFound)

	after, err := s.dashboards.Get(s.ctx, principal(creator), dashboard.ID)
	s.Require().NoError(err)
	s.Equal([]string{c.ID, b.ID}, vizIDs(after.Visualizations))
	for i, v := range after.Visualizations {
		s.Equal(i, v.Position)
	}
}

func (s *ServiceTestSuite) TestSuggestVisualizations() {
	org := s.fx.Organization("Acme")
	creator := s.fx.Member("creator@acme.test", org)
	report := s.csvReport(creator, "sales")
	dashboard := s.fx.Dashboard(org, creator, "Sales")

	_, err := s.dashboards.SuggestVisualizations(s.ctx, principal(creator), dashboard.ID, report.ID)
	s.ErrorIs(err, ErrAIServiceNotConfigured)

	fake := &fakeCompleter{content: "```json\n" + `{"visualizations": [
		{"title": "Revenue", "type": "bar", "config": {"x": "region", "y": "revenue"}},
		{"title": "Profit", "type": "Line", "config": {"x": "region", "y": "profit"}},
		{"title": "Radar", "type": "Radar", "config": {"x": "region", "y": "units"}},
		{"title": "", "type": "Pie", "config": {"names": "region", "values": "units"}}
	]}` + "\n```"}
	s.dashboards.ai = &AIService{client: fake, model: openai.GPT4o}

	suggestions, err := s.dashboards.SuggestVisualizations(s.ctx, principal(creator), dashboard.ID, report.ID)
	s.Require().NoError(err)
	s.Require().Len(suggestions, 2)
	s.Equal("Bar", suggestions[0].Type)
	s.Equal(report.ID, suggestions[0].Config.ReportID)
	s.Equal("sales Pie", suggestions[1].Title)

	fake.content = `{"visualizations": [{"title": "x", "type": "Bar", "config": {"x": "nope", "y": "revenue"}}]}`
	_, err = s.dashboards.SuggestVisualizations(s.ctx, principal(creator), dashboard.ID, report.ID)
	s.ErrorIs(err, ErrAINoSuggestions)

	fake.err = errors.New("rate limited")
	_, err = s.dashboards.SuggestVisualizations(s.ctx, principal(creator), dashboard.ID, report.ID)
	s.Error(err)
	s.NotErrorIs(err, ErrValidation)
}

func vizIDs(visualizations []models.Visualization) []string {
	ids := make([]string, len(visualizations))
	for i, v := range visualizations {
		ids[i] = v.ID
	}
	return ids
}
