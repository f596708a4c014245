package handlers

import (
	"net/http"
	"strings"

	"github.com/yukikurage/report-hub-api/internal/dto"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/tabular"
)

func (s *HandlerTestSuite) TestUploadAndReadReport() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	colleague := s.fx.Member("colleague@acme.test", org)
	outsider := s.fx.Member("outsider@globex.test", s.fx.Organization("Globex"))
	cookies := s.login(owner)

	w := s.upload(cookies, "Sales", "sales.csv", salesCSV)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var report dto.ReportDTO
	s.decode(w, &report)
	s.Equal("Sales", report.Title)
	s.Equal("csv", report.FileType)
	s.Equal(models.LevelOwner, report.Permission)

	colleagueCookies := s.login(colleague)
	w = s.doJSON(http.MethodGet, "/api/reports/"+report.ID, nil, colleagueCookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var got dto.ReportDTO
	s.decode(w, &got)
	s.Equal(models.LevelViewer, got.Permission)
	s.Require().NotNil(got.Owner)
	s.Equal(owner.Email, got.Owner.Email)

	w = s.doJSON(http.MethodGet, "/api/reports/"+report.ID+"/download", nil, colleagueCookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(salesCSV, w.Body.String())
	s.Contains(w.Header().Get("Content-Disposition"), "sales.csv")

	w = s.doJSON(http.MethodGet, "/api/reports/"+report.ID+"/columns", nil, colleagueCookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var columns dto.ColumnsResponse
	s.decode(w, &columns)
	s.Require().Len(columns.Columns, 3)
	s.Equal(tabular.Column{Name: "revenue", Kind: tabular.KindNumeric}, columns.Columns[1])

	w = s.doJSON(http.MethodGet, "/api/reports/"+report.ID, nil, s.login(outsider))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestUploadReport_Rejections() {
	org := s.fx.Organization("Acme")
	cookies := s.login(s.fx.Member("owner@acme.test", org))

	w := s.upload(cookies, "Notes", "notes.txt", "hello")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload(cookies, "", "sales.csv", salesCSV)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload(cookies, "Big", "big.csv", strings.Repeat("x", testMaxUpload+1))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, "/api/reports", map[string]string{"title": "json"}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	s.Zero(s.countReports())
}

func (s *HandlerTestSuite) TestListAndMoveReports() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	folder := s.fx.Folder(org, "Finance")
	report := s.fx.Report(owner, "sales")
	s.fx.Report(owner, "costs")
	cookies := s.login(owner)

	w := s.doJSON(http.MethodPut, "/api/reports/"+report.ID+"/folder", map[string]interface{}{"folder_id": folder.ID}, cookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var list struct {
		Reports []dto.ReportDTO `json:"reports"`
	}
	w = s.doJSON(http.MethodGet, "/api/reports", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Require().Len(list.Reports, 1)
	s.Equal("costs", list.Reports[0].Title)

	w = s.doJSON(http.MethodGet, "/api/reports?folder="+folder.ID, nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Require().Len(list.Reports, 1)
	s.Equal(report.ID, list.Reports[0].ID)

	w = s.doJSON(http.MethodGet, "/api/reports?folder=all&search=SAL", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Require().Len(list.Reports, 1)

	w = s.doJSON(http.MethodGet, "/api/reports?folder=all&type=exe", nil, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPut, "/api/reports/"+report.ID+"/folder", map[string]interface{}{"folder_id": nil}, cookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var moved dto.ReportDTO
	s.decode(w, &moved)
	s.Nil(moved.FolderID)
}

func (s *HandlerTestSuite) TestReportPermissions() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	editor := s.fx.Member("editor@acme.test", org)
	viewer := s.fx.Member("viewer@acme.test", org)
	report := s.fx.Report(owner, "sales")
	url := "/api/reports/" + report.ID + "/permissions"
	cookies := s.login(owner)

	w := s.doJSON(http.MethodPut, url, map[string]interface{}{
		"user_ids":   []string{editor.ID},
		"user_level": "editor",
	}, cookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var grants struct {
		Permissions []dto.GrantDTO `json:"permissions"`
	}
	s.decode(w, &grants)
	s.Len(grants.Permissions, 2)

	w = s.doJSON(http.MethodPut, url, map[string]interface{}{
		"user_ids":   []string{viewer.ID},
		"user_level": "Owner",
	}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPut, url, map[string]interface{}{
		"user_ids":   []string{viewer.ID},
		"user_level": "Superuser",
	}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPut, url, map[string]interface{}{
		"user_ids":   []string{viewer.ID},
		"user_level": "Editor",
	}, s.login(viewer))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.doJSON(http.MethodGet, url, nil, s.login(editor))
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &grants)
	s.Len(grants.Permissions, 2)
}

func (s *HandlerTestSuite) TestDeleteReport() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	editor := s.fx.Member("editor@acme.test", org)
	report := s.fx.Report(owner, "sales")
	s.fx.GrantUser(report, editor, models.LevelEditor)

	w := s.doJSON(http.MethodDelete, "/api/reports/"+report.ID, nil, s.login(editor))
	s.Equal(http.StatusForbidden, w.Code)

	cookies := s.login(owner)
	w = s.doJSON(http.MethodDelete, "/api/reports/"+report.ID, nil, cookies)
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodGet, "/api/reports/"+report.ID, nil, cookies)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestComments() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	viewer := s.fx.Member("viewer@acme.test", org)
	report := s.fx.Report(owner, "sales")
	url := "/api/reports/" + report.ID + "/comments"

	w := s.doJSON(http.MethodPost, url, map[string]string{"text": "me too"}, s.login(viewer))
	s.Equal(http.StatusForbidden, w.Code)

	cookies := s.login(owner)
	w = s.doJSON(http.MethodPost, url, map[string]string{"text": "   "}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	for _, text := range []string{"first", "second"} {
		w = s.doJSON(http.MethodPost, url, map[string]string{"text": text}, cookies)
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}

	var created dto.CommentDTO
	s.decode(w, &created)
	s.Equal(owner.ID, created.Author.ID)

	w = s.doJSON(http.MethodGet, url+"?limit=1", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var list dto.CommentListResponse
	s.decode(w, &list)
	s.Equal(int64(2), list.Pagination.Total)
	s.Equal(1, list.Pagination.Limit)
	s.Len(list.Comments, 1)
}

func (s *HandlerTestSuite) countReports() int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.Report{}).Count(&count).Error)
	return count
}
