package services

import (
	"io"
	"strings"

	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/storage"
	"github.com/yukikurage/report-hub-api/internal/tabular"
)

func uploadInput(title, filename, content string) UploadReportInput {
	return UploadReportInput{
		Title:       title,
		Filename:    filename,
		Size:        int64(len(content)),
		ContentType: "text/csv",
		Content:     strings.NewReader(content),
	}
}

func (s *ServiceTestSuite) TestUpload_StoresFileAndOwnerGrant() {
	org := s.fx.Organization("Acme")
	user := s.fx.Member("user@acme.test", org)
	folder := s.fx.Folder(org, "Finance")

	input := uploadInput("  Sales  ", "sales.CSV", salesCSV)
	input.FolderID = &folder.ID
	report, err := s.reports.Upload(s.ctx, principal(user), input)
	s.Require().NoError(err)

	s.Equal("Sales", report.Title)
	s.Equal(folder.ID, *report.FolderID)
	s.Equal(storage.Key(org.ID, report.ID, "sales.CSV"), report.FilePath)
	s.Equal(int64(1), s.count(&models.ReportPermission{}, "report_id = ? AND user_id = ? AND level = ?", report.ID, user.ID, models.LevelOwner))

	content, err := s.readBlob(report.FilePath)
	s.Require().NoError(err)
	s.Equal(salesCSV, content)
}

func (s *ServiceTestSuite) TestUpload_Rejections() {
	acme := s.fx.Organization("Acme")
	user := s.fx.Member("user@acme.test", acme)
	foreignFolder := s.fx.Folder(s.fx.Organization("Globex"), "Secret")

	_, err := s.reports.Upload(s.ctx, principal(user), uploadInput("Notes", "notes.txt", "hello"))
	s.ErrorIs(err, ErrUnsupportedFileType)

	_, err = s.reports.Upload(s.ctx, principal(user), uploadInput("", "a.csv", salesCSV))
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.reports.Upload(s.ctx, principal(user), uploadInput("Empty", "a.csv", ""))
	s.ErrorIs(err, ErrFileRequired)

	big := uploadInput("Big", "big.csv", "x")
	big.Size = testMaxUpload + 1
	_, err = s.reports.Upload(s.ctx, principal(user), big)
	s.ErrorIs(err, ErrFileTooLarge)

	misplaced := uploadInput("Sales", "sales.csv", salesCSV)
	misplaced.FolderID = &foreignFolder.ID
	_, err = s.reports.Upload(s.ctx, principal(user), misplaced)
	s.ErrorIs(err, ErrForeignFolder)

	superadmin := s.fx.Superadmin("root@example.test")
	_, err = s.reports.Upload(s.ctx, principal(superadmin), uploadInput("Sales", "sales.csv", salesCSV))
	s.ErrorIs(err, ErrNoOrganization)

	s.Zero(s.count(&models.Report{}, "1 = 1"))
}

func (s *ServiceTestSuite) TestListReports_FoldersAndVisibility() {
	acme := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", acme)
	colleague := s.fx.Member("colleague@acme.test", acme)
	outsider := s.fx.Member("outsider@globex.test", s.fx.Organization("Globex"))
	folder := s.fx.Folder(acme, "Finance")

	root := s.fx.Report(owner, "root")
	filed := s.fx.Report(owner, "filed")
	s.Require().NoError(s.db.Model(filed).Update("folder_id", folder.ID).Error)

	list, err := s.reports.List(s.ctx, principal(colleague), ListReportsInput{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(root.ID, list[0].ID)

	list, err = s.reports.List(s.ctx, principal(colleague), ListReportsInput{FolderID: folder.ID})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(filed.ID, list[0].ID)

	list, err = s.reports.List(s.ctx, principal(colleague), ListReportsInput{AllFolders: true, Search: "FIL"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(filed.ID, list[0].ID)

	list, err = s.reports.List(s.ctx, principal(outsider), ListReportsInput{AllFolders: true})
	s.Require().NoError(err)
	s.Empty(list)

	s.fx.GrantUser(root, outsider, models.LevelViewer)
	list, err = s.reports.List(s.ctx, principal(outsider), ListReportsInput{AllFolders: true, Extension: ".csv"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(root.ID, list[0].ID)

	_, err = s.reports.List(s.ctx, principal(outsider), ListReportsInput{FolderID: folder.ID})
	s.ErrorIs(err, ErrFolderNotFound)

	_, err = s.reports.List(s.ctx, principal(colleague), ListReportsInput{Extension: "exe"})
	s.ErrorIs(err, ErrUnsupportedFileType)
}

func (s *ServiceTestSuite) TestGetAndOpenReport() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	colleague := s.fx.Member("colleague@acme.test", org)
	outsider := s.fx.Member("outsider@globex.test", s.fx.Organization("Globex"))
	report := s.csvReport(owner, "sales")

	got, level, err := s.reports.Get(s.ctx, principal(colleague), report.ID)
	s.Require().NoError(err)
	s.Equal(report.ID, got.ID)
	s.Equal(models.LevelViewer, level)

	_, _, err = s.reports.Get(s.ctx, principal(outsider), report.ID)
	s.ErrorIs(err, ErrReportNotFound)

	_, rc, err := s.reports.Open(s.ctx, principal(colleague), report.ID)
	s.Require().NoError(err)
	data, err := io.ReadAll(rc)
	s.Require().NoError(rc.Close())
	s.Require().NoError(err)
	s.Equal(salesCSV, string(data))

	missing := s.fx.Report(owner, "nofile")
	_, _, err = s.reports.Open(s.ctx, principal(owner), missing.ID)
	s.ErrorIs(err, ErrReportFileMissing)
}

func (s *ServiceTestSuite) TestMoveReport() {
	acme := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", acme)
	editor := s.fx.Member("editor@acme.test", acme)
	viewer := s.fx.Member("viewer@acme.test", acme)
	folder := s.fx.Folder(acme, "Finance")
	foreignFolder := s.fx.Folder(s.fx.Organization("Globex"), "Secret")
	report := s.fx.Report(owner, "sales")
	s.fx.GrantUser(report, editor, models.LevelEditor)

	_, err := s.reports.Move(s.ctx, principal(viewer), report.ID, &folder.ID)
	s.ErrorIs(err, ErrInsufficientPermission)

	_, err = s.reports.Move(s.ctx, principal(editor), report.ID, &foreignFolder.ID)
	s.ErrorIs(err, ErrForeignFolder)

	moved, err := s.reports.Move(s.ctx, principal(editor), report.ID, &folder.ID)
	s.Require().NoError(err)
	s.Equal(folder.ID, *moved.FolderID)

	moved, err = s.reports.Move(s.ctx, principal(owner), report.ID, nil)
	s.Require().NoError(err)
	s.Nil(moved.FolderID)
	s.Equal(int64(1), s.count(&models.Report{}, "id = ? AND folder_id IS NULL", report.ID))
}

func (s *ServiceTestSuite) TestDeleteReport_OwnerOnly() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	editor := s.fx.Member("editor@acme.test", org)
	report := s.csvReport(owner, "sales")
	s.fx.GrantUser(report, editor, models.LevelEditor)
	_, err := s.comments.Add(s.ctx, principal(editor), report.ID, "first")
	s.Require().NoError(err)

	s.ErrorIs(s.reports.Delete(s.ctx, principal(editor), report.ID), ErrInsufficientPermission)

	s.Require().NoError(s.reports.Delete(s.ctx, principal(owner), report.ID))
	s.Zero(s.count(&models.Report{}, "id = ?", report.ID))
	s.Zero(s.count(&models.ReportPermission{}, "report_id = ?", report.ID))
	s.Zero(s.count(&models.Comment{}, "report_id = ?", report.ID))

	_, err = s.readBlob(report.FilePath)
	s.ErrorIs(err, storage.ErrBlobNotFound)
}

func (s *ServiceTestSuite) TestReportColumns() {
	org := s.fx.Organization("Acme")
	owner := s.fx.Member("owner@acme.test", org)
	report := s.csvReport(owner, "sales")

	schema, err := s.reports.Columns(s.ctx, principal(owner), report.ID)
	s.Require().NoError(err)
	s.Equal([]string{"region", "revenue", "units"}, schema.Names())

	region, ok := schema.Column("region")
	s.Require().True(ok)
	s.Equal(tabular.KindCategorical, region.Kind)
	revenue, _ := schema.Column("revenue")
	s.Equal(tabular.KindNumeric, revenue.Kind)

	empty := s.fx.Report(owner, "empty")
	s.storeFile(empty, "")
	_, err = s.reports.Columns(s.ctx, principal(owner), empty.ID)
	s.ErrorIs(err, ErrNotTabular)
}
