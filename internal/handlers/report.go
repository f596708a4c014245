package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/report-hub-api/internal/dto"
	apierrors "github.com/yukikurage/report-hub-api/internal/errors"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/services"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

// multipartOverhead is the room left for form fields around the uploaded file
const multipartOverhead = 1 << 20

// allFolders is the folder query value that lists reports of every folder
const allFolders = "all"

// ReportHandler serves reports, their grants and their comments
type ReportHandler struct {
	reportService     *services.ReportService
	permissionService *services.PermissionService
	commentService    *services.CommentService
	maxUpload         int64
	log               zerolog.Logger
}

func NewReportHandler(
	reportService *services.ReportService,
	permissionService *services.PermissionService,
	commentService *services.CommentService,
	maxUpload int64,
	log zerolog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService:     reportService,
		permissionService: permissionService,
		commentService:    commentService,
		maxUpload:         maxUpload,
		log:               log,
	}
}

// MoveReportRequest moves a report; a null folder_id moves it to the root
type MoveReportRequest struct {
	FolderID *string `json:"folder_id"`
}

type SavePermissionsRequest struct {
	UserIDs    []string `json:"user_ids"`
	UserLevel  string   `json:"user_level"`
	GroupIDs   []string `json:"group_ids"`
	GroupLevel string   `json:"group_level"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListReports returns the reports visible to the caller.
// folder selects a folder id, "all" for every folder, or the root when omitted.
func (h *ReportHandler) ListReports(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	input := services.ListReportsInput{
		Search:      c.Query("search"),
		Extension:   c.Query("type"),
		OldestFirst: c.Query("sort") == "oldest",
	}
	switch folder := c.Query("folder"); folder {
	case allFolders:
		input.AllFolders = true
	default:
		input.FolderID = folder
	}

	reports, err := h.reportService.List(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": dto.ToReportDTOs(reports)})
}

// UploadReport stores a multipart file as a new report owned by the caller
func (h *ReportHandler) UploadReport(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			apierrors.PayloadTooLarge(c, "")
		case errors.Is(err, http.ErrMissingFile):
			respondServiceError(c, h.log, services.ErrFileRequired)
		default:
			apierrors.BadRequest(c, "Invalid multipart form")
		}
		return
	}

	file, err := header.Open()
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	defer file.Close()

	input := services.UploadReportInput{
		Title:       c.PostForm("title"),
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
	if folderID := strings.TrimSpace(c.PostForm("folder_id")); folderID != "" {
		input.FolderID = &folderID
	}

	report, err := h.reportService.Upload(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := dto.ToReportDTO(*report)
	out.Permission = models.LevelOwner
	c.JSON(http.StatusCreated, out)
}

// GetReport returns a report with the caller's effective level
func (h *ReportHandler) GetReport(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	report, level, err := h.reportService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := dto.ToReportDTO(*report)
	out.Permission = level
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) DownloadReport(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	report, content, err := h.reportService.Open(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	defer content.Close()

	contentType := mime.TypeByExtension(filepath.Ext(report.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, content, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename}),
	})
}

// MoveReport files a report into a folder of its organization
func (h *ReportHandler) MoveReport(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req MoveReportRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}

	report, err := h.reportService.Move(c.Request.Context(), actor, c.Param("id"), req.FolderID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToReportDTO(*report))
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}

func (h *ReportHandler) ListPermissions(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	grants, err := h.permissionService.ListReportGrants(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": dto.ToReportGrantDTOs(grants)})
}

// SavePermissions replaces the non-Owner grants of a report
func (h *ReportHandler) SavePermissions(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req SavePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	userLevel, err := parseLevel(req.UserLevel)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	groupLevel, err := parseLevel(req.GroupLevel)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	grants, err := h.permissionService.SavePermissions(c.Request.Context(), actor, services.SavePermissionsInput{
		ReportID:   c.Param("id"),
		UserIDs:    req.UserIDs,
		UserLevel:  userLevel,
		GroupIDs:   req.GroupIDs,
		GroupLevel: groupLevel,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": dto.ToReportGrantDTOs(grants)})
}

// ListColumns returns the inferred columns of a tabular report
func (h *ReportHandler) ListColumns(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	schema, err := h.reportService.Columns(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ColumnsResponse{Columns: schema.Columns})
}

func (h *ReportHandler) ListComments(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	comments, total, err := h.commentService.List(c.Request.Context(), actor, c.Param("id"), params)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.CommentListResponse{
		Comments: dto.ToCommentDTOs(comments),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

func (h *ReportHandler) CreateComment(c *gin.Context) {
	actor, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Add(c.Request.Context(), actor, c.Param("id"), req.Text)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// parseLevel accepts any casing; empty stays empty
func parseLevel(s string) (models.PermissionLevel, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	level, err := models.ParsePermissionLevel(s)
	if err != nil {
		return "", services.ErrInvalidLevel
	}
	return level, nil
}
