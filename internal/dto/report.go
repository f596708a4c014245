package dto

import (
	"time"

	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/tabular"
	"github.com/yukikurage/report-hub-api/internal/utils"
)

type FolderDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReportDTO represents a report in API responses.
// Permission is the caller's effective level and is only set on single-report reads.
type ReportDTO struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Filename       string                 `json:"filename"`
	FileType       string                 `json:"file_type"`
	OwnerID        string                 `json:"owner_id"`
	Owner          *UserDTO               `json:"owner,omitempty"`
	OrganizationID string                 `json:"organization_id"`
	FolderID       *string                `json:"folder_id"`
	Permission     models.PermissionLevel `json:"permission,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// GrantDTO is one report or dashboard grant
type GrantDTO struct {
	ID      string                 `json:"id"`
	UserID  *string                `json:"user_id,omitempty"`
	GroupID *string                `json:"group_id,omitempty"`
	Level   models.PermissionLevel `json:"level"`
}

type CommentDTO struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Text      string    `json:"text"`
	Author    UserDTO   `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentListResponse represents a paginated list of comments, newest first
type CommentListResponse struct {
	Comments   []CommentDTO             `json:"comments"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

type ColumnsResponse struct {
	Columns []tabular.Column `json:"columns"`
}

func ToFolderDTO(folder models.Folder) FolderDTO {
	return FolderDTO{
		ID:             folder.ID,
		Name:           folder.Name,
		OrganizationID: folder.OrganizationID,
		CreatedAt:      folder.CreatedAt,
	}
}

func ToFolderDTOs(folders []models.Folder) []FolderDTO {
	out := make([]FolderDTO, len(folders))
	for i, f := range folders {
		out[i] = ToFolderDTO(f)
	}
	return out
}

func ToReportDTO(report models.Report) ReportDTO {
	out := ReportDTO{
		ID:             report.ID,
		Title:          report.Title,
		Filename:       report.Filename,
		FileType:       report.Extension(),
		OwnerID:        report.OwnerID,
		OrganizationID: report.OrganizationID,
		FolderID:       report.FolderID,
		CreatedAt:      report.CreatedAt,
		UpdatedAt:      report.UpdatedAt,
	}
	if report.Owner.ID != "" {
		owner := ToUserDTO(report.Owner)
		out.Owner = &owner
	}
	return out
}

func ToReportDTOs(reports []models.Report) []ReportDTO {
	out := make([]ReportDTO, len(reports))
	for i, r := range reports {
		out[i] = ToReportDTO(r)
	}
	return out
}

func ToReportGrantDTOs(grants []models.ReportPermission) []GrantDTO {
	out := make([]GrantDTO, len(grants))
	for i, g := range grants {
		out[i] = GrantDTO{ID: g.ID, UserID: g.UserID, GroupID: g.GroupID, Level: g.Level}
	}
	return out
}

func ToDashboardGrantDTOs(grants []models.DashboardPermission) []GrantDTO {
	out := make([]GrantDTO, len(grants))
	for i, g := range grants {
		out[i] = GrantDTO{ID: g.ID, UserID: g.UserID, GroupID: g.GroupID, Level: g.Level}
	}
	return out
}

// ToCommentDTO expects User to be preloaded
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		ReportID:  comment.ReportID,
		Text:      comment.Text,
		Author:    ToUserDTO(comment.User),
		CreatedAt: comment.CreatedAt,
	}
}

func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = ToCommentDTO(c)
	}
	return out
}
