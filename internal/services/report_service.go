package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/metrics"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/storage"
	"github.com/yukikurage/report-hub-api/internal/tabular"
)

// ReportService handles uploaded reports and their files
type ReportService struct {
	reportRepo repository.ReportRepository
	folderRepo repository.FolderRepository
	userRepo   repository.UserRepository
	perms      *PermissionService
	blobs      storage.BlobStore
	maxUpload  int64
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func NewReportService(
	reportRepo repository.ReportRepository,
	folderRepo repository.FolderRepository,
	userRepo repository.UserRepository,
	perms *PermissionService,
	blobs storage.BlobStore,
	maxUpload int64,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		folderRepo: folderRepo,
		userRepo:   userRepo,
		perms:      perms,
		blobs:      blobs,
		maxUpload:  maxUpload,
		metrics:    m,
		log:        log,
	}
}

type UploadReportInput struct {
	Title       string
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
	FolderID    *string
}

// ListReportsInput selects which reports are listed. An empty FolderID lists the root.
type ListReportsInput struct {
	FolderID    string
	AllFolders  bool
	Search      string
	Extension   string
	OldestFirst bool
}

// Upload stores the file and creates the report with the uploader's Owner grant
func (s *ReportService) Upload(ctx context.Context, actor access.Principal, input UploadReportInput) (*models.Report, error) {
	if actor.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Content == nil || strings.TrimSpace(input.Filename) == "" || input.Size <= 0 {
		return nil, ErrFileRequired
	}
	if s.maxUpload > 0 && input.Size > s.maxUpload {
		return nil, ErrFileTooLarge
	}

	report := &models.Report{
		ID:             uuid.NewString(),
		Title:          title,
		Filename:       strings.TrimSpace(input.Filename),
		OwnerID:        actor.UserID,
		OrganizationID: *actor.OrganizationID,
	}
	if !models.AllowedReportExtensions[report.Extension()] {
		return nil, ErrUnsupportedFileType
	}

	if input.FolderID != nil && *input.FolderID != "" {
		folder, err := s.orgFolder(ctx, *input.FolderID, report.OrganizationID)
		if err != nil {
			return nil, err
		}
		report.FolderID = &folder.ID
	}

	report.FilePath = storage.Key(report.OrganizationID, report.ID, report.Filename)
	if err := s.blobs.Put(ctx, report.FilePath, input.Content, input.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store report file: %w", err)
	}

	if err := s.reportRepo.CreateWithOwner(ctx, report); err != nil {
		if delErr := s.blobs.Delete(ctx, report.FilePath); delErr != nil {
			s.log.Warn().Err(delErr).Str("path", report.FilePath).Msg("Failed to remove orphaned report file")
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.metrics.ReportUploaded(input.Size)
	s.log.Info().
		Str("report_id", report.ID).
		Str("owner_id", report.OwnerID).
		Str("filename", report.Filename).
		Int64("size", input.Size).
		Msg("Report uploaded")
	return report, nil
}

// List returns the reports visible to the actor
func (s *ReportService) List(ctx context.Context, actor access.Principal, input ListReportsInput) ([]models.Report, error) {
	groupIDs, err := s.userRepo.GroupIDs(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	filter := repository.ReportFilter{
		UserID:         actor.UserID,
		OrganizationID: actor.OrganizationID,
		GroupIDs:       groupIDs,
		Search:         input.Search,
		OldestFirst:    input.OldestFirst,
	}

	if ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(input.Extension)), "."); ext != "" {
		if !models.AllowedReportExtensions[ext] {
			return nil, ErrUnsupportedFileType
		}
		filter.Extension = ext
	}

	switch {
	case input.AllFolders:
	case input.FolderID == "":
		filter.RootOnly = true
	default:
		if actor.OrganizationID == nil {
			return nil, ErrFolderNotFound
		}
		folder, err := s.orgFolder(ctx, input.FolderID, *actor.OrganizationID)
		if err != nil {
			if errors.Is(err, ErrForeignFolder) {
				return nil, ErrFolderNotFound
			}
			return nil, err
		}
		filter.FolderID = &folder.ID
	}

	reports, err := s.reportRepo.ListVisible(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Get returns a report with the actor's effective level on it
func (s *ReportService) Get(ctx context.Context, actor access.Principal, reportID string) (*models.Report, models.PermissionLevel, error) {
	return s.perms.LoadReport(ctx, actor, reportID, models.LevelViewer)
}

// Open returns the stored file of a report for download. The caller closes it.
func (s *ReportService) Open(ctx context.Context, actor access.Principal, reportID string) (*models.Report, io.ReadCloser, error) {
	report, _, err := s.perms.LoadReport(ctx, actor, reportID, models.LevelViewer)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(ctx, report.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, ErrReportFileMissing
		}
		return nil, nil, fmt.Errorf("failed to open report file: %w", err)
	}
	return report, rc, nil
}

// Move puts the report into a folder of its organization, or the root when folderID is nil
func (s *ReportService) Move(ctx context.Context, actor access.Principal, reportID string, folderID *string) (*models.Report, error) {
	report, _, err := s.perms.LoadReport(ctx, actor, reportID, models.LevelEditor)
	if err != nil {
		return nil, err
	}

	var target *string
	if folderID != nil && *folderID != "" {
		folder, err := s.orgFolder(ctx, *folderID, report.OrganizationID)
		if err != nil {
			return nil, err
		}
		target = &folder.ID
	}

	if err := s.reportRepo.UpdateFolder(ctx, report.ID, target); err != nil {
		return nil, fmt.Errorf("failed to move report: %w", err)
	}
	report.FolderID = target
	return report, nil
}

// Delete removes a report with its grants and comments. Only the Owner may do this.
func (s *ReportService) Delete(ctx context.Context, actor access.Principal, reportID string) error {
	report, _, err := s.perms.LoadReport(ctx, actor, reportID, models.LevelOwner)
	if err != nil {
		return err
	}

	if err := s.reportRepo.Delete(ctx, report.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}

	removeBlobs(ctx, s.blobs, s.log, []string{report.FilePath})
	s.log.Info().Str("report_id", report.ID).Str("actor_id", actor.UserID).Msg("Report deleted")
	return nil
}

// Columns returns the column layout of a tabular report
func (s *ReportService) Columns(ctx context.Context, actor access.Principal, reportID string) (*tabular.Schema, error) {
	report, _, err := s.perms.LoadReport(ctx, actor, reportID, models.LevelViewer)
	if err != nil {
		return nil, err
	}
	return loadSchema(ctx, s.blobs, report)
}

// orgFolder finds a folder and checks it belongs to orgID
func (s *ReportService) orgFolder(ctx context.Context, folderID, orgID string) (*models.Folder, error) {
	folder, err := s.folderRepo.FindByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}
	if folder.OrganizationID != orgID {
		return nil, ErrForeignFolder
	}
	return folder, nil
}

// loadSchema reads the columns of a tabular report from the blob store
func loadSchema(ctx context.Context, blobs storage.BlobStore, report *models.Report) (*tabular.Schema, error) {
	if !report.IsTabular() {
		return nil, ErrNotTabular
	}

	rc, err := blobs.Open(ctx, report.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, ErrReportFileMissing
		}
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer rc.Close()

	schema, err := tabular.ReadCSV(rc, tabular.DefaultSampleRows)
	if err != nil {
		var parseErr *csv.ParseError
		if errors.Is(err, tabular.ErrEmptyFile) || errors.Is(err, tabular.ErrDuplicateColumn) || errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %w", ErrNotTabular, err)
		}
		return nil, fmt.Errorf("failed to read report columns: %w", err)
	}
	return schema, nil
}
