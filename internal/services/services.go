package services

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/metrics"
	"github.com/yukikurage/report-hub-api/internal/repository"
	"github.com/yukikurage/report-hub-api/internal/storage"
)

// Options are the tunables services read from configuration
type Options struct {
	InviteTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	MaxUploadSize  int64
}

// Services bundles every service over one database and blob store
type Services struct {
	Auth          *AuthService
	Invites       *InviteService
	Organizations *OrganizationService
	Users         *UserService
	Groups        *GroupService
	Folders       *FolderService
	Permissions   *PermissionService
	Reports       *ReportService
	Comments      *CommentService
	Dashboards    *DashboardService
}

// New wires the repositories and services. ai may be nil.
func New(db *gorm.DB, blobs storage.BlobStore, ai *AIService, opts Options, m *metrics.Metrics, log zerolog.Logger) *Services {
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	reportRepo := repository.NewReportRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	invites := NewInviteService(userRepo, orgRepo, opts.InviteTokenTTL)
	perms := NewPermissionService(userRepo, groupRepo, permRepo, reportRepo, m)

	return &Services{
		Auth:          NewAuthService(userRepo, opts.ResetTokenTTL),
		Invites:       invites,
		Organizations: NewOrganizationService(orgRepo, invites, blobs, log),
		Users:         NewUserService(userRepo, orgRepo, blobs, log),
		Groups:        NewGroupService(groupRepo, userRepo),
		Folders:       NewFolderService(folderRepo),
		Permissions:   perms,
		Reports:       NewReportService(reportRepo, folderRepo, userRepo, perms, blobs, opts.MaxUploadSize, m, log),
		Comments:      NewCommentService(commentRepo, userRepo, perms),
		Dashboards:    NewDashboardService(dashboardRepo, reportRepo, permRepo, userRepo, perms, blobs, ai, m, log),
	}
}
