package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/constants"
	"github.com/yukikurage/report-hub-api/internal/metrics"
	"github.com/yukikurage/report-hub-api/internal/middleware"
	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/services"
	"github.com/yukikurage/report-hub-api/internal/storage"
)

// RouterConfig holds what the router needs from main
type RouterConfig struct {
	DB            *gorm.DB
	Blobs         storage.BlobStore
	Services      *services.Services
	SessionStore  sessions.Store
	Metrics       *metrics.Metrics
	MaxUploadSize int64
	Log           zerolog.Logger
}

// NewRouter builds the gin engine with every route
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(cfg.Log),
		middleware.RequestLogger(cfg.Log),
		middleware.Metrics(cfg.Metrics),
		sessions.Sessions(constants.SessionCookieName, cfg.SessionStore),
	)

	svc := cfg.Services
	healthHandler := NewHealthHandler(cfg.DB, cfg.Blobs, cfg.Log)
	authHandler := NewAuthHandler(svc.Auth, cfg.Log)
	orgHandler := NewOrganizationHandler(svc.Organizations, svc.Users, svc.Invites, cfg.Log)
	groupHandler := NewGroupHandler(svc.Groups, svc.Folders, cfg.Log)
	reportHandler := NewReportHandler(svc.Reports, svc.Permissions, svc.Comments, cfg.MaxUploadSize, cfg.Log)
	dashboardHandler := NewDashboardHandler(svc.Dashboards, cfg.Log)

	requireAuth := middleware.RequireAuth(svc.Auth)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/bootstrap", authHandler.Bootstrap)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/register", authHandler.Register)
			auth.POST("/password/reset", authHandler.ResetPassword)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.POST("/password/reset-token", requireAuth,
				middleware.RequireRole(models.RoleSuperadmin, models.RoleAdmin), authHandler.IssueResetToken)
		}

		// Everything below needs a session
		protected := api.Group("")
		protected.Use(requireAuth)

		orgs := protected.Group("/organizations")
		{
			orgs.GET("", middleware.RequireRole(models.RoleSuperadmin), orgHandler.ListOrganizations)
			orgs.POST("", middleware.RequireRole(models.RoleSuperadmin), orgHandler.CreateOrganization)
			orgs.PUT("/:id", middleware.RequireRole(models.RoleSuperadmin), orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", middleware.RequireRole(models.RoleSuperadmin), orgHandler.DeleteOrganization)
			orgs.GET("/:id/users", orgHandler.ListUsers)
		}
		protected.POST("/invites", orgHandler.CreateInvite)
		protected.DELETE("/users/:id", orgHandler.DeleteUser)

		groups := protected.Group("/groups")
		{
			groups.GET("", groupHandler.ListGroups)
			groups.POST("", groupHandler.CreateGroup)
			groups.PUT("/:id/members", groupHandler.SetMembers)
			groups.DELETE("/:id", groupHandler.DeleteGroup)
		}

		folders := protected.Group("/folders")
		{
			folders.GET("", groupHandler.ListFolders)
			folders.POST("", groupHandler.CreateFolder)
			folders.DELETE("/:id", groupHandler.DeleteFolder)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("", reportHandler.ListReports)
			reports.POST("", reportHandler.UploadReport)
			reports.GET("/:id", reportHandler.GetReport)
			reports.DELETE("/:id", reportHandler.DeleteReport)
			reports.GET("/:id/download", reportHandler.DownloadReport)
			reports.PUT("/:id/folder", reportHandler.MoveReport)
			reports.GET("/:id/permissions", reportHandler.ListPermissions)
			reports.PUT("/:id/permissions", reportHandler.SavePermissions)
			reports.GET("/:id/columns", reportHandler.ListColumns)
			reports.GET("/:id/comments", reportHandler.ListComments)
			reports.POST("/:id/comments", reportHandler.CreateComment)
		}

		dashboards := protected.Group("/dashboards")
		{
			dashboards.GET("", dashboardHandler.ListDashboards)
			dashboards.POST("", dashboardHandler.CreateDashboard)
			dashboards.GET("/:id", dashboardHandler.GetDashboard)
			dashboards.DELETE("/:id", dashboardHandler.DeleteDashboard)
			dashboards.PUT("/:id/share", dashboardHandler.ShareDashboard)
			dashboards.GET("/:id/permissions", dashboardHandler.ListPermissions)
			dashboards.POST("/:id/visualizations", dashboardHandler.AddVisualization)
			dashboards.POST("/:id/visualizations/suggest", dashboardHandler.SuggestVisualizations)
			dashboards.PUT("/:id/visualizations/order", dashboardHandler.ReorderVisualizations)
			dashboards.PUT("/:id/visualizations/:vizId", dashboardHandler.UpdateVisualization)
			dashboards.DELETE("/:id/visualizations/:vizId", dashboardHandler.DeleteVisualization)
		}
	}

	return r
}
