package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apierrors "github.com/yukikurage/report-hub-api/internal/errors"
	"github.com/yukikurage/report-hub-api/internal/storage"
)

const healthTimeout = 3 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	blobs storage.BlobStore
	log   zerolog.Logger
}

func NewHealthHandler(db *gorm.DB, blobs storage.BlobStore, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, blobs: blobs, log: log}
}

// Health pings the database and the blob store
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.log.Warn().Err(err).Msg("database health check failed")
		apierrors.ServiceUnavailable(c, "Database unavailable")
		return
	}

	if err := h.blobs.HealthCheck(ctx); err != nil {
		h.log.Warn().Err(err).Msg("storage health check failed")
		apierrors.ServiceUnavailable(c, "Storage unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Report Hub API is running",
	})
}
