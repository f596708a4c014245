package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/config"
	"github.com/yukikurage/report-hub-api/internal/database"
	"github.com/yukikurage/report-hub-api/internal/handlers"
	"github.com/yukikurage/report-hub-api/internal/logger"
	"github.com/yukikurage/report-hub-api/internal/metrics"
	"github.com/yukikurage/report-hub-api/internal/services"
	"github.com/yukikurage/report-hub-api/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "production")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	gin.SetMode(cfg.GinMode)

	// Connect to database and run migrations
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis store")
	}

	// AI suggestions are optional
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Info().Msg("OPENAI_API_KEY not set, visualization suggestions disabled")
	}

	m := metrics.New()
	svc := services.New(db, blobs, aiService, services.Options{
		InviteTokenTTL: cfg.InviteTokenTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
		MaxUploadSize:  cfg.Storage.MaxUploadSize,
	}, m, log)

	router := handlers.NewRouter(handlers.RouterConfig{
		DB:            db,
		Blobs:         blobs,
		Services:      svc,
		SessionStore:  store,
		Metrics:       m,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
		Log:           log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Backend).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	shutdown(srv, db, cfg.ShutdownTimeout, log)
}

// newSessionStore creates the Redis-backed session store
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	redisAddr := cfg.Session.RedisHost + ":" + cfg.Session.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.Session.Secret),
	)
	if err != nil {
		return nil, err
	}

	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// shutdown drains in-flight requests, then closes the database pool
func shutdown(srv *http.Server, db *gorm.DB, timeout time.Duration, log zerolog.Logger) {
	log.Info().Dur("timeout", timeout).Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shut down")
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
	log.Info().Msg("Server stopped")
}
