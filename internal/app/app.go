package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/config"
	"github.com/umnlabs/checkoff/internal/delivery/httpd"
	"github.com/umnlabs/checkoff/internal/repository"
	"github.com/umnlabs/checkoff/internal/service"
	"github.com/umnlabs/checkoff/internal/service/integration"
	"github.com/umnlabs/checkoff/internal/service/storage"
	"github.com/umnlabs/checkoff/internal/worker"
)

type App struct {
	server       *http.Server
	logger       zerolog.Logger
	config       *config.Config
	db           *sql.DB
	replayWorker *worker.ReplayWorker
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	videoStore, err := storage.NewMinIOStore(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create video store: %w", err)
	}

	identityClient, err := newIdentityClient(cfg.Auth, log)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db, log)
	labRepo := repository.NewLabRepository(db, log)
	submissionRepo := repository.NewSubmissionRepository(db, log)
	verificationRepo := repository.NewVerificationRepository(db, log)
	gradebookRepo := repository.NewGradebookRepository(db, log)
	auditRepo := repository.NewAuditLogRepository(db, log)

	authService := service.NewAuthService(identityClient, userRepo, cfg.Auth.AllowedEmailSuffix, log)
	submissionService := service.NewSubmissionService(submissionRepo, labRepo, videoStore, cfg.Storage.SignedURLTTL, log)
	reviewService := service.NewReviewService(submissionRepo, verificationRepo, gradebookRepo, auditRepo, log)
	gradebookService := service.NewGradebookService(gradebookRepo, log)

	handler := httpd.NewHandler(
		authService,
		submissionService,
		reviewService,
		gradebookService,
		cfg.Storage.MaxUploadSize,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(handler.RequestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	router.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var replayWorker *worker.ReplayWorker
	if cfg.Replay.Enabled {
		replayWorker = worker.NewReplayWorker(
			submissionRepo,
			verificationRepo,
			gradebookRepo,
			auditRepo,
			cfg.Replay.Interval,
			cfg.Replay.Batch,
			log,
		)
	}

	return &App{
		server:       server,
		logger:       log,
		config:       cfg,
		db:           db,
		replayWorker: replayWorker,
	}, nil
}

func newIdentityClient(cfg config.AuthConfig, log zerolog.Logger) (integration.IdentityClient, error) {
	switch cfg.Mode {
	case "jwt":
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("auth mode jwt requires a jwt_secret")
		}
		return integration.NewJWTIdentityClient(cfg.JWTSecret, log), nil
	case "remote":
		if cfg.UserinfoURL == "" {
			return nil, fmt.Errorf("auth mode remote requires a userinfo_url")
		}
		return integration.NewRemoteIdentityClient(cfg.UserinfoURL, cfg.Timeout, cfg.RetryCount, cfg.RetryDelay, log), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

func (a *App) Run() error {
	if a.replayWorker != nil {
		a.replayWorker.Start(context.Background())
	}

	a.logger.Info().Msgf("Starting checkoff service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down checkoff service...")

	if a.replayWorker != nil {
		a.replayWorker.Stop()
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
