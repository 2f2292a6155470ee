package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusfest/techfest-system/config"
	"github.com/campusfest/techfest-system/db"
	"github.com/campusfest/techfest-system/handlers"
	"github.com/campusfest/techfest-system/live"
	"github.com/campusfest/techfest-system/repositories"
	api "github.com/campusfest/techfest-system/routes"
	"github.com/campusfest/techfest-system/services"
	"github.com/campusfest/techfest-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("poster storage not configured, poster uploads disabled")
	}

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewEmailService(cfg)
		logger.Info("SMTP mailer initialized", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Info("SMTP not configured, credential emails disabled")
	}

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	eventService := services.NewEventService(eventRepo, userRepo, uploader, logger)
	registrationService := services.NewRegistrationService(
		txRunner,
		registrationRepo,
		eventRepo,
		userRepo,
		services.RegistrationPolicy{
			EnforceLimitsOnManual: cfg.ManualRegEnforceLimits,
			FacultyOverride:       cfg.FacultyAccessOverride,
		},
		wsHub,
		mailer,
		logger,
	)
	statsService := services.NewStatsService(eventRepo, userRepo, registrationRepo)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	eventHandler := handlers.NewEventHandler(eventService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	statsHandler := handlers.NewStatsHandler(statsService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authHandler,
		eventHandler,
		registrationHandler,
		statsHandler,
		webSocketHandler,
		cfg.JWTSecretKey,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
