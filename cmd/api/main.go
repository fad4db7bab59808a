package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kumoney/internal/config"
	"kumoney/internal/database"
	"kumoney/internal/logger"
	"kumoney/internal/mailer"
	"kumoney/internal/server"
	"kumoney/internal/services"
	"kumoney/internal/validator"
)

// @title           KU Money API
// @version         1.0
// @description     KU Money identity and subscription entitlement service.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()

	catalog, err := services.LoadPackageCatalog(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to load package catalog: %w", err)
	}
	subscriptionService := services.NewSubscriptionService(db, catalog)

	if appConfig.ReconcileOnStart {
		created, err := subscriptionService.ReconcileMissing(ctx)
		if err != nil {
			return fmt.Errorf("failed to reconcile subscriptions: %w", err)
		}
		log.Infow("reconciled missing subscriptions", "created", created)
	}

	tokenService := services.NewTokenService(services.TokenConfig{
		AccessSecret:  appConfig.JWTAccessSecret,
		RefreshSecret: appConfig.JWTRefreshSecret,
		AccessTTL:     appConfig.JWTAccessDuration,
		RefreshTTL:    appConfig.JWTRefreshDuration,
	})

	if appConfig.GoogleClientID == "" {
		log.Warn("GOOGLE_CLIENT_ID is not set; Google sign-in will reject every token")
	}
	oauthVerifier, err := services.NewGoogleVerifier(ctx, appConfig.GoogleClientID)
	if err != nil {
		return err
	}

	sender, err := mailer.New(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}
	defer func() {
		if err := sender.Close(); err != nil {
			log.Warnw("failed to close mailer", "error", err)
		}
	}()

	authService := services.NewAuthService(db, tokenService, subscriptionService, oauthVerifier, sender, appConfig.EmailSendTimeout)

	validator.Register()

	router := server.NewRouter(server.Deps{
		Auth:           authService,
		Subscriptions:  subscriptionService,
		Catalog:        catalog,
		Tokens:         tokenService,
		Audit:          services.NewAuditService(db),
		InternalAPIKey: appConfig.InternalAPIKey,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting KU Money server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
