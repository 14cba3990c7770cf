package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/auth"
	"github.com/mamadbah2/expiry-tracker/internal/config"
	"github.com/mamadbah2/expiry-tracker/internal/metrics"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
	"github.com/mamadbah2/expiry-tracker/internal/repository/memory"
	"github.com/mamadbah2/expiry-tracker/internal/repository/mongodb"
	"github.com/mamadbah2/expiry-tracker/internal/repository/sheets"
	"github.com/mamadbah2/expiry-tracker/internal/scheduler"
	"github.com/mamadbah2/expiry-tracker/internal/server/handlers"
	"github.com/mamadbah2/expiry-tracker/internal/server/router"
	"github.com/mamadbah2/expiry-tracker/internal/service/accounts"
	"github.com/mamadbah2/expiry-tracker/internal/service/dashboard"
	"github.com/mamadbah2/expiry-tracker/internal/service/donation"
	"github.com/mamadbah2/expiry-tracker/internal/service/pantry"
	"github.com/mamadbah2/expiry-tracker/internal/service/receipts"
	"github.com/mamadbah2/expiry-tracker/internal/service/reminders"
	"github.com/mamadbah2/expiry-tracker/pkg/clients/anthropic"
	"github.com/mamadbah2/expiry-tracker/pkg/clients/places"
	whatsappclient "github.com/mamadbah2/expiry-tracker/pkg/clients/whatsapp"
	"github.com/mamadbah2/expiry-tracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var store repository.Store
	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		store = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI not set, using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Info("google sheets not configured, pantry export disabled")
	}

	var aiClient anthropic.Client
	if cfg.AI.Enabled() {
		aiClient = anthropic.NewClient(cfg.AI)
		baseLogger.Info("anthropic ai client enabled", zap.String("model", cfg.AI.Model))
	} else {
		aiClient = anthropic.MockClient{}
		baseLogger.Warn("anthropic api key missing, serving sample receipt extraction")
	}

	var placesClient places.Client
	if cfg.Places.APIKey != "" {
		placesClient = places.NewClient(cfg.Places)
	} else {
		placesClient = places.MockClient{}
		baseLogger.Warn("google maps api key missing, serving sample donation centers")
	}

	loc := cfg.Reminders.Location()
	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	services := handlers.Services{
		Accounts:  accounts.NewService(store, store, tokens, logger.Named(baseLogger, "svc.accounts")),
		Receipts:  receipts.NewManager(aiClient, aiClient, store, m, loc, logger.Named(baseLogger, "svc.receipts")),
		Pantry:    pantry.NewService(store, sheetsRepo, m, logger.Named(baseLogger, "svc.pantry")),
		Dashboard: dashboard.NewService(store, loc),
		Donations: donation.NewService(placesClient, cfg.Places.RadiusMeters, logger.Named(baseLogger, "svc.donation")),
	}
	handler := handlers.New(services, cfg.Server.MaxUploadBytes, logger.Named(baseLogger, "handlers"))
	engine := router.New(handler, tokens, m, logger.Named(baseLogger, "router"))

	if cfg.WhatsApp.Enabled() {
		reminderSvc := reminders.NewService(store, whatsappclient.NewClient(cfg.WhatsApp), m, loc, logger.Named(baseLogger, "svc.reminders"))
		sched := scheduler.NewScheduler(cfg.Reminders, reminderSvc, logger.Named(baseLogger, "scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Warn("whatsapp credentials missing, expiry reminders disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
