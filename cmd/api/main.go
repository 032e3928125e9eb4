package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/api/routes"
	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/database"
	"github.com/ArowuTest/loyaltybot-backend/internal/handlers"
	"github.com/ArowuTest/loyaltybot-backend/internal/logging"
	"github.com/ArowuTest/loyaltybot-backend/internal/metrics"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
	"github.com/ArowuTest/loyaltybot-backend/pkg/relay"
)

func main() {
	cfg, err := config.Load(config.SearchPaths()...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Server.InsecureChat && cfg.Server.ServiceToken == "" {
		logger.Warn("Chat API is running without a service token; anyone can call it")
	}

	store, err := database.Open(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open datastore", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("Error closing datastore", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := services.Options{
		Store:   store,
		Points:  cfg.Points,
		Logger:  logger,
		Metrics: metrics.New(registry),
	}

	var gateway relay.Gateway
	if cfg.Relay.Mock {
		logger.Warn("Using mock staff relay; support questions are not delivered")
		gateway = relay.NewMockGateway()
	} else {
		gateway = relay.NewTelegramGateway(cfg.Relay.BaseURL, cfg.Relay.Token)
	}

	accountService := services.NewAccountService(opts)
	mergeService := services.NewMergeService(opts)
	referralService := services.NewReferralService(opts, cfg.Bot.Username)
	adminService := services.NewAdminService(opts, cfg.Maintenance.BackupDir)
	supportService := services.NewSupportService(opts, gateway, cfg.Relay.StaffChatID)
	authService := services.NewAuthService(cfg.Admin, opts)

	deps := routes.Dependencies{
		Accounts: handlers.NewAccountHandler(accountService, mergeService, referralService),
		Admin:    handlers.NewAdminHandler(adminService),
		Auth:     handlers.NewAuthHandler(authService),
		Support:  handlers.NewSupportHandler(supportService),
		Tokens:   authService,
		Gatherer: registry,
		Health:   healthCheck(store),
	}
	router := routes.SetupRouter(cfg, deps, logger)

	scheduler, err := scheduleBackups(cfg.Maintenance, adminService, logger)
	if err != nil {
		logger.Fatal("Invalid backup schedule", zap.String("schedule", cfg.Maintenance.BackupSchedule), zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// healthCheck reports whether the datastore answers a trivial read.
func healthCheck(store repositories.Store) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := store.Repositories().Accounts.List(ctx, 1)
		return err
	}
}

// scheduleBackups starts periodic snapshots when a schedule is configured.
func scheduleBackups(cfg config.MaintenanceConfig, admin *services.AdminService, logger *zap.Logger) (*cron.Cron, error) {
	if cfg.BackupSchedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(cfg.BackupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		path, err := admin.Backup(ctx)
		if err != nil {
			logger.Error("Scheduled backup failed", zap.Error(err))
			return
		}
		logger.Info("Scheduled backup written", zap.String("path", path))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
