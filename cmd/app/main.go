package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"
	"dispatch/internal/adapters/out/postgres/merchantrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/config"
	"dispatch/internal/core/application/usecases/commands"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := newLogger(cfg.Logger)
	slog.SetDefault(logger)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Error("Could not connect to database", "error", err)
		os.Exit(1)
	}

	if err := gormDB.AutoMigrate(&orderrepo.OrderDTO{}, &merchantrepo.MerchantDTO{}); err != nil {
		logger.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	root := cmd.NewCompositionRoot(cfg, gormDB, logger)

	checkPartnerConnectivity(root, logger)
	restoreSchedules(root, cfg, logger)

	jobManager := root.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		logger.Error("Could not start background jobs", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	root.CreateHTTPServer().RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	jobManager.StopAll()
	root.Scheduler().Stop()
}

// checkPartnerConnectivity verifies the configured partner credentials with
// one lightweight call. Only an auth failure is conclusive; any other failure
// is transient and the service still starts.
func checkPartnerConnectivity(root *cmd.CompositionRoot, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := root.PartnerClient().TestConnection(ctx); err != nil {
		logger.Warn("Partner connectivity check failed", "error", err)
		return
	}

	logger.Info("Partner connectivity verified")
}

// restoreSchedules re-arms dispatch timers from persisted orders. A failed
// restore is logged and the service still starts: reconciliation and fresh
// webhook events will recover the backlog.
func restoreSchedules(root *cmd.CompositionRoot, cfg *config.Config, logger *slog.Logger) {
	handler := root.CreateRestoreSchedulesCommandHandler()

	restoreCmd, err := commands.NewRestoreSchedulesCommand(cfg.Scheduler.RestoreLimit)
	if err != nil {
		logger.Error("Could not build restore command", "error", err)
		return
	}

	if _, err := handler.Handle(context.Background(), restoreCmd); err != nil {
		logger.Error("Schedule restore failed", "error", err)
	}
}

func newLogger(cfg config.LoggerConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
