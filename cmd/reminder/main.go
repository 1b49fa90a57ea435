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
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hapo/redmine-reminder/internal/api"
	"github.com/hapo/redmine-reminder/internal/config"
	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/notify"
	"github.com/hapo/redmine-reminder/internal/repository"
	"github.com/hapo/redmine-reminder/internal/scheduler"
	"github.com/hapo/redmine-reminder/internal/timezone"
)

func main() {
	if err := run(); err != nil {
		slog.Error("reminder service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database", "driver", db.Driver)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	reminderRepo := repository.NewReminderRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)
	issueRepo := repository.NewIssueRepository(db)

	zones := timezone.NewResolver(cfg.Settings.DefaultTimezone)
	webhook := notify.NewWebhook(cfg.HTTPTimeout)

	dispatcher := notify.NewDispatcher(cfg.Settings, issueRepo, webhook, logger)
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, tgbotapi.APIEndpoint, &http.Client{Timeout: cfg.HTTPTimeout})
		if err != nil {
			return err
		}
		dispatcher.WithMirror(tg)
		logger.Info("telegram mirror enabled")
	} else {
		logger.Info("telegram mirror not configured")
	}

	svc := scheduler.NewService(
		scheduler.NewScanner(projectRepo, reminderRepo, userRepo, zones, logger),
		dispatcher,
		scheduler.NewAdvancer(reminderRepo, logger),
		logger,
		scheduler.Options{Concurrency: cfg.ScanConcurrency, Lease: db},
	)
	sched, err := svc.Start(ctx, cfg.ScanCron)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", "error", err)
		}
	}()

	handler := api.NewHandler(api.Deps{
		Reminders: reminderRepo,
		Projects:  projectRepo,
		Users:     userRepo,
		Issues:    issueRepo,
		Notifier:  notify.NewIssueNotifier(cfg.Settings, projectRepo, webhook, logger),
		Scanner:   svc,
		Zones:     zones,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
