package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"familybudget/internal/amqp"
	"familybudget/internal/bot"
	"familybudget/internal/catalog"
	"familybudget/internal/config"
	applog "familybudget/internal/log"
	"familybudget/internal/services"
	"familybudget/internal/storage"
	"familybudget/internal/worker"
)

func main() {
	// Load .env for local development; in production the environment is
	// already populated.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     logLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	cats, err := repo.Categories(context.Background())
	if err != nil {
		logger.Error("Failed to load category catalog", "error", err)
		os.Exit(1)
	}
	cat, err := catalog.New(cats)
	if err != nil {
		logger.Error("Invalid category catalog", "error", err)
		os.Exit(1)
	}

	var events *amqp.Publisher
	if cfg.AMQPURL != "" {
		events, err = amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP event publishing disabled")
	}

	ledger := services.NewLedgerService(repo, cat, events)
	defer ledger.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}
	handler := bot.NewHandler(api, ledger, cfg.AllowedUserIDs, cfg.BackupDir, cfg.ExportDir)

	// Validate already guarantees these parse.
	morning, _ := worker.ParseTimeOfDay(cfg.ReminderMorning)
	evening, _ := worker.ParseTimeOfDay(cfg.ReminderEvening)
	report, _ := worker.ParseTimeOfDay(cfg.MonthlyReportTime)
	scheduler := worker.NewScheduler(handler, morning, evening, report)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return handler.Run(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })

	logger.Info("familybudget started",
		"bot", api.Self.UserName,
		"users", len(cfg.AllowedUserIDs),
		"db", cfg.SQLiteDBPath)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Service error", "error", err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
