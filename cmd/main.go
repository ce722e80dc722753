package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/data"
	"github.com/dealflow-tools/onboarding_bot/data/cache"
	"github.com/dealflow-tools/onboarding_bot/data/repository/postgres"
	"github.com/dealflow-tools/onboarding_bot/data/session"
	"github.com/dealflow-tools/onboarding_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/dealflow-tools/onboarding_bot/internal/externalApi/dealmakerApi"
	"github.com/dealflow-tools/onboarding_bot/internal/reportGenerator/xlsxGenerator"
	"github.com/dealflow-tools/onboarding_bot/internal/scheduler"
	"github.com/dealflow-tools/onboarding_bot/internal/service/onboardingService"
	"github.com/dealflow-tools/onboarding_bot/internal/tgbot"
	"github.com/dealflow-tools/onboarding_bot/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	dealmakerApiClient := dealmakerApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	onboardingSrv := onboardingService.New(cfg, pgRepo, redisCache, dealmakerApiClient, reportGenerator, googleCloudStorage)

	sched := scheduler.New()
	sched.NewIntervalJob("fill deals cache", onboardingSrv.FillDealsCache, cfg.Jobs.RefreshDealsInterval, true)
	sched.NewIntervalJob("cleanup cloud storage", onboardingSrv.CleanupCloudStorage, cfg.Jobs.DriveCleanupInterval, false)
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, onboardingSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
