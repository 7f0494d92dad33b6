package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"MultiShopBot/internal/cache"
	"MultiShopBot/internal/config"
	"MultiShopBot/internal/graceful"
	"MultiShopBot/internal/repositories"
	"MultiShopBot/internal/telegram"
	"MultiShopBot/internal/utils/logger/handlers/slogpretty"
	"MultiShopBot/internal/utils/logger/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var Version = "0.1"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info(
		"starting multi shop bot",
		slog.String("env", cfg.Env),
		slog.String("version", Version),
	)

	repositoryService := repositories.New(log, cfg)

	userCache := cache.New(log)
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), cfg.CacheConfig.WarmTimeout)
	if err := userCache.Warm(warmCtx, repositoryService.GetAllUsers); err != nil {
		// A cold cache only costs extra lookups; the bot still serves.
		log.Warn("user cache warm failed", sl.Err(err))
	}
	cancelWarm()

	tgBot := telegram.New(log, cfg, repositoryService, userCache)
	if tgBot == nil {
		log.Error("telegram bot init failed")
		os.Exit(1)
	}

	maxSecond := 15 * time.Second
	waitShutdown := graceful.GracefulShutdown(
		context.Background(),
		maxSecond,
		map[string]graceful.Operation{
			"Repository service": func(ctx context.Context) error {
				return repositoryService.Shutdown(ctx)
			},
			"Telegram bot": func(ctx context.Context) error {
				return tgBot.Shutdown(ctx)
			},
		},
		log,
	)

	go tgBot.Start()

	<-waitShutdown
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(slog.LevelDebug)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = setupPrettySlog(slog.LevelInfo)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}
	handler := opts.NewPrettyHandler(os.Stdout)
	return slog.New(handler)
}
