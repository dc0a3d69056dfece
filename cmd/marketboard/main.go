package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/solspark/marketboard/internal/auth"
	"github.com/solspark/marketboard/internal/config"
	"github.com/solspark/marketboard/internal/feed"
	"github.com/solspark/marketboard/internal/logger"
	"github.com/solspark/marketboard/internal/notify"
	"github.com/solspark/marketboard/internal/recorder"
	"github.com/solspark/marketboard/internal/server"
	"github.com/solspark/marketboard/internal/storage"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	var notifier server.Notifier
	var telegram *notify.Telegram
	if cfg.Telegram.Enabled {
		telegram, err = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegram
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := feed.NewHub()
	authMgr := auth.NewManager(store, cfg.Server.SessionTTL)

	srv := server.New(store, authMgr, hub, server.Options{
		LeaderboardPageSize: cfg.Leaderboard.PageSize,
		Notifier:            notifier,
	})

	if telegram != nil {
		telegram.ListenForCommands(ctx)
	}

	if cfg.Recorder.Enabled {
		rec := recorder.New(store, hub, cfg.Recorder.Interval, cfg.Storage.HistoryRetention)
		go rec.Run(ctx)
		logger.Info("Snapshot recorder started (interval: %v, retention: %v)",
			cfg.Recorder.Interval, cfg.Storage.HistoryRetention)
	} else {
		logger.Debug("Snapshot recorder disabled")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down HTTP server cleanly: %v", err)
		}
	}()

	logger.Info("Listening on %s", cfg.Server.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server failed: %v", err)
	}
	logger.Info("Service stopped")
}
