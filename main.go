package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"churnscope/config"
	"churnscope/db"
	qhttp "churnscope/http"
	"churnscope/logging"
	"churnscope/ml"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	logger, level, err := logging.New(logging.Options{
		Environment: cfg.Service.Environment,
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := logging.WatchLevel(ctx, configPath, level, logger); err != nil {
		logger.Warn("log level reload disabled", zap.String("config", configPath), zap.Error(err))
	}

	// 3. Model artifact; the service does not start without one
	artifact, err := ml.LoadArtifact(cfg.Model.Path)
	if err != nil {
		var loadErr *ml.ArtifactLoadError
		if errors.As(err, &loadErr) {
			logger.Error("model artifact unavailable",
				zap.String("path", loadErr.Path),
				zap.String("reason", loadErr.Reason),
				zap.Error(loadErr.Err),
			)
		}
		return err
	}
	info := artifact.Info()
	logger.Info("model loaded",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
		zap.String("type", info.ModelType),
		zap.String("sha256", info.SHA256),
	)

	// 4. Activity store
	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	if err := store.RecordModelLoad(ctx, info); err != nil {
		logger.Warn("failed to record model load", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	// 5. HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.Batch.MaxUploadBytes,
		PreviewRows:    cfg.Batch.PreviewRows,
		ExportTTL:      cfg.Batch.ExportTTL,
		ExportCapacity: cfg.Batch.ExportCapacity,
	}, ml.NewPredictor(artifact), store, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// 6. Graceful shutdown
	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
	return nil
}
