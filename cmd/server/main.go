package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/coursecompass/decision-engine/internal/catalog"
	"github.com/coursecompass/decision-engine/internal/config"
	"github.com/coursecompass/decision-engine/internal/explain"
	"github.com/coursecompass/decision-engine/internal/matrix"
	"github.com/coursecompass/decision-engine/internal/server"
)

// #region main

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	cat, err := catalog.Load(cfg.Data.StreamsPath, cfg.Data.QuestionsPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, err := matrix.NewStore(cfg.Cache.DBPath)
	if err != nil {
		return fmt.Errorf("open matrix cache: %w", err)
	}
	defer store.Close()

	m, rebuilt, err := store.Ensure(cat.UniqueCourses(), cat.Hash(), "startup")
	if err != nil {
		return fmt.Errorf("ensure matrix: %w", err)
	}
	logger.Info("matrix ready",
		zap.Int("courses", m.Len()),
		zap.Bool("rebuilt", rebuilt),
	)

	explainClient := explain.NewClient(cfg.Explain.BaseURL, cfg.Explain.Timeout, logger)
	srv := server.New(cat, m, explainClient, cfg.HTTP.AllowedOrigins, logger)

	if cfg.Data.Watch {
		watcher, err := catalog.NewWatcher(cat, cfg.Data.StreamsPath, cfg.Data.QuestionsPath, logger)
		if err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
		defer watcher.Stop()
		watcher.OnReload(func(fresh *catalog.Catalog) {
			fm, frebuilt, ferr := store.Ensure(fresh.UniqueCourses(), fresh.Hash(), "catalog_reload")
			if ferr != nil {
				logger.Error("matrix rebuild after reload failed", zap.Error(ferr))
				return
			}
			srv.UpdateData(fresh, fm)
			logger.Info("catalog reloaded", zap.Bool("matrix_rebuilt", frebuilt))
		})
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// #endregion main

// #region logger

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zcfg zap.Config
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// #endregion logger
