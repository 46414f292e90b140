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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/config"
	httpserver "github.com/Clark-Hu/reelrate/internal/http"
	"github.com/Clark-Hu/reelrate/internal/live"
	"github.com/Clark-Hu/reelrate/internal/logging"
	"github.com/Clark-Hu/reelrate/internal/omdb"
	"github.com/Clark-Hu/reelrate/internal/repository"
	"github.com/Clark-Hu/reelrate/internal/store"
)

func main() {
	_ = godotenv.Load() // load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DBAutoMigrate {
		if err := store.Migrate(cfg.DBURL, logger); err != nil {
			logger.Fatal("migrate database", zap.Error(err))
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()

	broker := live.NewBroker(logger)
	defer broker.Close()

	listener := store.NewListener(st, broker)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change listener stopped", zap.Error(err))
		}
	}()

	var opts []repository.Option
	if cfg.PasswordHashing == config.HashingBcrypt {
		opts = append(opts, repository.WithPasswordHasher(repository.BcryptHasher{}))
	}
	repo := repository.New(st, broker, logger, opts...)

	movies, err := omdb.NewHTTPClient(cfg.OMDBURL, cfg.OMDBAPIKey, time.Duration(cfg.OMDBTimeoutSecs)*time.Second, logger)
	if err != nil {
		logger.Fatal("init omdb client", zap.Error(err))
	}

	server := httpserver.New(cfg, st, repo, movies, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
