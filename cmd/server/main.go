// Command server runs the deal-ledger HTTP API.
//
// Startup order: .env (best effort), config, logger, store backend,
// tracing, router, HTTP server. SIGINT/SIGTERM drains in-flight requests
// before exit.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/solartrack/go-deal-ledger/internal/config"
	httpapi "github.com/solartrack/go-deal-ledger/internal/http"
	"github.com/solartrack/go-deal-ledger/internal/observability"
	"github.com/solartrack/go-deal-ledger/internal/repo"
	"github.com/solartrack/go-deal-ledger/internal/sysutil"
)

// version is stamped by the build (-ldflags "-X main.version=...").
var version = "dev"

const shutdownGrace = 15 * time.Second

func main() {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := sysutil.ShutdownContext()
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("SERVICE_VERSION"), version))
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, store, cfg, loc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("backend", cfg.StoreBackend).
			Str("tz", cfg.LocalTZ).
			Str("version", version).
			Msg("deal ledger listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, draining")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore builds the configured ledger backend. The returned close func
// is a no-op for the file backend.
func openStore(cfg config.Config, log zerolog.Logger) (repo.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if err := repo.AutoMigrate(db); err != nil {
			closeDB()
			return nil, nil, err
		}
		return repo.NewGormStore(db), closeDB, nil
	default:
		fs, err := repo.NewFileStore(cfg.LedgerPath, log)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
