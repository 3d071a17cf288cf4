// main is the entry point of the Accounts API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the account store and wrap it with metrics
//  4. Assemble the router from every controller
//  5. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/accounts-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/accounts-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/accounts-api/internal/config"
	"github.com/aanand-mishra/accounts-api/internal/http/handlers/account"
	"github.com/aanand-mishra/accounts-api/internal/http/handlers/system"
	"github.com/aanand-mishra/accounts-api/internal/metrics"
	"github.com/aanand-mishra/accounts-api/internal/registry"
	"github.com/aanand-mishra/accounts-api/internal/server"
	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/storage/memory"
	"github.com/aanand-mishra/accounts-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting accounts-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	store, err := openStorage(cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("id_policy", cfg.Storage.IDPolicy))

	m := metrics.New()
	store = metrics.InstrumentStorage(store, m)

	// ── 4. Assemble Routes ────────────────────────────────────────────────
	// Every controller returns its route table; the server registers them
	// all, drains the registry and mounts each prefix.
	controllers := []registry.Controller{
		account.Routes(cfg.AccountsPrefix, store, log),
		system.Health(),
		system.Metrics(m.Handler()),
	}

	router, err := server.NewRouter(log, controllers...)
	if err != nil {
		log.Error("failed to assemble routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// ── 5. Serve ──────────────────────────────────────────────────────────
	srv := server.New(cfg.HTTPServer, router, log)
	srv.OnShutdown("storage", func(context.Context) error {
		return store.Close()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openStorage builds the configured store backend.
func openStorage(cfg config.Storage) (storage.Storage, error) {
	policy, err := storage.ParseIDPolicy(cfg.IDPolicy)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "sqlite":
		s, err := sqlite.New(cfg.SQLiteName, policy)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory", "":
		return memory.New(policy), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
