package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perimetra/fwapi/internal/api"
	"github.com/perimetra/fwapi/internal/config"
	"github.com/perimetra/fwapi/internal/inventory"
	"github.com/perimetra/fwapi/internal/logging"
	"github.com/perimetra/fwapi/internal/rulestore"
)

// shutdownGrace is how long in-flight requests get after SIGTERM.
const shutdownGrace = 15 * time.Second

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(configFile, listenOverride string) error {
	var cfg *config.Config
	if configFile == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if listenOverride != "" {
		cfg.Listen = listenOverride
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Output: os.Stderr,
		JSON:   cfg.Log.JSON,
	})
	logging.SetDefault(logger)

	invTimeout, err := cfg.InventoryTimeout()
	if err != nil {
		return err
	}
	inv := inventory.NewHTTPClient(cfg.Inventory.URL, invTimeout)

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	server := api.NewServer(api.ServerOptions{
		Inventory: inv,
		Store:     store,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", shutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// openStore builds the configured rule store backend. The returned close
// function is a no-op for backends without resources to release.
func openStore(cfg *config.Config, logger *logging.Logger) (rulestore.Store, func(), error) {
	noop := func() {}

	timeout, err := cfg.StoreTimeout()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Store.Backend {
	case config.BackendRemote:
		return rulestore.NewHTTPStore(cfg.Store.URL, timeout), noop, nil

	case config.BackendSQLite:
		store, err := rulestore.OpenSQLite(cfg.Store.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open rule store: %w", err)
		}
		if err := seedStore(store, cfg.Store.Seed, logger); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case config.BackendMemory:
		store := rulestore.NewMemoryStore()
		if err := seedStore(store, cfg.Store.Seed, logger); err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func seedStore(store rulestore.Store, path string, logger *logging.Logger) error {
	if path == "" {
		return nil
	}
	n, err := rulestore.LoadSeed(context.Background(), store, path)
	if err != nil {
		return fmt.Errorf("failed to load seed rules: %w", err)
	}
	logger.Info("seed rules loaded", "file", path, "count", n)
	return nil
}
