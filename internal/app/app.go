package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatboard/chatboard-server/internal/config"
	"github.com/chatboard/chatboard-server/internal/store"
	"github.com/chatboard/chatboard-server/internal/store/file"
	"github.com/chatboard/chatboard-server/internal/store/table"
	transporthttp "github.com/chatboard/chatboard-server/internal/transport/http"
)

// App wires together the room store and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. The store
// backend is chosen here, once; nothing downstream branches on it again.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	server := transporthttp.NewServer(st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

func openStore(cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendTable:
		st, err := table.New(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(context.Background()); err != nil {
			st.Close()
			return nil, err
		}
		logger.Info().Str("driver", cfg.Storage.Driver).Msg("table store initialized")
		return st, nil
	case config.BackendFile:
		st, err := file.New(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("data_dir", cfg.Storage.DataDir).Msg("file store initialized")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
