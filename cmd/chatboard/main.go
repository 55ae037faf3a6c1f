package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatboard/chatboard-server/internal/app"
	"github.com/chatboard/chatboard-server/internal/config"
	"github.com/chatboard/chatboard-server/internal/log"
	"github.com/chatboard/chatboard-server/internal/migrate"
	"github.com/chatboard/chatboard-server/internal/store/table"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "chatboard",
		Short:         "Per-room chat board server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serveCmd(&configPath), migrateCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(os.Getenv("CHATBOARD_LOG_LEVEL"))
			cfg, path, err := config.Load(logger, *configPath)
			if err != nil {
				return err
			}
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Msg("configuration loaded")

			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting chatboard server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Import chat_*.txt room files into the configured database (one-shot)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(os.Getenv("CHATBOARD_LOG_LEVEL"))
			cfg, path, err := config.Load(logger, *configPath)
			if err != nil {
				return err
			}
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			target, err := table.New(cfg.Storage.Driver, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("open target store: %w", err)
			}
			defer target.Close()

			job, err := migrate.NewJob(cfg.Storage.DataDir, target, logger)
			if err != nil {
				return err
			}
			return job.Run(ctx)
		},
	}
}
