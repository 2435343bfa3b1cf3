package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"stale-cleaner/internal/config"
	"stale-cleaner/internal/database"
	"stale-cleaner/internal/logging"
	"stale-cleaner/internal/metrics"
	"stale-cleaner/internal/scheduler"
)

func newDaemonCmd() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Clean every configured target on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return &ConfigError{Err: err}
			}

			logger := logging.NewWithWriter(cmd.OutOrStdout(), cfg.Logging)
			logger.Println("stale-cleaner daemon starting...")
			logger.Printf("config file: %s", configPath)

			metrics.Init()
			trigger := make(chan struct{}, 1)
			metrics.SetTriggerChannel(trigger)
			if cfg.MetricsEnabled() && !once {
				logger.Printf("starting Prometheus metrics on %s", cfg.PrometheusAddress())
				metrics.StartServer(cfg.PrometheusAddress(), logger)
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					metrics.Shutdown(ctx, logger)
				}()
			}

			logger.Printf("opening deletion database: %s", cfg.DatabasePath)
			db, err := database.NewDeletionDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Printf("ERROR: failed to close database: %v", err)
				}
			}()

			ctx := cmd.Context()
			if once {
				if err := scheduler.RunOnce(ctx, cfg, logger, db); err != nil {
					return err
				}
				logger.Println("cleanup completed successfully")
				return nil
			}

			err = scheduler.Run(ctx, cfg, logger, db, trigger)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Println("stale-cleaner daemon stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "/etc/stale-cleaner/config.yaml", "Path to configuration file")
	cmd.Flags().BoolVar(&once, "once", false, "Run one cleanup cycle and exit")

	return cmd
}
