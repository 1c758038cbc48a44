package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/creator-activity-engine/internal/app"
	"github.com/kapu/creator-activity-engine/internal/config"
	"github.com/kapu/creator-activity-engine/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "engine",
		Short:         "Creator dashboard activity engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSnapshotCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh scheduler and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func newSnapshotCmd() *cobra.Command {
	var (
		accountID string
		at        string
		publish   bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute one account snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at value: %w", err)
				}
				now = parsed
			}
			return runSnapshot(cmd, accountID, now, publish)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account id to compute")
	cmd.Flags().StringVar(&at, "at", "", "evaluation instant in RFC3339 (default: now)")
	cmd.Flags().BoolVar(&publish, "publish", false, "also publish the snapshot to Redis")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Activity engine starting...",
		zap.String("log_level", cfg.Logging.Level),
		zap.String("http_addr", cfg.HTTP.Addr),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	container.Scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- container.Server.Run(ctx)
	}()

	logger.Info("Engine started, waiting for signals...")

	serverDone := false
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		serverDone = true
		logger.Error("HTTP server error", zap.Error(err))
	}

	logger.Info("Shutting down gracefully...")
	cancel()
	if !serverDone {
		if err := <-errCh; err != nil {
			logger.Error("Error during HTTP shutdown", zap.Error(err))
		}
	}
	container.Close()

	logger.Info("Shutdown complete")
	return nil
}

func runSnapshot(cmd *cobra.Command, accountID string, now time.Time, publish bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Engine.CycleTimeout+30*time.Second)
	defer cancel()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	snapshot := container.Engine.ComputeSnapshot(ctx, now, accountID)
	if publish {
		if err := container.Cache.PublishSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to publish snapshot: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
