package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DanchukIvan/byteflow/internal/app"
	"github.com/DanchukIvan/byteflow/internal/config"
	"github.com/DanchukIvan/byteflow/internal/observability"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "byteflow",
		Short: "byteflow — scheduled data-collection engine",
		Long: `byteflow runs a pool of resource collectors on independent launch
schedules: each walks a paginated endpoint's URL space, shares a rate-governed
request budget with its siblings, detects end-of-resource from the responses
it sees, and buffers decoded records ahead of a flush to a storage engine.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Launch every configured resource's collector and keep them running",
		RunE:  runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sup, closeFn, err := app.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("build supervisor: %w", err)
	}
	defer closeFn()

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	logger.Info("starting collectors", "resources", len(cfg.Resources))
	if err := sup.Run(ctx, verbose); err != nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	logger.Info("all collectors finished")
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("byteflow %s\n", config.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Scheduling:\n  Lookup Interval:  %s\n", cfg.Scheduling.LookupInterval)
			fmt.Printf("\nBatch:\n  Max Batch:        %d\n  Max Retries:      %d\n",
				cfg.Batch.MaxBatch, cfg.Batch.MaxRetries)
			fmt.Printf("\nFetcher:\n  Type:             %s\n  Request Timeout:  %s\n  User Agents:      %d configured\n",
				cfg.Fetcher.Type, cfg.Fetcher.RequestTimeout, len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nProxy:\n  Enabled:          %v\n  Rotation:         %s\n  Count:            %d\n",
				cfg.Proxy.Enabled, cfg.Proxy.Rotation, len(cfg.Proxy.URLs))
			fmt.Printf("\nPipeline:\n  Concurrency:      %d\n  Middlewares:      %d configured\n",
				cfg.Pipeline.Concurrency, len(cfg.Pipeline.Middlewares))
			fmt.Printf("\nStorage:\n  Proto:            %s\n  Root:             %s\n",
				cfg.Storage.Proto, cfg.Storage.Root)
			fmt.Printf("\nResources: %d configured\n", len(cfg.Resources))
			for _, r := range cfg.Resources {
				fmt.Printf("  - %s (%s) schedule=%s requests=%d\n", r.Name, r.BaseURL, r.Schedule.Type, len(r.Requests))
			}
			fmt.Printf("\nMetrics:\n  Enabled:          %v\n  Port:             %d\n",
				cfg.Metrics.Enabled, cfg.Metrics.Port)
			return nil
		},
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
