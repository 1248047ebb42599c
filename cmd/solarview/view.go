package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"solarview/internal/admin"
	"solarview/internal/config"
	"solarview/internal/logging"
	"solarview/internal/metrics"
	"solarview/internal/observability"
	"solarview/internal/sim"
)

var (
	viewConfigPath string
	viewSchemaPath string
	viewSink       string
	viewLogFile    string
	viewBaseURL    string
	viewAdminAddr  string
	viewNoAdmin    bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Run the interactive viewer",
	Long:  "view advances the simulated clock, fetches positions from the service and renders placements.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viewConfigPath, viewSchemaPath)
		if err != nil {
			return err
		}
		if viewBaseURL != "" {
			cfg.Service.BaseURL = viewBaseURL
		}
		if viewAdminAddr != "" {
			cfg.Admin.Addr = viewAdminAddr
		}

		sinks, err := newWriters(cfg, viewSink, viewLogFile)
		if err != nil {
			return err
		}
		defer sinks.Close()

		logger := logging.NewFromEnv(sinks.logOut)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger)

		shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
		if err != nil {
			return err
		}
		defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		col, err := metrics.NewCollector(reg)
		if err != nil {
			return err
		}

		client, err := sim.NewPositionClient(cfg)
		if err != nil {
			return err
		}
		viewer, err := sim.NewViewer(cfg, client, sinks.writer, sim.WithMetrics(col))
		if err != nil {
			return err
		}
		sinks.SetControls(viewer)

		if !viewNoAdmin && cfg.Admin.Addr != "" {
			srv := admin.NewServer(viewer, col.Handler(), logger)
			go func() {
				sinks.SetAdminStatus(true)
				if err := srv.Start(ctx, cfg.Admin.Addr); err != nil {
					logger.Error("admin server failed", "addr", cfg.Admin.Addr, "err", err)
				}
				sinks.SetAdminStatus(false)
			}()
		}

		logger.Info("position service", "base_url", cfg.Service.BaseURL, "bodies", len(cfg.Bodies))
		viewer.Run(ctx)
		return nil
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewConfigPath, "config", "", "Path to viewer configuration YAML (defaults when empty)")
	viewCmd.Flags().StringVar(&viewSchemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	viewCmd.Flags().StringVar(&viewSink, "sink", sinkAuto, "Placement sink: auto, tui or json")
	viewCmd.Flags().StringVar(&viewLogFile, "log-file", "", "Path to export placement frames (JSONL)")
	viewCmd.Flags().StringVar(&viewBaseURL, "service-url", "", "Position service base URL (overrides config)")
	viewCmd.Flags().StringVar(&viewAdminAddr, "admin-addr", "", "Admin API listen address (overrides config)")
	viewCmd.Flags().BoolVar(&viewNoAdmin, "no-admin", false, "Do not start the admin API")
}
