package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haltiala/vahti/config"
	"github.com/haltiala/vahti/pipeline"
	"github.com/haltiala/vahti/runlog"
	"github.com/haltiala/vahti/telemetry"
)

var (
	daemonInterval    time.Duration
	daemonMetricsAddr string
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the report scheduler as a long-lived process",
	Long: `Run Vahti as a daemon that generates and delivers the daily
report on a fixed interval.

Each cycle covers the previous UTC day, so the default 24-hour
interval produces one report per day. Prometheus metrics are served
on /metrics, and the process shuts down gracefully on SIGTERM/SIGINT.`,
	Example: `  vahti daemon                        # Report every 24 hours
  vahti daemon --interval 12h         # Twice a day
  vahti daemon --metrics-addr :2112   # Custom metrics listener`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Report interval (defaults to the configured value)")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", "", "Metrics HTTP listener address (defaults to the configured value)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if daemonInterval > 0 {
		cfg.Daemon.Interval = daemonInterval
	}
	if daemonMetricsAddr != "" {
		cfg.Daemon.MetricsAddr = daemonMetricsAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "vahti",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = shutdown(shutdownCtx)
	}()

	store, err := runlog.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Printf("🚀 Starting Vahti daemon...\n")
	fmt.Printf("   Region: %s\n", cfg.Region)
	fmt.Printf("   Interval: %s\n", cfg.Daemon.Interval)
	fmt.Printf("   Metrics: %s\n", cfg.Daemon.MetricsAddr)

	var group run.Group

	group.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	metricsServer := &http.Server{
		Addr:    cfg.Daemon.MetricsAddr,
		Handler: metricsMux(),
	}
	group.Add(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	})

	loopCtx, loopCancel := context.WithCancel(ctx)
	group.Add(func() error {
		return reportLoop(loopCtx, cfg, store)
	}, func(error) {
		loopCancel()
	})

	err = group.Run()

	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		fmt.Printf("\n📋 Received %s, shutting down gracefully...\n", sigErr.Signal)
		return nil
	}
	return err
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// reportLoop runs one report cycle immediately, then one per interval.
// A failed cycle is logged and the loop keeps going; the next tick
// covers the same report day until a run succeeds.
func reportLoop(ctx context.Context, cfg *config.Config, store *runlog.Store) error {
	logger := telemetry.NewLogger("daemon")

	runOnce := func() {
		runner, err := pipeline.New(ctx, cfg, time.Now())
		if err != nil {
			logger.WithContext(ctx).Error().Err(err).Msg("failed to build report pipeline")
			return
		}

		result, err := runner.Run(ctx)
		if err != nil {
			logger.WithContext(ctx).Error().Err(err).Msg("report cycle failed")
			return
		}

		entry := runlog.Entry{
			ReportDate:       result.ReportDate,
			ReportKey:        result.ReportKey,
			ResourcesTracked: result.ResourcesTracked,
			Summary:          result.Summary,
			CompletedAt:      time.Now().UTC(),
		}
		if err := store.Record(entry); err != nil {
			logger.WithContext(ctx).Error().Err(err).Msg("failed to record run history")
		}
	}

	runOnce()

	ticker := time.NewTicker(cfg.Daemon.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}
