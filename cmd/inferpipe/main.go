// Command inferpipe runs inference video pipelines declared in YAML
// profiles.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	inferpipe "github.com/e7canasta/inference-pipeline"
	"github.com/e7canasta/inference-pipeline/internal/gstengine"
	"github.com/e7canasta/inference-pipeline/internal/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "inferpipe",
		Short: "Hardware inference pipeline runner",
		Long: `inferpipe assembles GStreamer inference pipelines from YAML profiles
and runs them, printing per-frame progress until end of stream or SIGINT.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(runCmd())
	root.AddCommand(lintCmd())
	return root
}

func runCmd() *cobra.Command {
	var (
		metricsAddr string
		logEvery    uint64
	)

	cmd := &cobra.Command{
		Use:   "run <profile.yaml>",
		Short: "Assemble and run a pipeline profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(args[0], metricsAddr, logEvery)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().Uint64Var(&logEvery, "log-every", 30, "log progress every N frames")
	return cmd
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <profile.yaml>",
		Short: "Validate a profile and print the assembled description without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			profile, err := inferpipe.LoadProfile(args[0])
			if err != nil {
				return err
			}
			desc, err := profile.Assemble()
			if err != nil {
				return err
			}
			fmt.Println(desc.String())
			return nil
		},
	}
}

func runPipeline(profilePath, metricsAddr string, logEvery uint64) error {
	log := slog.Default()

	profile, err := inferpipe.LoadProfile(profilePath)
	if err != nil {
		return err
	}
	desc, err := profile.Assemble()
	if err != nil {
		return err
	}

	if err := gstengine.Available(); err != nil {
		return err
	}

	var met *metrics.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		met = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Info("inferpipe: serving metrics", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error("inferpipe: metrics server stopped", "error", err)
			}
		}()
	}

	callback := inferpipe.BufferCallbackFunc(func(buf inferpipe.Buffer, cctx *inferpipe.CallbackContext) {
		if logEvery > 0 && cctx.Count()%logEvery == 0 {
			log.Info("inferpipe: frame",
				"frame", cctx.Count(),
				"bytes", len(buf.Data),
				"trace_id", buf.TraceID,
			)
		}
	})

	ctrl, err := inferpipe.NewController(inferpipe.ControllerConfig{
		Engine:      gstengine.New(log),
		Description: desc,
		Callback:    callback,
		Logger:      log,
		Metrics:     met,
	})
	if err != nil {
		return err
	}

	if err := ctrl.Start(); err != nil {
		return err
	}

	// Drive Stop from SIGINT/SIGTERM; the event loop observes the request
	// and drains the pipeline to Null before the process exits.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		log.Info("inferpipe: signal received, stopping", "signal", sig.String())
		if err := ctrl.Stop(); err != nil {
			log.Warn("inferpipe: stop", "error", err)
		}
	}()

	start := time.Now()
	runErr := ctrl.RunEventLoop(context.Background())
	stats := ctrl.Stats()
	log.Info("inferpipe: run finished",
		"state", stats.State.String(),
		"frames_processed", stats.FramesProcessed,
		"duration", time.Since(start).Round(time.Millisecond),
		"fps_mean", fmt.Sprintf("%.2f", stats.FPS.Mean),
	)
	return runErr
}
