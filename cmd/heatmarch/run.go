package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/experiment"
	"github.com/san-kum/heatmarch/internal/march"
	"github.com/san-kum/heatmarch/internal/metrics"
	"github.com/san-kum/heatmarch/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog := checkpoint.NewCatalog(dataDir)
	if err := catalog.Init(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	exp := experiment.New(cfg, catalog,
		experiment.WithName(name),
		experiment.WithLogger(logger),
		experiment.WithObserver(collector),
	)
	if err := exp.Setup(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	defer exp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("run %s: %d steps of %.0f s, checkpoint every %d\n",
		exp.ID(), march.StepCount(cfg.FinalTime, cfg.Tau), cfg.Tau, cfg.OutputFrequency)

	start := time.Now()
	result, manifest, runErr := exp.Run(ctx)
	if result != nil {
		printSummary(result, manifest, time.Since(start))
	}
	return runErr
}

func printSummary(result *march.Result, m *checkpoint.Manifest, elapsed time.Duration) {
	fmt.Printf("steps: %d  final time: %.0f s  elapsed: %v\n", result.Steps, result.FinalTime, elapsed.Round(time.Millisecond))
	if m != nil {
		fmt.Printf("status: %s  store: %s\n", m.Status, m.Store)
	}
	fmt.Printf("checkpoints: %d\n", len(result.Records))
	for _, r := range result.Records {
		fmt.Printf("  step %4d  t=%7.0f  %s  %s\n", r.Step, r.Time, r.Linear, r.Complete)
	}

	if len(result.Metrics) > 0 {
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("metrics:")
		for _, name := range names {
			fmt.Printf("  %-18s %.6f\n", name, result.Metrics[name])
		}
	}
	for _, err := range result.Errors {
		fmt.Printf("  error: %v\n", err)
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	catalog := checkpoint.NewCatalog(dataDir)
	if err := catalog.Init(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.LogLevel, true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	steps := march.StepCount(cfg.FinalTime, cfg.Tau)
	p := tea.NewProgram(viz.NewProgress(name, steps, cancel))

	exp := experiment.New(cfg, catalog,
		experiment.WithName(name),
		experiment.WithLogger(logger),
		experiment.WithObserver(viz.NewForwarder(p, cfg.ExteriorModel().At)),
	)
	if err := exp.Setup(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	defer exp.Close()

	var (
		result *march.Result
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, _, runErr = exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: result, Err: runErr})
	}()

	_, err = p.Run()
	cancel()
	<-done
	if err != nil {
		return err
	}

	if result != nil {
		fmt.Printf("run %s: %d steps, %d checkpoints\n", exp.ID(), result.Steps, len(result.Records))
	}
	return runErr
}
