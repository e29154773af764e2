package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/heatmarch/internal/automation"
	"github.com/san-kum/heatmarch/internal/checkpoint"
)

var (
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepPoints  int
	sweepWorkers int
	sweepMetric  string
)

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(logLevel, false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := automation.NewRunner(checkpoint.NewCatalog(dataDir), automation.WithLogger(logger))
	outcomes, err := runner.RunScenario(ctx, scenario)
	printOutcomes(outcomes)
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := automation.NewRunner(checkpoint.NewCatalog(dataDir), automation.WithLogger(logger))
	results, err := runner.RunSweep(ctx, &automation.Sweep{
		Base:    cfg,
		Name:    name,
		Param:   sweepParam,
		Min:     sweepMin,
		Max:     sweepMax,
		Points:  sweepPoints,
		Workers: sweepWorkers,
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tID\tSTATUS\t%s\n", sweepParam, sweepMetric)
	for _, res := range results {
		fmt.Fprintf(w, "%g\t%s\t%s\t%.6f\n", res.Value, res.ID, res.Status, res.Metrics[sweepMetric])
	}
	w.Flush()

	if best, ok := automation.Best(results, sweepMetric); ok {
		fmt.Printf("lowest %s: %s=%g (%s)\n", sweepMetric, sweepParam, best.Value, best.ID)
	}
	return err
}

func printOutcomes(outcomes []automation.Outcome) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tSTATUS\tSTEPS\tCHECKPOINTS\tMETRICS")
	for _, o := range outcomes {
		names := make([]string, 0, len(o.Metrics))
		for n := range o.Metrics {
			names = append(names, n)
		}
		sort.Strings(names)
		metrics := ""
		for _, n := range names {
			metrics += fmt.Sprintf("%s=%.4f ", n, o.Metrics[n])
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", o.Name, o.ID, o.Status, o.Steps, o.Checkpoints, metrics)
	}
	w.Flush()
}
