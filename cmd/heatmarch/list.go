package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
)

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := checkpoint.NewCatalog(dataDir).List(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tSTORE\tSTEPS\tCHECKPOINTS")
	for _, m := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\n",
			m.ID, m.CreatedAt.Local().Format("2006-01-02 15:04:05"), m.Status, m.Store,
			m.StepsDone, m.Steps, len(m.Checkpoints))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFINAL TIME\tTAU\tFREQ\tREFINEMENTS\tTHETA")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%d\t%d\t%.2f\n",
			name, p.FinalTime, p.Tau, p.OutputFrequency, p.Refinements, p.Theta)
	}
	return w.Flush()
}
