package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/heat"
	"github.com/san-kum/heatmarch/internal/viz"
)

// resolve finds a checkpoint file either as given or relative to the data
// directory (run_id/tsln_20.lin).
func resolve(arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	alt := filepath.Join(dataDir, arg)
	if _, err := os.Stat(alt); err == nil {
		return alt, nil
	}
	return "", fmt.Errorf("checkpoint not found: %s", arg)
}

// loadGrid reads a .lin or .dat file into a grid.
func loadGrid(arg string) (*viz.Grid, error) {
	path, err := resolve(arg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case checkpoint.ExtLinear:
		lin, err := heat.ReadLinear(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return viz.FromLinear(lin), nil
	default:
		field, err := heat.ReadSolution(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return viz.FromField(field), nil
	}
}

func showCheckpoint(cmd *cobra.Command, args []string) error {
	g, err := loadGrid(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.Show(filepath.Base(args[0]), g, lo, hi))
	return nil
}

func inspectSolution(cmd *cobra.Command, args []string) error {
	path, err := resolve(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	field, err := heat.ReadSolution(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	m := field.Mesh
	fmt.Println(viz.MeshView(&m, 30, 12))
	fmt.Println()
	fmt.Printf("step:   %d\n", field.Step)
	fmt.Printf("time:   %.0f s\n", field.Time)
	fmt.Printf("nodes:  %d\n", m.Nodes())
	fmt.Printf("dx, dy: %.4f, %.4f m\n", m.Dx(), m.Dy())
	fmt.Printf("T:      min %.4f  mean %.4f  max %.4f\n", field.Min(), field.Mean(), field.Max())
	return nil
}

func renderCheckpoint(cmd *cobra.Command, args []string) error {
	if pngPath == "" && svgPath == "" {
		return fmt.Errorf("nothing to render: pass --png or --svg")
	}
	g, err := loadGrid(args[0])
	if err != nil {
		return err
	}

	if pngPath != "" {
		f, err := os.Create(pngPath)
		if err != nil {
			return err
		}
		if err := viz.WriteImage(f, g, lo, hi, "png"); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
	}
	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(viz.GridToSVG(g, lo, hi, cellSize)), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	g, err := loadGrid(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"x", "y", "T"}); err != nil {
		return err
	}
	cols, rows := g.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rec := []string{
				strconv.FormatFloat(g.X(c), 'g', -1, 64),
				strconv.FormatFloat(g.Y(r), 'g', -1, 64),
				strconv.FormatFloat(g.Z(c, r), 'g', -1, 64),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
