package viz

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteImage renders g as a heat map with the color range fixed to
// [lo, hi]. format is any format gonum/plot knows, e.g. png or svg.
func WriteImage(w io.Writer, g *Grid, lo, hi float64, format string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Temperature, step %d (t = %.0f s)", g.Step, g.Time)
	p.X.Label.Text = "x [m]"
	p.Y.Label.Text = "y [m]"

	hm := plotter.NewHeatMap(g, palette.Heat(16, 1))
	hm.Min, hm.Max = lo, hi
	p.Add(hm)

	nc, nr := g.Dims()
	width := 4 * vg.Inch
	height := width * vg.Length(g.Y(nr-1)/g.X(nc-1))
	if height > 8*vg.Inch {
		height = 8 * vg.Inch
	}

	wt, err := p.WriterTo(width, height+vg.Inch, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}
