package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// DefaultLo and DefaultHi are the fixed temperature range used when showing
// checkpoints, so frames of one run compare directly.
const (
	DefaultLo = 0.0
	DefaultHi = 20.0
)

// HeatMap draws one colored cell per node, top row first.
func HeatMap(g *Grid, lo, hi float64) string {
	nc, nr := g.Dims()
	var b strings.Builder
	for r := nr - 1; r >= 0; r-- {
		for c := 0; c < nc; c++ {
			cell := lipgloss.NewStyle().Foreground(lipgloss.Color(heatColor(g.Z(c, r), lo, hi)))
			b.WriteString(cell.Render("██"))
		}
		if r > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Legend is a horizontal color bar labelled with the range.
func Legend(lo, hi float64, width int) string {
	if width < 2 {
		width = 2
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		v := lo + (hi-lo)*float64(i)/float64(width-1)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(heatColor(v, lo, hi))).Render("▇"))
	}
	return fmt.Sprintf("%6.2f %s %6.2f", lo, b.String(), hi)
}

// Profiles plots the temperature up the middle column and along the middle
// row.
func Profiles(g *Grid) string {
	nc, nr := g.Dims()
	vertical := asciigraph.Plot(g.Column(nc/2),
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("T along x=%.2f m, bottom to top", g.X(nc/2))),
	)
	horizontal := asciigraph.Plot(g.Row(nr/2),
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("T along y=%.2f m, left to right", g.Y(nr/2))),
	)
	return graphStyle.Render(vertical) + "\n" + graphStyle.Render(horizontal)
}

// Show is the full terminal view of one checkpoint.
func Show(title string, g *Grid, lo, hi float64) string {
	nc, nr := g.Dims()
	gmin, gmax := g.Range()

	var info strings.Builder
	info.WriteString(labelStyle.Render("step") + valueStyle.Render(fmt.Sprintf("%d", g.Step)) + "\n")
	info.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.0f s", g.Time)) + "\n")
	info.WriteString(labelStyle.Render("nodes") + valueStyle.Render(fmt.Sprintf("%d x %d", nc, nr)) + "\n")
	info.WriteString(labelStyle.Render("min / max") + valueStyle.Render(fmt.Sprintf("%.3f / %.3f", gmin, gmax)) + "\n")
	info.WriteString(labelStyle.Render("range") + valueStyle.Render(fmt.Sprintf("%.1f .. %.1f", lo, hi)))

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(HeatMap(g, lo, hi)),
		"  ",
		info.String(),
	)
	return headerStyle.Render(title) + "\n" + top + "\n" + Legend(lo, hi, 24) + "\n" + Profiles(g)
}
