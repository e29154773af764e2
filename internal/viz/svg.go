package viz

import (
	"fmt"
	"strings"
)

// GridToSVG draws every node as a square of cell pixels colored on the
// fixed range [lo, hi]. The bottom row of the grid is drawn last, at the
// bottom of the image.
func GridToSVG(g *Grid, lo, hi float64, cell int) string {
	if cell <= 0 {
		cell = 16
	}
	nc, nr := g.Dims()
	width, height := nc*cell, nr*cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<title>step %d, t = %.0f s</title>
<g stroke="none">
`, width, height, width, height, g.Step, g.Time))

	for r := 0; r < nr; r++ {
		y := (nr - 1 - r) * cell
		for c := 0; c < nc; c++ {
			v := g.Z(c, r)
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%.3f</title></rect>
`, c*cell, y, cell, cell, heatColor(v, lo, hi), v))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
