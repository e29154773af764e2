package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/heatmarch/internal/heat"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille dot canvas of (Width*2) x (Height*4) pixels with the
// origin at the top left.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		b.WriteString(string(row))
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// MeshView draws the grid lines of m scaled to fit a canvas of w x h
// characters, followed by the marker of each side.
func MeshView(m *heat.Mesh, w, h int) string {
	c := NewCanvas(w, h)
	pw, ph := float64(w*2-1), float64(h*4-1)
	sx, sy := pw/m.Width, ph/m.Height
	s := sx
	if sy < s {
		s = sy
	}

	px := func(x float64) int { return int(x * s) }
	py := func(y float64) int { return int((m.Height - y) * s) }

	for i := 0; i <= m.NX; i++ {
		x, _ := m.Coord(i, 0)
		c.DrawLine(px(x), py(0), px(x), py(m.Height))
	}
	for j := 0; j <= m.NY; j++ {
		_, y := m.Coord(0, j)
		c.DrawLine(px(0), py(y), px(m.Width), py(y))
	}

	b := m.Boundaries
	legend := fmt.Sprintf("%.2f x %.2f m, %d x %d cells, markers bottom=%d top=%d left=%d right=%d",
		m.Width, m.Height, m.NX, m.NY, b.Bottom, b.Top, b.Left, b.Right)
	return c.String() + "\n" + legend
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
