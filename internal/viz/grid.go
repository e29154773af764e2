package viz

import (
	"math"

	"github.com/san-kum/heatmarch/internal/heat"
)

// Grid is a structured field ready for drawing. Values are stored row by
// row from the bottom. It implements plotter.GridXYZ.
type Grid struct {
	Step   int
	Time   float64
	Xs, Ys []float64
	Values []float64
}

func FromLinear(l *heat.Linear) *Grid {
	g := &Grid{
		Step:   l.Step,
		Time:   l.Time,
		Xs:     make([]float64, l.NX),
		Ys:     make([]float64, l.NY),
		Values: make([]float64, len(l.Values)),
	}
	for i, x := range l.X {
		g.Xs[i] = float64(x)
	}
	for j, y := range l.Y {
		g.Ys[j] = float64(y)
	}
	for n, v := range l.Values {
		g.Values[n] = float64(v)
	}
	return g
}

func FromField(f *heat.Field) *Grid {
	m := &f.Mesh
	g := &Grid{
		Step:   f.Step,
		Time:   f.Time,
		Xs:     make([]float64, m.NX+1),
		Ys:     make([]float64, m.NY+1),
		Values: append([]float64(nil), f.Data...),
	}
	for i := range g.Xs {
		g.Xs[i], _ = m.Coord(i, 0)
	}
	for j := range g.Ys {
		_, g.Ys[j] = m.Coord(0, j)
	}
	return g
}

func (g *Grid) Dims() (c, r int)   { return len(g.Xs), len(g.Ys) }
func (g *Grid) Z(c, r int) float64 { return g.Values[r*len(g.Xs)+c] }
func (g *Grid) X(c int) float64    { return g.Xs[c] }
func (g *Grid) Y(r int) float64    { return g.Ys[r] }

func (g *Grid) Column(c int) []float64 {
	out := make([]float64, len(g.Ys))
	for r := range out {
		out[r] = g.Z(c, r)
	}
	return out
}

func (g *Grid) Row(r int) []float64 {
	n := len(g.Xs)
	return append([]float64(nil), g.Values[r*n:(r+1)*n]...)
}

func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
