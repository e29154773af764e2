package heat

import (
	"math"
)

// Field is the temperature at every mesh node at one instant. It implements
// march.Solution.
type Field struct {
	Mesh Mesh      `json:"mesh"`
	Step int       `json:"step"`
	Time float64   `json:"time"`
	Data []float64 `json:"data"`
}

func (f *Field) Values() []float64 { return f.Data }

func (f *Field) At(i, j int) float64 { return f.Data[f.Mesh.Index(i, j)] }

func (f *Field) Min() float64 {
	lo := math.Inf(1)
	for _, v := range f.Data {
		lo = math.Min(lo, v)
	}
	return lo
}

func (f *Field) Max() float64 {
	hi := math.Inf(-1)
	for _, v := range f.Data {
		hi = math.Max(hi, v)
	}
	return hi
}

func (f *Field) Mean() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range f.Data {
		sum += v
	}
	return sum / float64(len(f.Data))
}

// Linear is visualization-only data: node coordinates and values in single
// precision. It cannot be turned back into a Field.
type Linear struct {
	Step   int       `json:"step"`
	Time   float64   `json:"time"`
	NX     int       `json:"nx"`
	NY     int       `json:"ny"`
	X      []float32 `json:"x"`
	Y      []float32 `json:"y"`
	Values []float32 `json:"values"`
	Min    float32   `json:"min"`
	Max    float32   `json:"max"`
}

// At returns the value at node column i and row j.
func (l *Linear) At(i, j int) float32 { return l.Values[j*l.NX+i] }

func (f *Field) Linearize() *Linear {
	m := &f.Mesh
	l := &Linear{
		Step:   f.Step,
		Time:   f.Time,
		NX:     m.NX + 1,
		NY:     m.NY + 1,
		X:      make([]float32, m.NX+1),
		Y:      make([]float32, m.NY+1),
		Values: make([]float32, len(f.Data)),
		Min:    float32(f.Min()),
		Max:    float32(f.Max()),
	}
	for i := range l.X {
		l.X[i] = float32(float64(i) * m.Dx())
	}
	for j := range l.Y {
		l.Y[j] = float32(float64(j) * m.Dy())
	}
	for n, v := range f.Data {
		l.Values[n] = float32(v)
	}
	return l
}
