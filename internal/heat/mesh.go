package heat

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidMesh = errors.New("heat: invalid mesh")

// Side identifies one edge of the rectangular domain.
type Side int

const (
	Bottom Side = iota
	Top
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Bottom:
		return "bottom"
	case Top:
		return "top"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Boundaries holds the marker of each side.
type Boundaries struct {
	Bottom int `yaml:"bottom" json:"bottom"`
	Top    int `yaml:"top" json:"top"`
	Left   int `yaml:"left" json:"left"`
	Right  int `yaml:"right" json:"right"`
}

func (b Boundaries) Marker(s Side) int {
	switch s {
	case Bottom:
		return b.Bottom
	case Top:
		return b.Top
	case Left:
		return b.Left
	default:
		return b.Right
	}
}

// Mesh is a rectangle of Width x Height metres split into NX x NY cells.
// Nodes sit on cell corners and are numbered row by row from the bottom left.
type Mesh struct {
	Width      float64    `yaml:"width" json:"width"`
	Height     float64    `yaml:"height" json:"height"`
	NX         int        `yaml:"nx" json:"nx"`
	NY         int        `yaml:"ny" json:"ny"`
	Boundaries Boundaries `yaml:"boundaries" json:"boundaries"`
}

const (
	MarkerGround = 1
	MarkerAir    = 2
)

// DefaultMesh is a 6 m x 9 m wall section: ground below, air on the other
// three sides.
func DefaultMesh() *Mesh {
	return &Mesh{
		Width:  6,
		Height: 9,
		NX:     4,
		NY:     6,
		Boundaries: Boundaries{
			Bottom: MarkerGround,
			Top:    MarkerAir,
			Left:   MarkerAir,
			Right:  MarkerAir,
		},
	}
}

// LoadMesh reads a YAML mesh description.
func LoadMesh(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load mesh: %w", err)
	}
	m := &Mesh{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("load mesh %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load mesh %s: %w", path, err)
	}
	return m, nil
}

func SaveMesh(path string, m *Mesh) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Mesh) Validate() error {
	if !(m.Width > 0) || !(m.Height > 0) {
		return fmt.Errorf("%w: size must be positive, got %vx%v", ErrInvalidMesh, m.Width, m.Height)
	}
	if m.NX < 1 || m.NY < 1 {
		return fmt.Errorf("%w: need at least one cell per axis, got %dx%d", ErrInvalidMesh, m.NX, m.NY)
	}
	return nil
}

// RefineAll halves the spacing in both directions.
func (m *Mesh) RefineAll() {
	m.NX *= 2
	m.NY *= 2
}

func (m *Mesh) Clone() *Mesh {
	c := *m
	return &c
}

func (m *Mesh) Dx() float64 { return m.Width / float64(m.NX) }
func (m *Mesh) Dy() float64 { return m.Height / float64(m.NY) }

// Nodes is the total node count.
func (m *Mesh) Nodes() int { return (m.NX + 1) * (m.NY + 1) }

func (m *Mesh) Index(i, j int) int { return j*(m.NX+1) + i }

func (m *Mesh) Coord(i, j int) (float64, float64) {
	return float64(i) * m.Dx(), float64(j) * m.Dy()
}

// Sides lists the boundary sides a node lies on.
func (m *Mesh) Sides(i, j int) []Side {
	var sides []Side
	if j == 0 {
		sides = append(sides, Bottom)
	}
	if j == m.NY {
		sides = append(sides, Top)
	}
	if i == 0 {
		sides = append(sides, Left)
	}
	if i == m.NX {
		sides = append(sides, Right)
	}
	return sides
}

// Markers returns the distinct boundary markers used by the mesh.
func (m *Mesh) Markers() []int {
	seen := make(map[int]bool)
	out := make([]int, 0, 4)
	for _, s := range []Side{Bottom, Top, Left, Right} {
		mk := m.Boundaries.Marker(s)
		if !seen[mk] {
			seen[mk] = true
			out = append(out, mk)
		}
	}
	return out
}

// halfWidth and halfHeight are the control volume extents of node (i, j).
func (m *Mesh) halfWidth(i int) float64 {
	if i == 0 || i == m.NX {
		return m.Dx() / 2
	}
	return m.Dx()
}

func (m *Mesh) halfHeight(j int) float64 {
	if j == 0 || j == m.NY {
		return m.Dy() / 2
	}
	return m.Dy()
}
