package heat

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownMarker = errors.New("heat: boundary marker not classified")

type BCKind int

const (
	Natural BCKind = iota
	Essential
)

func (k BCKind) String() string {
	if k == Essential {
		return "essential"
	}
	return "natural"
}

// BCTypes classifies boundary markers as essential or natural.
type BCTypes struct {
	kinds map[int]BCKind
}

func NewBCTypes() *BCTypes {
	return &BCTypes{kinds: make(map[int]BCKind)}
}

func (b *BCTypes) AddEssential(markers ...int) {
	for _, m := range markers {
		b.kinds[m] = Essential
	}
}

func (b *BCTypes) AddNatural(markers ...int) {
	for _, m := range markers {
		b.kinds[m] = Natural
	}
}

func (b *BCTypes) Kind(marker int) (BCKind, bool) {
	k, ok := b.kinds[marker]
	return k, ok
}

func (b *BCTypes) Markers() []int {
	out := make([]int, 0, len(b.kinds))
	for m := range b.kinds {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// Check verifies every marker used by the mesh is classified.
func (b *BCTypes) Check(m *Mesh) error {
	for _, mk := range m.Markers() {
		if _, ok := b.kinds[mk]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownMarker, mk)
		}
	}
	return nil
}

func (b *BCTypes) isEssential(m *Mesh, i, j int) bool {
	for _, s := range m.Sides(i, j) {
		if b.kinds[m.Boundaries.Marker(s)] == Essential {
			return true
		}
	}
	return false
}
