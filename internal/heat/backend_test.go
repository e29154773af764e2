package heat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/heatmarch/internal/march"
)

func tutorialBC() *BCTypes {
	bc := NewBCTypes()
	bc.AddEssential(MarkerGround)
	bc.AddNatural(MarkerAir)
	return bc
}

func newTestBackend(t *testing.T, ext Exterior, theta float64) *Backend {
	t.Helper()
	b, err := NewBackend(DefaultMesh(), tutorialBC(), Options{
		Material: DefaultMaterial(),
		Exterior: ext,
		Tau:      300,
		Theta:    theta,
	})
	require.NoError(t, err)
	return b
}

// advance runs the backend for n steps the way the driver does.
func advance(t *testing.T, b *Backend, n int) *Field {
	t.Helper()
	ctx := context.Background()
	sol, err := b.Initial()
	require.NoError(t, err)
	clock := 0.0
	for k := 1; k <= n; k++ {
		mode := march.RHSOnly
		if k == 1 {
			mode = march.Full
		}
		sys, err := b.Assemble(ctx, march.AssemblyRequest{Step: k, Time: clock, Mode: mode, Previous: sol})
		require.NoError(t, err)
		vec, err := b.Solve(ctx, sys)
		require.NoError(t, err)
		sol, err = b.Solution(vec, k, clock+b.tau)
		require.NoError(t, err)
		clock += b.tau
	}
	return sol.(*Field)
}

func TestBackendNumbering(t *testing.T) {
	b := newTestBackend(t, Exterior{Base: 10}, 1)
	// 5x7 nodes, the bottom row is held at the ground temperature.
	assert.Equal(t, 35, b.Mesh().Nodes())
	assert.Equal(t, 30, b.NDOF())
}

func TestSteadyState(t *testing.T) {
	for _, theta := range []float64{1, 0.5} {
		b := newTestBackend(t, Exterior{Base: 10}, theta)
		f := advance(t, b, 12)
		for n, v := range f.Data {
			assert.InDelta(t, 10, v, 1e-9, "theta=%v node %d", theta, n)
		}
	}
}

func TestHeatingStaysBounded(t *testing.T) {
	b := newTestBackend(t, Exterior{Base: 20}, 1)
	f1 := advance(t, b, 1)
	b = newTestBackend(t, Exterior{Base: 20}, 1)
	f10 := advance(t, b, 10)

	assert.Greater(t, f1.Mean(), 10.0)
	assert.Greater(t, f10.Mean(), f1.Mean())
	assert.LessOrEqual(t, f10.Max(), 20.0+1e-9)
	assert.GreaterOrEqual(t, f10.Min(), 10.0-1e-9)

	// ground row never moves
	for i := 0; i <= f10.Mesh.NX; i++ {
		assert.Equal(t, 10.0, f10.At(i, 0))
	}
	assert.Equal(t, 10, f10.Step)
	assert.Equal(t, 3000.0, f10.Time)
}

func TestPeriodicExteriorBounded(t *testing.T) {
	b := newTestBackend(t, Exterior{Base: 10, Amplitude: 10, Period: 18000}, 1)
	f := advance(t, b, 60)
	assert.LessOrEqual(t, f.Max(), 20.0)
	assert.GreaterOrEqual(t, f.Min(), 0.0)
}

func TestRHSOnlyBeforeFull(t *testing.T) {
	b := newTestBackend(t, Exterior{Base: 10}, 1)
	sol, err := b.Initial()
	require.NoError(t, err)

	_, err = b.Assemble(context.Background(), march.AssemblyRequest{Step: 1, Mode: march.RHSOnly, Previous: sol})
	assert.ErrorIs(t, err, ErrNoMatrix)
}

func TestAssembleRejectsForeignSolution(t *testing.T) {
	b := newTestBackend(t, Exterior{Base: 10}, 1)
	other := &Field{Mesh: *DefaultMesh(), Data: make([]float64, 3)}

	_, err := b.Assemble(context.Background(), march.AssemblyRequest{Step: 1, Mode: march.Full, Previous: other})
	assert.ErrorIs(t, err, ErrBadSolution)

	_, err = b.Solution(make(march.Vector, 2), 1, 300)
	assert.ErrorIs(t, err, ErrBadSolution)
}

func TestAssembleCanceled(t *testing.T) {
	b := newTestBackend(t, Exterior{Base: 10}, 1)
	sol, _ := b.Initial()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Assemble(ctx, march.AssemblyRequest{Step: 1, Mode: march.Full, Previous: sol})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBackendValidation(t *testing.T) {
	mesh := DefaultMesh()

	_, err := NewBackend(mesh, NewBCTypes(), Options{Material: DefaultMaterial(), Tau: 300})
	assert.ErrorIs(t, err, ErrUnknownMarker)

	_, err = NewBackend(mesh, tutorialBC(), Options{Material: Material{}, Tau: 300})
	assert.ErrorIs(t, err, ErrInvalidMaterial)

	_, err = NewBackend(mesh, tutorialBC(), Options{Material: DefaultMaterial()})
	assert.Error(t, err)

	_, err = NewBackend(mesh, tutorialBC(), Options{Material: DefaultMaterial(), Tau: 300, Theta: 0.2})
	assert.Error(t, err)
}
