package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/heatmarch/internal/heat"
	"github.com/san-kum/heatmarch/internal/march"
)

type plainSolution []float64

func (p plainSolution) Values() []float64 { return p }

// failingStore fails every Put whose name matches.
type failingStore struct {
	Store
	name string
}

func (f failingStore) Put(ctx context.Context, name string, data []byte) error {
	if name == f.name {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, name, data)
}

func testField(step int) *heat.Field {
	m := heat.DefaultMesh()
	data := make([]float64, m.Nodes())
	for i := range data {
		data[i] = 10 + float64(i%7)
	}
	return &heat.Field{Mesh: *m, Step: step, Time: float64(step) * 300, Data: data}
}

func TestWriterCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	w := NewWriter(store, WithCompression(true))

	rec, err := w.Checkpoint(ctx, 20, 6000, testField(20))
	require.NoError(t, err)
	assert.Equal(t, march.Record{Step: 20, Time: 6000, Linear: "tsln_20.lin", Complete: "tsln_20.dat"}, rec)

	data, err := store.Get(ctx, rec.Complete)
	require.NoError(t, err)
	got, err := heat.ReadSolution(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, testField(20), got)

	data, err = store.Get(ctx, rec.Linear)
	require.NoError(t, err)
	lin, err := heat.ReadLinear(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, lin.Step)
}

func TestWriterErrors(t *testing.T) {
	ctx := context.Background()

	w := NewWriter(NewFileStore(t.TempDir()))
	_, err := w.Checkpoint(ctx, 20, 6000, plainSolution{1, 2})
	assert.ErrorIs(t, err, ErrNotSource)
	assert.ErrorIs(t, err, march.ErrCheckpointWrite)

	inner := NewFileStore(t.TempDir())
	w = NewWriter(failingStore{Store: inner, name: "tsln_40.dat"})
	_, err = w.Checkpoint(ctx, 40, 12000, testField(40))

	var cerr *march.CheckpointWriteError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 40, cerr.Step)
	assert.Equal(t, "tsln_40.dat", cerr.Name)
	assert.False(t, errors.Is(err, march.ErrSolverFailure))

	names, err := inner.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "linear file without its solution is removed")
}
