package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every Store must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing object", func(t *testing.T) {
		_, err := s.Get(ctx, "tsln_999.dat")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put get overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "tsln_20.lin", []byte("first")))
		require.NoError(t, s.Put(ctx, "tsln_20.lin", []byte("second")))

		got, err := s.Get(ctx, "tsln_20.lin")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("list sorted", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "tsln_20.dat", []byte{0x1f, 0x8b, 0}))
		require.NoError(t, s.Put(ctx, "manifest.json", []byte("{}")))

		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"manifest.json", "tsln_20.dat", "tsln_20.lin"}, names)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "tsln_20.dat"))
		require.NoError(t, s.Delete(ctx, "tsln_20.dat"), "deleting twice is not an error")

		_, err := s.Get(ctx, "tsln_20.dat")
		assert.ErrorIs(t, err, ErrNotFound)

		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, names, "tsln_20.dat")
	})

	t.Run("invalid names", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, "", []byte("x")), ErrInvalidName)
		assert.ErrorIs(t, s.Put(ctx, "../escape", []byte("x")), ErrInvalidName)
		_, err := s.Get(ctx, "..")
		assert.ErrorIs(t, err, ErrInvalidName)
		assert.ErrorIs(t, s.Delete(ctx, "a/b"), ErrInvalidName)
		assert.ErrorIs(t, s.Delete(ctx, ""), ErrInvalidName)
	})
}
