package heat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleField() *Field {
	m := DefaultMesh()
	data := make([]float64, m.Nodes())
	for i := range data {
		data[i] = 10 + float64(i)/10
	}
	return &Field{Mesh: *m, Step: 20, Time: 6000, Data: data}
}

func TestSolutionCompressionDetected(t *testing.T) {
	f := sampleField()
	for _, enc := range []string{EncodingGob, EncodingJSON} {
		var plain, packed bytes.Buffer
		require.NoError(t, f.WriteSolution(&plain, enc, false))
		require.NoError(t, f.WriteSolution(&packed, enc, true))
		assert.Equal(t, []byte{0x1f, 0x8b}, packed.Bytes()[:2])

		for _, buf := range []*bytes.Buffer{&plain, &packed} {
			got, err := ReadSolution(buf)
			require.NoError(t, err, enc)
			assert.Equal(t, f, got)
		}
	}
}

func TestLinearIsSinglePrecision(t *testing.T) {
	f := sampleField()
	var buf bytes.Buffer
	require.NoError(t, f.WriteLinear(&buf, EncodingJSON))

	l, err := ReadLinear(&buf)
	require.NoError(t, err)
	assert.Equal(t, 5, l.NX)
	assert.Equal(t, 7, l.NY)
	assert.Equal(t, float32(6), l.X[4])
	assert.Equal(t, float32(9), l.Y[6])
	assert.Equal(t, float32(f.At(2, 3)), l.At(2, 3))
	assert.Equal(t, float32(f.Max()), l.Max)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := ReadSolution(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrBadFormat)

	_, err = ReadLinear(bytes.NewReader([]byte(`{"Version":7}`)))
	assert.ErrorIs(t, err, ErrBadFormat)

	assert.Error(t, CheckEncoding("xml"))
	assert.NoError(t, CheckEncoding(""))
}

func TestReadRejectsInconsistentShape(t *testing.T) {
	encode := func(v any) *bytes.Buffer {
		var buf bytes.Buffer
		require.NoError(t, newEncoder(&buf, EncodingJSON).Encode(v))
		return &buf
	}

	_, err := ReadLinear(encode(linearFile{Version: formatVersion, Linear: Linear{
		NX: 2, NY: 1, X: []float32{0, 1, 2, 3}, Y: []float32{0}, Values: []float32{10, 10},
	}}))
	assert.ErrorIs(t, err, ErrBadFormat)

	_, err = ReadLinear(encode(linearFile{Version: formatVersion, Linear: Linear{
		NX: -1, NY: -2, X: []float32{}, Y: []float32{}, Values: []float32{10, 10},
	}}))
	assert.ErrorIs(t, err, ErrBadFormat)

	m := DefaultMesh()
	m.NX, m.NY = -2, -2
	_, err = ReadSolution(encode(solutionFile{Version: formatVersion, Field: Field{Mesh: *m, Data: []float64{10}}}))
	assert.ErrorIs(t, err, ErrBadFormat)
}
