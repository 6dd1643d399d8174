package matlab

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Matrix {
	// [[1 2 3]
	//  [4 5 6]] stored column-major.
	return &Matrix{Name: "A", Rows: 2, Cols: 3, Data: []float64{1, 4, 2, 5, 3, 6}}
}

func encode(t *testing.T, compress bool, ms ...*Matrix) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, compress, ms...))
	return buf.Bytes()
}

func TestReadMatrix_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		other := &Matrix{Name: "other", Rows: 1, Cols: 1, Data: []float64{42}}
		raw := encode(t, compress, other, sample())

		m, err := ReadMatrix(bytes.NewReader(raw), "A")
		require.NoError(t, err, "compress=%v", compress)
		assert.Equal(t, "double", m.Class)
		assert.Equal(t, 2, m.Rows)
		assert.Equal(t, 3, m.Cols)
		assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, m.RowSlices())
		assert.Equal(t, 6.0, m.At(1, 2))
	}
}

func TestReadMatrix_NotFound(t *testing.T) {
	t.Parallel()

	_, err := ReadMatrix(bytes.NewReader(encode(t, true, sample())), "B")
	assert.ErrorIs(t, err, ErrVariableNotFound)
}

func TestReadMatrix_NotMAT(t *testing.T) {
	t.Parallel()

	_, err := ReadMatrix(bytes.NewReader([]byte("short")), "A")
	assert.ErrorIs(t, err, ErrNotMAT5)

	_, err = ReadMatrix(bytes.NewReader(make([]byte, headerLen)), "A")
	assert.ErrorIs(t, err, ErrNotMAT5)
}

// bigEndianInt16 builds a big-endian file holding an int16 row vector whose
// name is stored as a small data element.
func bigEndianInt16(name string, vals []int16) []byte {
	be := binary.BigEndian
	el := func(typ uint32, data []byte) []byte {
		out := be.AppendUint32(nil, typ)
		out = be.AppendUint32(out, uint32(len(data)))
		out = append(out, data...)
		return append(out, make([]byte, pad8(len(data))-len(data))...)
	}

	flags := be.AppendUint32(nil, mxINT16)
	flags = be.AppendUint32(flags, 0)
	dims := be.AppendUint32(be.AppendUint32(nil, 1), uint32(len(vals)))

	small := be.AppendUint32(nil, uint32(len(name))<<16|miINT8)
	small = append(small, name...)
	small = append(small, make([]byte, 4-len(name))...)

	var data []byte
	for _, v := range vals {
		data = be.AppendUint16(data, uint16(v))
	}

	body := el(miUINT32, flags)
	body = append(body, el(miINT32, dims)...)
	body = append(body, small...)
	body = append(body, el(miINT16, data)...)

	header := make([]byte, headerLen)
	be.PutUint16(header[124:], 0x0100)
	copy(header[126:], "MI")
	return append(header, el(miMATRIX, body)...)
}

func TestReadMatrix_BigEndianSmallElements(t *testing.T) {
	t.Parallel()

	m, err := ReadMatrix(bytes.NewReader(bigEndianInt16("v", []int16{-3, 0, 7})), "v")
	require.NoError(t, err)
	assert.Equal(t, "int16", m.Class)
	assert.Equal(t, [][]float64{{-3, 0, 7}}, m.RowSlices())
}

func TestDecodeNumeric(t *testing.T) {
	t.Parallel()

	le := binary.LittleEndian
	f32 := le.AppendUint32(nil, math.Float32bits(1.5))
	got, err := decodeNumeric(miSINGLE, f32, le)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, got)

	got, err = decodeNumeric(miUINT8, []byte{0, 255}, le)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 255}, got)

	_, err = decodeNumeric(miDOUBLE, []byte{1, 2, 3}, le)
	assert.Error(t, err)

	_, err = decodeNumeric(99, nil, le)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEncode_SizeMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Encode(&buf, false, &Matrix{Name: "x", Rows: 2, Cols: 2, Data: []float64{1}})
	assert.Error(t, err)
}

// testdata/savemat_v5.mat is written by testdata/mkfixture.py independently
// of Encode, in the compressed layout MATLAB and scipy produce.
const fixture = "testdata/savemat_v5.mat"

func TestReadMatrixFile_Fixture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		variable string
		class    string
		rows     [][]float64
	}{
		{"A", "double", [][]float64{{1.5, -2, 3.25}, {4, 5e-3, 6e10}}},
		{"counts", "int32", [][]float64{{-3, 0, 7, 100000}}},
		{"packed", "double", [][]float64{{1}, {2}, {255}}},
	}
	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			t.Parallel()
			m, err := ReadMatrixFile(fixture, tt.variable)
			require.NoError(t, err)
			assert.Equal(t, tt.class, m.Class)
			assert.Equal(t, tt.rows, m.RowSlices())
		})
	}
}

func TestReadMatrixFile_FixtureCharIsUnsupported(t *testing.T) {
	t.Parallel()

	_, err := ReadMatrixFile(fixture, "s")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = ReadMatrixFile(fixture, "missing")
	assert.ErrorIs(t, err, ErrVariableNotFound)
}
