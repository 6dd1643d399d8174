package matlab

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	// ErrNotMAT5 is returned when the input is not a Level 5 MAT-file.
	ErrNotMAT5 = errors.New("matlab: not a level 5 MAT-file")
	// ErrVariableNotFound is returned when no numeric variable has the name.
	ErrVariableNotFound = errors.New("matlab: variable not found")
	// ErrUnsupported is returned for arrays this package cannot decode.
	ErrUnsupported = errors.New("matlab: unsupported array")
	errTruncated   = errors.New("matlab: truncated data element")
)

const headerLen = 128

// Data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// Array classes.
const (
	mxDOUBLE = 6
	mxSINGLE = 7
	mxINT8   = 8
	mxUINT8  = 9
	mxINT16  = 10
	mxUINT16 = 11
	mxINT32  = 12
	mxUINT32 = 13
	mxINT64  = 14
	mxUINT64 = 15
)

var classNames = map[uint8]string{
	mxDOUBLE: "double",
	mxSINGLE: "single",
	mxINT8:   "int8",
	mxUINT8:  "uint8",
	mxINT16:  "int16",
	mxUINT16: "uint16",
	mxINT32:  "int32",
	mxUINT32: "uint32",
	mxINT64:  "int64",
	mxUINT64: "uint64",
}

// Matrix is a two-dimensional numeric array. Data is stored column-major,
// as in the file.
type Matrix struct {
	Name  string
	Class string
	Rows  int
	Cols  int
	Data  []float64
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Data[j*m.Rows+i]
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.Cols)
	for j := range out {
		out[j] = m.At(i, j)
	}
	return out
}

// RowSlices returns every row.
func (m *Matrix) RowSlices() [][]float64 {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// ReadMatrixFile opens path and reads variable from it.
func ReadMatrixFile(path, variable string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadMatrix(f, variable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadMatrix scans a MAT-file for the numeric variable named variable.
func ReadMatrix(r io.Reader, variable string) (*Matrix, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(buf) < headerLen {
		return nil, ErrNotMAT5
	}

	var order binary.ByteOrder
	switch string(buf[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, ErrNotMAT5
	}

	rest := buf[headerLen:]
	for len(rest) > 0 {
		typ, data, next, err := readElement(rest, order)
		if err != nil {
			return nil, err
		}
		rest = next

		if typ == miCOMPRESSED {
			typ, data, err = inflate(data, order)
			if err != nil {
				return nil, err
			}
		}
		if typ != miMATRIX || len(data) == 0 {
			continue
		}

		m, err := decodeMatrix(data, order, variable)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, variable)
}

// readElement splits the first data element off b. Padding up to the next
// 8-byte boundary is consumed, except after compressed elements.
func readElement(b []byte, order binary.ByteOrder) (typ uint32, data, rest []byte, err error) {
	if len(b) < 8 {
		return 0, nil, nil, errTruncated
	}

	first := order.Uint32(b[0:4])
	if small := first >> 16; small != 0 {
		// Small data element: type and size share the first word.
		n := int(small)
		if n > 4 {
			return 0, nil, nil, errTruncated
		}
		return first & 0xFFFF, b[4 : 4+n], b[8:], nil
	}

	n := int(order.Uint32(b[4:8]))
	if n < 0 || len(b) < 8+n {
		return 0, nil, nil, errTruncated
	}
	data = b[8 : 8+n]

	end := 8 + n
	if first != miCOMPRESSED {
		end = 8 + pad8(n)
		if end > len(b) {
			end = len(b)
		}
	}
	return first, data, b[end:], nil
}

func pad8(n int) int {
	return (n + 7) &^ 7
}

func inflate(data []byte, order binary.ByteOrder) (uint32, []byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("matlab: inflate: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return 0, nil, fmt.Errorf("matlab: inflate: %w", err)
	}
	typ, inner, _, err := readElement(raw, order)
	return typ, inner, err
}

var errSkip = errors.New("skip")

func decodeMatrix(b []byte, order binary.ByteOrder, want string) (*Matrix, error) {
	typ, flags, b, err := readElement(b, order)
	if err != nil {
		return nil, err
	}
	if typ != miUINT32 || len(flags) < 8 {
		return nil, fmt.Errorf("%w: bad array flags", ErrUnsupported)
	}
	class := uint8(order.Uint32(flags[0:4]) & 0xFF)

	typ, dimsRaw, b, err := readElement(b, order)
	if err != nil {
		return nil, err
	}
	if typ != miINT32 {
		return nil, fmt.Errorf("%w: bad dimensions", ErrUnsupported)
	}

	_, nameRaw, b, err := readElement(b, order)
	if err != nil {
		return nil, err
	}
	if string(nameRaw) != want {
		return nil, errSkip
	}

	className, numeric := classNames[class]
	if !numeric {
		return nil, fmt.Errorf("%w: %q has class %d", ErrUnsupported, want, class)
	}

	dims := make([]int, len(dimsRaw)/4)
	for i := range dims {
		dims[i] = int(int32(order.Uint32(dimsRaw[4*i:])))
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: %q has %d dimensions", ErrUnsupported, want, len(dims))
	}

	typ, re, _, err := readElement(b, order)
	if err != nil {
		return nil, err
	}
	values, err := decodeNumeric(typ, re, order)
	if err != nil {
		return nil, err
	}
	if len(values) != dims[0]*dims[1] {
		return nil, fmt.Errorf("%w: %q holds %d values for %dx%d", ErrUnsupported, want, len(values), dims[0], dims[1])
	}

	return &Matrix{
		Name:  want,
		Class: className,
		Rows:  dims[0],
		Cols:  dims[1],
		Data:  values,
	}, nil
}

func decodeNumeric(typ uint32, b []byte, order binary.ByteOrder) ([]float64, error) {
	var size int
	var conv func([]byte) float64

	switch typ {
	case miINT8:
		size, conv = 1, func(p []byte) float64 { return float64(int8(p[0])) }
	case miUINT8:
		size, conv = 1, func(p []byte) float64 { return float64(p[0]) }
	case miINT16:
		size, conv = 2, func(p []byte) float64 { return float64(int16(order.Uint16(p))) }
	case miUINT16:
		size, conv = 2, func(p []byte) float64 { return float64(order.Uint16(p)) }
	case miINT32:
		size, conv = 4, func(p []byte) float64 { return float64(int32(order.Uint32(p))) }
	case miUINT32:
		size, conv = 4, func(p []byte) float64 { return float64(order.Uint32(p)) }
	case miSINGLE:
		size, conv = 4, func(p []byte) float64 { return float64(math.Float32frombits(order.Uint32(p))) }
	case miDOUBLE:
		size, conv = 8, func(p []byte) float64 { return math.Float64frombits(order.Uint64(p)) }
	case miINT64:
		size, conv = 8, func(p []byte) float64 { return float64(int64(order.Uint64(p))) }
	case miUINT64:
		size, conv = 8, func(p []byte) float64 { return float64(order.Uint64(p)) }
	default:
		return nil, fmt.Errorf("%w: data type %d", ErrUnsupported, typ)
	}

	if len(b)%size != 0 {
		return nil, errTruncated
	}
	out := make([]float64, len(b)/size)
	for i := range out {
		out[i] = conv(b[i*size:])
	}
	return out, nil
}
