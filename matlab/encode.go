package matlab

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encode writes ms as double-class variables of a little-endian Level 5
// MAT-file. With compress set every variable is stored zlib-compressed.
func Encode(w io.Writer, compress bool, ms ...*Matrix) error {
	header := make([]byte, headerLen)
	for i := range header[:116] {
		header[i] = ' '
	}
	copy(header, "MATLAB 5.0 MAT-file, written by sundry")
	binary.LittleEndian.PutUint16(header[124:], 0x0100)
	copy(header[126:], "IM")
	if _, err := w.Write(header); err != nil {
		return err
	}

	for _, m := range ms {
		if len(m.Data) != m.Rows*m.Cols {
			return fmt.Errorf("matlab: %q holds %d values for %dx%d", m.Name, len(m.Data), m.Rows, m.Cols)
		}

		el := matrixElement(m)
		if compress {
			var zb bytes.Buffer
			zw := zlib.NewWriter(&zb)
			if _, err := zw.Write(el); err != nil {
				return err
			}
			if err := zw.Close(); err != nil {
				return err
			}
			el = appendTag(nil, miCOMPRESSED, zb.Len())
			el = append(el, zb.Bytes()...)
		}
		if _, err := w.Write(el); err != nil {
			return err
		}
	}
	return nil
}

func matrixElement(m *Matrix) []byte {
	var body []byte

	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, mxDOUBLE)
	body = appendElement(body, miUINT32, flags)

	dims := make([]byte, 8)
	binary.LittleEndian.PutUint32(dims[0:], uint32(m.Rows))
	binary.LittleEndian.PutUint32(dims[4:], uint32(m.Cols))
	body = appendElement(body, miINT32, dims)

	body = appendElement(body, miINT8, []byte(m.Name))

	data := make([]byte, 8*len(m.Data))
	for i, v := range m.Data {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	body = appendElement(body, miDOUBLE, data)

	return appendElement(nil, miMATRIX, body)
}

func appendTag(b []byte, typ uint32, n int) []byte {
	b = binary.LittleEndian.AppendUint32(b, typ)
	return binary.LittleEndian.AppendUint32(b, uint32(n))
}

func appendElement(b []byte, typ uint32, data []byte) []byte {
	b = appendTag(b, typ, len(data))
	b = append(b, data...)
	return append(b, make([]byte, pad8(len(data))-len(data))...)
}
