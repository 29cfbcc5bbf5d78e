package mcds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// matMatrix is a dense numeric matrix read from a MATLAB Level-4 file. The
// simulator writes one matrix per cells file, rows are attributes and columns
// are cells, column-major.
type matMatrix struct {
	name string
	rows int
	cols int
	data []float64
}

// mat4Header is the fixed 20-byte preamble of a Level-4 array.
type mat4Header struct {
	Type    int32 // MOPT digits: byte order, zeros, precision, matrix class
	Rows    int32
	Cols    int32
	Imagf   int32
	NameLen int32 // includes the trailing NUL
}

// readMat4 reads the first matrix from a MATLAB Level-4 file. Only the layout
// the simulator emits is supported: little-endian, real, float64 payload.
func readMat4(path string) (*matMatrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading matrix file: %w", err)
	}
	r := bytes.NewReader(raw)

	var hdr mat4Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading matrix header in %s: %w", path, err)
	}
	if hdr.Type != 0 {
		return nil, fmt.Errorf("unsupported matrix type %d in %s (want little-endian float64)", hdr.Type, path)
	}
	if hdr.Imagf != 0 {
		return nil, fmt.Errorf("complex matrices are not supported (%s)", path)
	}
	if hdr.Rows < 0 || hdr.Cols < 0 || hdr.NameLen <= 0 {
		return nil, fmt.Errorf("malformed matrix header in %s", path)
	}

	name := make([]byte, hdr.NameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("reading matrix name in %s: %w", path, err)
	}

	// Size the payload from what is actually in the file before allocating,
	// so a corrupt header cannot demand an absurd slice.
	payload := int64(r.Len())
	want := int64(hdr.Rows) * int64(hdr.Cols)
	if payload%8 != 0 || payload/8 != want {
		return nil, fmt.Errorf("matrix payload in %s holds %d bytes, header says %d values", path, payload, want)
	}

	data := make([]float64, int(want))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("reading matrix payload in %s: %w", path, err)
	}

	return &matMatrix{
		name: string(bytes.TrimRight(name, "\x00")),
		rows: int(hdr.Rows),
		cols: int(hdr.Cols),
		data: data,
	}, nil
}

// at returns the element at (row, col). Storage is column-major.
func (m *matMatrix) at(row, col int) float64 {
	return m.data[col*m.rows+row]
}
