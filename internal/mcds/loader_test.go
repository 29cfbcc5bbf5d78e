package mcds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMat4 writes a MATLAB Level-4 matrix file: rows are attributes, cols
// are cells, column-major float64 payload.
func writeMat4(t *testing.T, path, name string, rows, cols int, data []float64) {
	t.Helper()
	require.Len(t, data, rows*cols)

	var buf bytes.Buffer
	hdr := []int32{0, int32(rows), int32(cols), 0, int32(len(name) + 1)}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	buf.WriteString(name)
	buf.WriteByte(0)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, data))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

const frameXMLTemplate = `<MultiCellDS>
  <metadata>
    <current_time units="min">%s</current_time>
  </metadata>
  <cellular_information>
    <cell_populations>
      <cell_population type="individual">
        <custom>
          <simplified_data type="matlab" source="PhysiCell">
            <filename>%s</filename>
            <labels>
              <label index="0" size="1">ID</label>
              <label index="1" size="%d">position</label>
              <label index="4" size="1">total_volume</label>
              <label index="5" size="1">cell_type</label>
            </labels>
          </simplified_data>
        </custom>
      </cell_population>
    </cell_populations>
  </cellular_information>
</MultiCellDS>`

// writeFrame writes a frame XML plus its cell matrix. Matrix rows are
// ID, position x/y/z, total_volume, cell_type.
func writeFrame(t *testing.T, dir string, index int, timeMin string, posSize int, cells [][6]float64) {
	t.Helper()
	matName := fmt.Sprintf("output%08d_cells_physicell.mat", index)
	xml := fmt.Sprintf(frameXMLTemplate, timeMin, matName, posSize)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FrameFileName(index)), []byte(xml), 0o644))

	const rows = 6
	data := make([]float64, rows*len(cells))
	for c, cell := range cells {
		for r := 0; r < rows; r++ {
			data[c*rows+r] = cell[r]
		}
	}
	writeMat4(t, filepath.Join(dir, matName), "cells", rows, len(cells), data)
}

func TestLoadFrame(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, 0, "90.0", 3, [][6]float64{
		{1, 10, 20, 30, 4188.790204786391, 1},
		{2, -5, 0, 2.5, 523.5987755982989, 7},
	})

	frame, err := LoadFrame(dir, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, frame.Index)
	assert.InDelta(t, 90.0, frame.Time, 1e-12)
	require.Equal(t, 2, frame.Cells.Len())

	pos := frame.Cells.Position(0)
	assert.InDelta(t, 10, pos[0], 1e-12)
	assert.InDelta(t, 20, pos[1], 1e-12)
	assert.InDelta(t, 30, pos[2], 1e-12)
	assert.InDelta(t, 4188.790204786391, frame.Cells.Volume(0), 1e-9)
	assert.Equal(t, 1, frame.Cells.Type(0))

	assert.InDelta(t, -5, frame.Cells.Position(1)[0], 1e-12)
	assert.Equal(t, 7, frame.Cells.Type(1))
}

func TestLoadFrameWithoutZColumn(t *testing.T) {
	dir := t.TempDir()
	// position size 2: the z row is absent, so the matrix addresses shift
	// are still valid because labels drive the lookup.
	writeFrame(t, dir, 2, "0", 2, [][6]float64{
		{1, 3, 4, 99, 1000, 0}, // row 3 is unused padding when posSize is 2
	})

	frame, err := LoadFrame(dir, 2)
	require.NoError(t, err)
	pos := frame.Cells.Position(0)
	assert.InDelta(t, 3, pos[0], 1e-12)
	assert.InDelta(t, 4, pos[1], 1e-12)
	assert.Zero(t, pos[2])
}

func TestLoadFrameMissing(t *testing.T) {
	_, err := LoadFrame(t.TempDir(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFrameMalformedXML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FrameFileName(0)), []byte("not xml"), 0o644))
	_, err := LoadFrame(dir, 0)
	assert.Error(t, err)
}

func TestLoadFrameMissingMatrix(t *testing.T) {
	dir := t.TempDir()
	xml := fmt.Sprintf(frameXMLTemplate, "1", "gone.mat", 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FrameFileName(0)), []byte(xml), 0o644))
	_, err := LoadFrame(dir, 0)
	assert.Error(t, err)
}

func TestReadMat4RejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.mat")

	var buf bytes.Buffer
	hdr := []int32{1000, 2, 2, 0, 2} // big-endian marker: unsupported
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	buf.WriteString("x\x00")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]float64, 4)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := readMat4(path)
	assert.ErrorContains(t, err, "unsupported matrix type")
}

func TestReadMat4RejectsOversizedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.mat")

	// A corrupt header demanding ~4.6e18 values must error, not allocate.
	var buf bytes.Buffer
	hdr := []int32{0, math.MaxInt32, math.MaxInt32, 0, 2}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	buf.WriteString("x\x00")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]float64, 4)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := readMat4(path)
	assert.ErrorContains(t, err, "header says")
}

func TestReadMat4RejectsTruncatedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.mat")

	var buf bytes.Buffer
	hdr := []int32{0, 2, 2, 0, 2}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	buf.WriteString("x\x00")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]float64, 3)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := readMat4(path)
	assert.ErrorContains(t, err, "header says")
}

func TestLoadFrameRejectsNegativeLabelIndex(t *testing.T) {
	dir := t.TempDir()
	xml := `<MultiCellDS>
  <metadata><current_time units="min">0</current_time></metadata>
  <cellular_information><cell_populations><cell_population type="individual">
    <custom><simplified_data type="matlab" source="PhysiCell">
      <filename>cells.mat</filename>
      <labels>
        <label index="-1" size="3">position</label>
        <label index="3" size="1">total_volume</label>
        <label index="4" size="1">cell_type</label>
      </labels>
    </simplified_data></custom>
  </cell_population></cell_populations></cellular_information>
</MultiCellDS>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FrameFileName(0)), []byte(xml), 0o644))
	writeMat4(t, filepath.Join(dir, "cells.mat"), "cells", 5, 1, make([]float64, 5))

	_, err := LoadFrame(dir, 0)
	assert.ErrorContains(t, err, "invalid index")
}

func TestFrameFileNames(t *testing.T) {
	assert.Equal(t, "output00000000.xml", FrameFileName(0))
	assert.Equal(t, "output00000123.xml", FrameFileName(123))
	assert.Equal(t, "snapshot00000007.svg", SnapshotFileName(7))
}

func TestParseFrameIndex(t *testing.T) {
	tests := []struct {
		name  string
		index int
		ok    bool
	}{
		{"output00000012.xml", 12, true},
		{"/some/dir/output00000003.xml", 3, true},
		{"output00000000.xml", 0, true},
		{"snapshot00000001.svg", 0, false},
		{"output123.xml", 0, false},
		{"outputabcdefgh.xml", 0, false},
		{"output+0000012.xml", 0, false},
		{"output-0000001.xml", 0, false},
		{"config.yaml", 0, false},
	}
	for _, tt := range tests {
		index, ok := ParseFrameIndex(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.index, index, tt.name)
		}
	}
}

func TestNewCellTableMismatchedColumns(t *testing.T) {
	_, err := NewCellTable([]float64{1, 2}, []float64{1}, nil, []float64{1, 2}, []int{0, 0})
	assert.Error(t, err)
}

func TestPositionReturnsClone(t *testing.T) {
	cells, err := NewCellTable([]float64{1}, []float64{2}, nil, []float64{3}, []int{0})
	require.NoError(t, err)

	p := cells.Position(0)
	p[0] = 99
	assert.InDelta(t, 1, cells.Position(0)[0], 1e-12)
}
