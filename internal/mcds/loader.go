// Package mcds loads per-frame cell tables from a simulation output
// directory. Each frame is an XML file (output%08d.xml) carrying the
// simulation clock and a pointer to a companion MATLAB matrix of per-cell
// attributes, described by a label list.
package mcds

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"physicell-studio/internal/common"
)

// Frame is one simulation time-snapshot.
type Frame struct {
	Index int
	Time  float64 // simulation time in minutes
	Cells *CellTable
}

// CellTable holds the per-cell records of one frame.
type CellTable struct {
	pos      []common.Vector
	volume   []float64
	cellType []int
}

// NewCellTable builds a table from parallel per-cell columns. z may be nil
// for 2D output.
func NewCellTable(x, y, z, volume []float64, cellType []int) (*CellTable, error) {
	n := len(x)
	if len(y) != n || len(volume) != n || len(cellType) != n || (z != nil && len(z) != n) {
		return nil, fmt.Errorf("cell columns have mismatched lengths")
	}
	pos := make([]common.Vector, n)
	for i := range pos {
		zi := 0.0
		if z != nil {
			zi = z[i]
		}
		pos[i] = common.Vec3(x[i], y[i], zi)
	}
	return &CellTable{pos: pos, volume: volume, cellType: cellType}, nil
}

// Len returns the number of cells in the table.
func (t *CellTable) Len() int {
	return len(t.pos)
}

// Position returns the 3D position of cell i as a clone, so callers cannot
// modify the table. Frames written without a z column report z = 0.
func (t *CellTable) Position(i int) common.Vector {
	return t.pos[i].Clone()
}

// Volume returns the total volume of cell i.
func (t *CellTable) Volume(i int) float64 {
	return t.volume[i]
}

// Type returns the cell type index of cell i.
func (t *CellTable) Type(i int) int {
	return t.cellType[i]
}

// FrameFileName returns the frame XML filename for a zero-based frame index,
// e.g. "output00000003.xml".
func FrameFileName(index int) string {
	return fmt.Sprintf("output%08d.xml", index)
}

// SnapshotFileName returns the SVG snapshot filename for a frame index,
// e.g. "snapshot00000003.svg".
func SnapshotFileName(index int) string {
	return fmt.Sprintf("snapshot%08d.svg", index)
}

// ParseFrameIndex extracts the frame index from a frame XML filename. The
// second return is false when the name is not a frame file.
func ParseFrameIndex(name string) (int, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, "output") || !strings.HasSuffix(base, ".xml") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, "output"), ".xml")
	if len(digits) != 8 {
		return 0, false
	}
	for _, c := range digits {
		// Atoi would also accept a sign here.
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return index, true
}

// XML shapes for the slice of the frame file the loader needs.

type frameXML struct {
	XMLName  xml.Name `xml:"MultiCellDS"`
	Metadata struct {
		CurrentTime string `xml:"current_time"`
	} `xml:"metadata"`
	Populations []populationXML `xml:"cellular_information>cell_populations>cell_population"`
}

type populationXML struct {
	Simplified []simplifiedDataXML `xml:"custom>simplified_data"`
}

type simplifiedDataXML struct {
	Type     string     `xml:"type,attr"`
	Filename string     `xml:"filename"`
	Labels   []labelXML `xml:"labels>label"`
}

type labelXML struct {
	Index int    `xml:"index,attr"`
	Size  int    `xml:"size,attr"`
	Name  string `xml:",chardata"`
}

// LoadFrame reads frame `index` from an output directory. It returns an error
// when the frame XML or its cell matrix is missing or malformed; the caller
// owns any fallback behavior.
func LoadFrame(dir string, index int) (*Frame, error) {
	path := filepath.Join(dir, FrameFileName(index))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frame %d: %w", index, err)
	}

	var doc frameXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing frame %d: %w", index, err)
	}

	minutes, err := strconv.ParseFloat(strings.TrimSpace(doc.Metadata.CurrentTime), 64)
	if err != nil {
		return nil, fmt.Errorf("parsing frame %d time %q: %w", index, doc.Metadata.CurrentTime, err)
	}

	simplified, err := findCellData(&doc)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}

	matrix, err := readMat4(filepath.Join(dir, simplified.Filename))
	if err != nil {
		return nil, fmt.Errorf("frame %d cells: %w", index, err)
	}

	cells, err := buildCellTable(matrix, simplified.Labels)
	if err != nil {
		return nil, fmt.Errorf("frame %d cells: %w", index, err)
	}

	return &Frame{Index: index, Time: minutes, Cells: cells}, nil
}

// findCellData locates the matlab-typed simplified cell data block of the
// first cell population.
func findCellData(doc *frameXML) (*simplifiedDataXML, error) {
	for i := range doc.Populations {
		for j := range doc.Populations[i].Simplified {
			s := &doc.Populations[i].Simplified[j]
			if s.Type == "matlab" && s.Filename != "" {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("no matlab cell data block found")
}

// buildCellTable extracts the position, volume and type columns from the
// attribute matrix using the label list from the frame XML.
func buildCellTable(m *matMatrix, labels []labelXML) (*CellTable, error) {
	pos, ok := findLabel(labels, "position")
	if !ok {
		return nil, fmt.Errorf("no position label")
	}
	if pos.Size < 2 {
		return nil, fmt.Errorf("position label has size %d, want >= 2", pos.Size)
	}
	vol, ok := findLabel(labels, "total_volume")
	if !ok {
		return nil, fmt.Errorf("no total_volume label")
	}
	typ, ok := findLabel(labels, "cell_type")
	if !ok {
		return nil, fmt.Errorf("no cell_type label")
	}
	for _, l := range []labelXML{pos, vol, typ} {
		if l.Index < 0 || l.Size < 1 {
			return nil, fmt.Errorf("label %q has invalid index %d, size %d", strings.TrimSpace(l.Name), l.Index, l.Size)
		}
	}

	maxRow := pos.Index + pos.Size - 1
	for _, l := range []labelXML{vol, typ} {
		if l.Index+l.Size-1 > maxRow {
			maxRow = l.Index + l.Size - 1
		}
	}
	if maxRow >= m.rows {
		return nil, fmt.Errorf("labels address row %d but matrix has %d rows", maxRow, m.rows)
	}

	n := m.cols
	t := &CellTable{
		pos:      make([]common.Vector, n),
		volume:   make([]float64, n),
		cellType: make([]int, n),
	}
	for c := 0; c < n; c++ {
		z := 0.0
		if pos.Size >= 3 {
			z = m.at(pos.Index+2, c)
		}
		t.pos[c] = common.Vec3(m.at(pos.Index, c), m.at(pos.Index+1, c), z)
		t.volume[c] = m.at(vol.Index, c)
		t.cellType[c] = int(m.at(typ.Index, c))
	}
	return t, nil
}

func findLabel(labels []labelXML, name string) (labelXML, bool) {
	for _, l := range labels {
		if strings.TrimSpace(l.Name) == name {
			return l, true
		}
	}
	return labelXML{}, false
}
