package viewer

import "image/color"

// defaultCellColor is used when a cell type index falls outside the palette.
var defaultCellColor = color.RGBA{180, 180, 180, 255} // light gray

// Palette maps a cell type index to a display color.
type Palette []color.RGBA

// Color returns the palette entry for a cell type index. Indices outside the
// palette clamp to light gray.
func (p Palette) Color(typeIndex int) color.RGBA {
	if typeIndex < 0 || typeIndex >= len(p) {
		return defaultCellColor
	}
	return p[typeIndex]
}

// NewPalette builds a palette from RGB triples, as configured.
func NewPalette(colors [][3]uint8) Palette {
	p := make(Palette, len(colors))
	for i, c := range colors {
		p[i] = color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
	}
	return p
}
