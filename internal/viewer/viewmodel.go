package viewer

import (
	"fmt"
	"image/color"
	"math"

	"physicell-studio/internal/common"
	"physicell-studio/internal/mcds"
)

// fourThirdsPi matches the constant the simulator uses when it converts a
// sphere radius to a volume, so the round trip is exact.
const fourThirdsPi = 4.188790204786391

// CellRadius converts a cell volume to the radius of a sphere of that volume.
func CellRadius(volume float64) float64 {
	return math.Cbrt(volume / fourThirdsPi)
}

// Glyph is one sphere to draw: world position, radius and color.
type Glyph struct {
	Pos    common.Vector
	Radius float64
	Color  color.RGBA
}

// BuildGlyphs maps a cell table to sphere glyphs using the radius formula and
// the palette.
func BuildGlyphs(cells *mcds.CellTable, pal Palette) []Glyph {
	glyphs := make([]Glyph, cells.Len())
	for i := range glyphs {
		glyphs[i] = Glyph{
			Pos:    cells.Position(i),
			Radius: CellRadius(cells.Volume(i)),
			Color:  pal.Color(cells.Type(i)),
		}
	}
	return glyphs
}

// FormatSimTime renders a simulation clock in minutes as "1d, 2h, 30m".
func FormatSimTime(minutes float64) string {
	hrs := int(minutes / 60)
	days := hrs / 24
	return fmt.Sprintf("%dd, %dh, %dm", days, hrs-days*24, int(minutes)-hrs*60)
}
