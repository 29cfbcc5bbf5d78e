package viewer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"physicell-studio/internal/common"
	"physicell-studio/internal/mcds"
)

// placeholderRadius is the fixed radius of the sphere shown when no cell data
// is available for a frame.
const placeholderRadius = 50.0

var placeholderColor = color.RGBA{255, 0, 0, 255}

// Scene is everything the renderer draws for one frame.
type Scene struct {
	FrameIndex int
	Glyphs     []Glyph

	// Status is the one-line frame summary shown at the top of the overlay.
	Status string
	// Messages carries extra overlay lines: file info, fallback notes,
	// load errors.
	Messages []string

	// Placeholder marks a scene showing the fixed demo sphere instead of
	// real cell data.
	Placeholder bool
}

// BuildScene loads frame `index` from dir and maps it to a drawable scene.
// Failures never escape this boundary: a missing frame XML first consults the
// SVG snapshot, then degrades to the placeholder sphere with an on-screen
// message, and a loader error becomes a placeholder plus the error text.
func BuildScene(dir string, index int, pal Palette, log *zap.Logger) *Scene {
	framePath := filepath.Join(dir, mcds.FrameFileName(index))
	if _, err := os.Stat(framePath); err != nil {
		return fallbackScene(dir, index, log)
	}

	frame, err := mcds.LoadFrame(dir, index)
	if err != nil {
		log.Error("loading cell data failed", zap.Int("frame", index), zap.Error(err))
		return &Scene{
			FrameIndex:  index,
			Glyphs:      []Glyph{placeholderGlyph()},
			Status:      fmt.Sprintf("CURRENT FRAME: %d", index),
			Messages:    []string{fmt.Sprintf("Error loading data: %v", err)},
			Placeholder: true,
		}
	}

	glyphs := BuildGlyphs(frame.Cells, pal)
	log.Info("loaded cells", zap.Int("frame", index), zap.Int("cells", len(glyphs)))
	return &Scene{
		FrameIndex: index,
		Glyphs:     glyphs,
		Status:     fmt.Sprintf("Frame %d - %d cells - %s", index, len(glyphs), FormatSimTime(frame.Time)),
		Messages:   []string{"FILE: " + mcds.FrameFileName(index)},
	}
}

// fallbackScene implements the lower-fidelity path when the frame XML does
// not exist.
func fallbackScene(dir string, index int, log *zap.Logger) *Scene {
	s := &Scene{
		FrameIndex:  index,
		Glyphs:      []Glyph{placeholderGlyph()},
		Status:      fmt.Sprintf("CURRENT FRAME: %d", index),
		Placeholder: true,
	}

	svgPath := filepath.Join(dir, mcds.SnapshotFileName(index))
	if _, err := os.Stat(svgPath); err == nil {
		log.Warn("frame has only an SVG snapshot", zap.Int("frame", index), zap.String("file", svgPath))
		s.Messages = []string{
			"FILE: " + mcds.SnapshotFileName(index),
			"SVG files contain limited position data. Full 3D visualization requires XML output.",
		}
		return s
	}

	log.Warn("no cell data found", zap.Int("frame", index))
	s.Messages = []string{fmt.Sprintf("No cell data found for frame %d", index)}
	return s
}

func placeholderGlyph() Glyph {
	return Glyph{
		Pos:    common.Vec3(0, 0, 0),
		Radius: placeholderRadius,
		Color:  placeholderColor,
	}
}
