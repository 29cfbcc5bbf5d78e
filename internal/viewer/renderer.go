// Package viewer renders simulated cell populations as 3D spheres. It maps
// per-cell records (position, volume, type) to screen glyphs and drives an
// ebiten window with an orbit camera; the heavy lifting (windowing, input
// dispatch, rasterization) belongs to ebiten.
package viewer

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"physicell-studio/internal/config"
)

const (
	padding        = 50.0 // margin around the fitted scene, in pixels
	rotatePerPixel = 0.01
	markerLen      = 40.0 // orientation axes length on screen
	helpText       = "Left mouse: Rotate | Wheel: Zoom | Left/Right: Frame"
)

var (
	axisColors = [3]color.RGBA{
		{255, 80, 80, 255},
		{80, 255, 80, 255},
		{80, 120, 255, 255},
	}
	axisLabels = [3]string{"X", "Y", "Z"}
)

// Viewer implements ebiten.Game. It shows one frame of a simulation output
// directory as depth-sorted sphere glyphs.
type Viewer struct {
	outputDir string
	pal       Palette
	log       *zap.Logger

	camera     *OrbitCamera
	scene      *Scene
	background color.RGBA

	windowWidth  int
	windowHeight int

	// frameEvents carries frame indices whose files changed on disk.
	frameEvents <-chan int

	screenWidth  int
	screenHeight int

	// Transformation from view space to screen space.
	scale   float64
	offsetX float64
	offsetY float64

	dragging     bool
	lastX, lastY int

	titleDirty bool
	loads      int // scene rebuilds, for the frame-switch no-op check
}

// New creates a viewer for an output directory and loads the initial frame.
func New(cfg config.ViewerConfig, outputDir string, frame int, log *zap.Logger) *Viewer {
	v := &Viewer{
		outputDir:    outputDir,
		pal:          NewPalette(cfg.CellColors),
		log:          log,
		camera:       NewOrbitCamera(),
		background:   color.RGBA{cfg.Background[0], cfg.Background[1], cfg.Background[2], 255},
		windowWidth:  cfg.WindowWidth,
		windowHeight: cfg.WindowHeight,
	}
	v.loadScene(frame)
	return v
}

// SetFrame switches the viewer to another frame. Re-requesting the currently
// displayed frame is a no-op, checked before any I/O.
func (v *Viewer) SetFrame(index int) {
	if index < 0 {
		return
	}
	if v.scene != nil && v.scene.FrameIndex == index {
		return
	}
	v.log.Info("switching frame", zap.Int("frame", index))
	v.loadScene(index)
}

// Reload rebuilds the current frame's scene from disk, e.g. after the
// directory watcher reported fresh data for it.
func (v *Viewer) Reload() {
	if v.scene == nil {
		return
	}
	v.loadScene(v.scene.FrameIndex)
}

// FrameIndex returns the currently displayed frame.
func (v *Viewer) FrameIndex() int {
	if v.scene == nil {
		return 0
	}
	return v.scene.FrameIndex
}

// WatchEvents attaches a channel of frame indices with fresh data on disk,
// as produced by FrameWatcher.
func (v *Viewer) WatchEvents(ch <-chan int) {
	v.frameEvents = ch
}

func (v *Viewer) loadScene(index int) {
	v.scene = BuildScene(v.outputDir, index, v.pal, v.log)
	v.loads++
	v.titleDirty = true
}

// Run opens the viewer window and blocks in the GUI event loop.
func (v *Viewer) Run() error {
	ebiten.SetWindowSize(v.windowWidth, v.windowHeight)
	ebiten.SetWindowTitle(windowTitle(v.FrameIndex()))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	v.titleDirty = false
	return ebiten.RunGame(v)
}

func windowTitle(frame int) string {
	return fmt.Sprintf("PhysiCell Viewer - Frame %d", frame)
}

// Update is called every tick: it drains watcher events and handles camera
// and frame-navigation input.
func (v *Viewer) Update() error {
	v.drainFrameEvents()

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		v.SetFrame(v.FrameIndex() + 1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		v.SetFrame(v.FrameIndex() - 1)
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if v.dragging {
			v.camera.Orbit(float64(x-v.lastX)*rotatePerPixel, float64(y-v.lastY)*rotatePerPixel)
		}
		v.dragging = true
		v.lastX, v.lastY = x, y
	} else {
		v.dragging = false
	}

	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		v.camera.Zoom(wheelY)
	}

	if v.titleDirty {
		ebiten.SetWindowTitle(windowTitle(v.FrameIndex()))
		v.titleDirty = false
	}
	return nil
}

func (v *Viewer) drainFrameEvents() {
	for {
		select {
		case index := <-v.frameEvents:
			if v.scene != nil && index == v.scene.FrameIndex {
				// Same index, new data: bypass the no-op check.
				v.loadScene(index)
			}
		default:
			return
		}
	}
}

// Draw renders the scene back-to-front.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(v.background)
	if v.scene == nil {
		ebitenutil.DebugPrint(screen, "Waiting for scene...")
		return
	}

	glyphs := v.scene.Glyphs
	if len(glyphs) > 0 {
		points := mat.NewDense(len(glyphs), 3, nil)
		for i, g := range glyphs {
			points.Set(i, 0, g.Pos[0])
			points.Set(i, 1, g.Pos[1])
			points.Set(i, 2, g.Pos[2])
		}
		view := v.camera.Project(points)
		v.calculateTransform(view)

		for _, i := range drawOrder(view) {
			sx, sy := v.viewToScreen(view.At(i, 0), view.At(i, 2))
			persp := v.camera.PerspectiveScale(view.At(i, 1))
			radius := float32(glyphs[i].Radius * v.scale * persp)
			if radius < 1 {
				radius = 1
			}
			vector.DrawFilledCircle(screen, sx, sy, radius, glyphs[i].Color, true)
		}
	}

	v.drawOrientationAxes(screen)
	v.drawOverlay(screen)
}

// drawOrder returns glyph indices in painter's order. View depth (column 1)
// grows toward the camera, so the smallest depth is the farthest glyph and is
// drawn first.
func drawOrder(view *mat.Dense) []int {
	n, _ := view.Dims()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return view.At(order[a], 1) < view.At(order[b], 1)
	})
	return order
}

// calculateTransform fits the projected scene onto the screen with padding,
// preserving aspect ratio.
func (v *Viewer) calculateTransform(view *mat.Dense) {
	n, _ := view.Dims()
	if n == 0 || v.screenWidth == 0 || v.screenHeight == 0 {
		v.scale = 1.0
		v.offsetX = float64(v.screenWidth) / 2.0
		v.offsetY = float64(v.screenHeight) / 2.0
		return
	}

	xs := mat.Col(nil, 0, view)
	ups := mat.Col(nil, 2, view)
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ups), floats.Max(ups)

	worldWidth := maxX - minX
	worldHeight := maxY - minY
	centerX := (minX + maxX) / 2.0
	centerY := (minY + maxY) / 2.0

	if worldWidth == 0 && worldHeight == 0 {
		// Single point or all points identical.
		v.scale = 1.0
		v.offsetX = float64(v.screenWidth)/2.0 - centerX*v.scale
		v.offsetY = float64(v.screenHeight)/2.0 + centerY*v.scale
		return
	}
	if worldWidth == 0 {
		worldWidth = 1
	}
	if worldHeight == 0 {
		worldHeight = 1
	}

	scaleX := (float64(v.screenWidth) - 2*padding) / worldWidth
	scaleY := (float64(v.screenHeight) - 2*padding) / worldHeight
	v.scale = math.Min(scaleX, scaleY)
	if v.scale <= 0 || math.IsNaN(v.scale) || math.IsInf(v.scale, 0) {
		v.scale = 1.0
	}

	v.offsetX = float64(v.screenWidth)/2.0 - centerX*v.scale
	v.offsetY = float64(v.screenHeight)/2.0 + centerY*v.scale
}

// viewToScreen converts view-space x/up coordinates to screen pixels. Screen
// y grows downward, view up grows upward.
func (v *Viewer) viewToScreen(x, up float64) (float32, float32) {
	screenX := x*v.scale + v.offsetX
	screenY := v.offsetY - up*v.scale
	return float32(screenX), float32(screenY)
}

// drawOrientationAxes draws a small X/Y/Z marker in the bottom-left corner,
// rotating with the camera.
func (v *Viewer) drawOrientationAxes(screen *ebiten.Image) {
	rot := v.camera.Rotation()
	cx := 60.0
	cy := float64(v.screenHeight) - 60.0
	for i := 0; i < 3; i++ {
		dx := rot.At(0, i) * markerLen
		dy := -rot.At(2, i) * markerLen
		vector.StrokeLine(screen, float32(cx), float32(cy), float32(cx+dx), float32(cy+dy), 2, axisColors[i], true)
		ebitenutil.DebugPrintAt(screen, axisLabels[i], int(cx+dx*1.3)-3, int(cy+dy*1.3)-8)
	}
}

func (v *Viewer) drawOverlay(screen *ebiten.Image) {
	msg := v.scene.Status + "\n"
	for _, m := range v.scene.Messages {
		msg += m + "\n"
	}
	msg += helpText + "\n"
	msg += fmt.Sprintf("FPS: %.1f, TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	ebitenutil.DebugPrint(screen, msg)
}

// Layout is called when the window size changes.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.screenWidth = outsideWidth
	v.screenHeight = outsideHeight
	return v.screenWidth, v.screenHeight
}
