package viewer

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Projector maps world-space points to view space. View space keeps column 0
// as screen right, column 1 as depth along the view axis and column 2 as
// screen up.
type Projector interface {
	Project(points *mat.Dense) *mat.Dense
}

// OrbitCamera is a trackball-style camera orbiting the scene origin,
// described by azimuth and elevation angles plus a viewing distance.
type OrbitCamera struct {
	Azimuth   float64
	Elevation float64
	Distance  float64
}

// NewOrbitCamera returns a camera at a gentle oblique angle.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{Azimuth: 0.6, Elevation: 0.2, Distance: 900}
}

// Rotation returns the world-to-view rotation as a 3x3 matrix: azimuth about
// the world z axis followed by elevation about the view x axis.
func (c *OrbitCamera) Rotation() *mat.Dense {
	ca, sa := math.Cos(c.Azimuth), math.Sin(c.Azimuth)
	ce, se := math.Cos(c.Elevation), math.Sin(c.Elevation)
	azimuth := mat.NewDense(3, 3, []float64{
		ca, sa, 0,
		-sa, ca, 0,
		0, 0, 1,
	})
	elevation := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, ce, se,
		0, -se, ce,
	})
	var r mat.Dense
	r.Mul(elevation, azimuth)
	return &r
}

// Project maps an n x 3 matrix of world points to view space.
func (c *OrbitCamera) Project(points *mat.Dense) *mat.Dense {
	var view mat.Dense
	view.Mul(points, c.Rotation().T())
	return &view
}

// PerspectiveScale returns the apparent-size factor for a point at the given
// view depth. Points close to or behind the camera clamp instead of flipping.
func (c *OrbitCamera) PerspectiveScale(depth float64) float64 {
	d := c.Distance - depth
	if min := c.Distance * 0.1; d < min {
		d = min
	}
	return c.Distance / d
}

// Orbit rotates the camera by angle deltas, clamping elevation short of the
// poles so the view never flips.
func (c *OrbitCamera) Orbit(dAzimuth, dElevation float64) {
	c.Azimuth += dAzimuth
	c.Elevation += dElevation
	limit := math.Pi/2 - 0.01
	if c.Elevation > limit {
		c.Elevation = limit
	}
	if c.Elevation < -limit {
		c.Elevation = -limit
	}
}

// Zoom moves the camera along the view axis; positive steps move closer.
func (c *OrbitCamera) Zoom(steps float64) {
	c.Distance *= math.Pow(0.9, steps)
	if c.Distance < 1 {
		c.Distance = 1
	}
}
