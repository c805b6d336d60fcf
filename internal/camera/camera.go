package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera. FOV is vertical, in radians.
type Camera struct {
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64
	Eye    mgl64.Vec3
	Target mgl64.Vec3
	Up     mgl64.Vec3
}

// New returns a 60 degree camera looking slightly down at the vignette.
func New(aspect float64) *Camera {
	return &Camera{
		FOV:    mgl64.DegToRad(60),
		Aspect: aspect,
		Near:   0.1,
		Far:    1000,
		Eye:    mgl64.Vec3{0, 0, 55},
		Target: mgl64.Vec3{0, -5, 0},
		Up:     mgl64.Vec3{0, 1, 0},
	}
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Target, c.Up)
}

func (c *Camera) Projection() mgl64.Mat4 {
	a := c.Aspect
	if a <= 0 {
		a = 1
	}
	return mgl64.Perspective(c.FOV, a, c.Near, c.Far)
}

func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Project maps a world point to pixel coordinates on a w x h target with
// y down. depth is NDC z in [-1,1]; ok is false behind the eye.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y, depth float64, ok bool) {
	return ProjectWith(c.ViewProjection(), p, w, h)
}

// ProjectWith is Project with a precomputed view-projection.
func ProjectWith(vp mgl64.Mat4, p mgl64.Vec3, w, h int) (x, y, depth float64, ok bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip[3] <= 1e-9 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	x = (ndc[0] + 1) / 2 * float64(w)
	y = (1 - ndc[1]) / 2 * float64(h)
	return x, y, ndc[2], true
}

// Framing is the world-space window the camera must fit.
type Framing struct {
	Width     float64
	Height    float64
	EyeHeight float64
	LookAtY   float64
}

// Fit picks the FOV that shows Framing.Height at a nominal 50 units, then
// backs off until Framing.Width fits the viewport at aspect.
func (c *Camera) Fit(aspect float64, f Framing) {
	if aspect <= 0 {
		aspect = 1
	}
	c.Aspect = aspect
	c.FOV = 2 * math.Atan((f.Height/2)/50)
	dist := (f.Width / 2) / math.Tan(c.FOV/2) / aspect
	c.Eye = mgl64.Vec3{0, f.EyeHeight, dist}
	c.Target = mgl64.Vec3{0, f.LookAtY, 0}
}
