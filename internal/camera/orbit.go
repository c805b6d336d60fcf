package camera

import (
	"math"
	"sync"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	minPolar  = 0.01
	maxPolar  = math.Pi - 0.01
	minRadius = 1.0
)

// spherical is an offset from the target: Azimuth around +Y from +Z,
// Polar down from +Y.
type spherical struct {
	Azimuth, Polar, Radius float64
}

func toSpherical(v mgl64.Vec3) spherical {
	r := v.Len()
	if r == 0 {
		return spherical{Polar: math.Pi / 2}
	}
	return spherical{
		Azimuth: math.Atan2(v[0], v[2]),
		Polar:   math.Acos(mgl64.Clamp(v[1]/r, -1, 1)),
		Radius:  r,
	}
}

func (s spherical) vec() mgl64.Vec3 {
	sp := math.Sin(s.Polar)
	return mgl64.Vec3{
		s.Radius * sp * math.Sin(s.Azimuth),
		s.Radius * math.Cos(s.Polar),
		s.Radius * sp * math.Cos(s.Azimuth),
	}
}

// Orbit turns the camera around its target. Requests set a goal; Update
// eases the eye toward it on a critically damped spring by default.
// Rotate and Zoom are safe to call from other goroutines.
type Orbit struct {
	mu     sync.Mutex
	cam    *Camera
	spring harmonica.Spring

	goal spherical
	cur  spherical
	vel  spherical
}

func NewOrbit(cam *Camera, fps int, frequency, damping float64) *Orbit {
	if fps <= 0 {
		fps = 60
	}
	o := &Orbit{cam: cam, spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
	o.Sync()
	return o
}

// Sync adopts the camera's current eye as both position and goal.
func (o *Orbit) Sync() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cur = toSpherical(o.cam.Eye.Sub(o.cam.Target))
	o.goal = o.cur
	o.vel = spherical{}
}

func (o *Orbit) Rotate(dAzimuth, dPolar float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.goal.Azimuth += dAzimuth
	o.goal.Polar = mgl64.Clamp(o.goal.Polar+dPolar, minPolar, maxPolar)
}

// Zoom scales the goal radius; factors below 1 move in.
func (o *Orbit) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.goal.Radius = math.Max(minRadius, o.goal.Radius*factor)
}

// Update steps the spring one frame and writes the camera eye.
func (o *Orbit) Update() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cur.Azimuth, o.vel.Azimuth = o.spring.Update(o.cur.Azimuth, o.vel.Azimuth, o.goal.Azimuth)
	o.cur.Polar, o.vel.Polar = o.spring.Update(o.cur.Polar, o.vel.Polar, o.goal.Polar)
	o.cur.Radius, o.vel.Radius = o.spring.Update(o.cur.Radius, o.vel.Radius, o.goal.Radius)
	o.cur.Polar = mgl64.Clamp(o.cur.Polar, minPolar, maxPolar)
	o.cur.Radius = math.Max(minRadius, o.cur.Radius)
	o.cam.Eye = o.cam.Target.Add(o.cur.vec())
}

// Settled reports whether the eye is within eps of its goal on every axis.
func (o *Orbit) Settled(eps float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return math.Abs(o.cur.Azimuth-o.goal.Azimuth) < eps &&
		math.Abs(o.cur.Polar-o.goal.Polar) < eps &&
		math.Abs(o.cur.Radius-o.goal.Radius) < eps
}
