package tween

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// clamp01 clamps x in [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Progress returns elapsed/duration clamped to [0,1].
// A non-positive duration is already complete.
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return clamp01(float64(elapsed) / float64(duration))
}

// Scalar interpolates linearly from start to end.
func Scalar(start, end float64, elapsed, duration time.Duration) float64 {
	return Lerp(start, end, Progress(elapsed, duration))
}

// Vec3 applies Scalar to each axis independently.
func Vec3(start, end mgl64.Vec3, elapsed, duration time.Duration) mgl64.Vec3 {
	return LerpVec3(start, end, Progress(elapsed, duration))
}

// Lerp blends a toward b by u without clamping u. It returns a at 0 and
// b at 1 exactly.
func Lerp(a, b, u float64) float64 {
	return a*(1-u) + b*u
}

func LerpVec3(a, b mgl64.Vec3, u float64) mgl64.Vec3 {
	return mgl64.Vec3{Lerp(a[0], b[0], u), Lerp(a[1], b[1], u), Lerp(a[2], b[2], u)}
}

// Ease names an easing curve applied to progress.
type Ease string

const (
	Linear Ease = "linear"
	Smooth Ease = "smooth"
	Cubic  Ease = "cubic"
)

// smootherstep, 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

// Apply maps progress x through the curve. Unknown kinds are linear.
func (e Ease) Apply(x float64) float64 {
	switch e {
	case Smooth:
		return x * x * (3 - 2*x)
	case Cubic:
		return smootherstep(x)
	default:
		return x
	}
}

// Track is one object's tween inside a phase. Elapsed values passed to
// its methods are measured from the phase start; the track begins moving
// once Delay has passed.
type Track struct {
	From, To mgl64.Vec3
	Delay    time.Duration
	Duration time.Duration
	Ease     Ease
}

// Local converts phase elapsed time to the track's own clock.
func (t Track) Local(elapsed time.Duration) time.Duration {
	return elapsed - t.Delay
}

// Started reports whether the track's own clock has begun.
func (t Track) Started(elapsed time.Duration) bool {
	return elapsed >= t.Delay
}

// At samples the track. Before Delay it holds From.
func (t Track) At(elapsed time.Duration) mgl64.Vec3 {
	u := t.Ease.Apply(Progress(t.Local(elapsed), t.Duration))
	if !t.Started(elapsed) {
		u = 0
	}
	return LerpVec3(t.From, t.To, u)
}

// Done reports progress >= 1 on the track's own clock.
func (t Track) Done(elapsed time.Duration) bool {
	return t.Started(elapsed) && Progress(t.Local(elapsed), t.Duration) >= 1
}

// End is the phase-relative time at which the track completes.
func (t Track) End() time.Duration {
	if t.Duration <= 0 {
		return t.Delay
	}
	return t.Delay + t.Duration
}
