package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vertex struct {
	P  mgl64.Vec3
	N  mgl64.Vec3
	UV mgl64.Vec2
}

type Triangle [3]Vertex

func quad(a, b, c, d, n mgl64.Vec3) []Triangle {
	va := Vertex{a, n, mgl64.Vec2{0, 0}}
	vb := Vertex{b, n, mgl64.Vec2{1, 0}}
	vc := Vertex{c, n, mgl64.Vec2{1, 1}}
	vd := Vertex{d, n, mgl64.Vec2{0, 1}}
	return []Triangle{{va, vb, vc}, {va, vc, vd}}
}

// BoxMesh is an axis-aligned box centered on the origin, 12 triangles.
func BoxMesh(w, h, d float64) []Triangle {
	x, y, z := w/2, h/2, d/2
	out := make([]Triangle, 0, 12)
	out = append(out, quad(mgl64.Vec3{x, -y, z}, mgl64.Vec3{x, -y, -z}, mgl64.Vec3{x, y, -z}, mgl64.Vec3{x, y, z}, mgl64.Vec3{1, 0, 0})...)
	out = append(out, quad(mgl64.Vec3{-x, -y, -z}, mgl64.Vec3{-x, -y, z}, mgl64.Vec3{-x, y, z}, mgl64.Vec3{-x, y, -z}, mgl64.Vec3{-1, 0, 0})...)
	out = append(out, quad(mgl64.Vec3{-x, y, z}, mgl64.Vec3{x, y, z}, mgl64.Vec3{x, y, -z}, mgl64.Vec3{-x, y, -z}, mgl64.Vec3{0, 1, 0})...)
	out = append(out, quad(mgl64.Vec3{-x, -y, -z}, mgl64.Vec3{x, -y, -z}, mgl64.Vec3{x, -y, z}, mgl64.Vec3{-x, -y, z}, mgl64.Vec3{0, -1, 0})...)
	out = append(out, quad(mgl64.Vec3{-x, -y, z}, mgl64.Vec3{x, -y, z}, mgl64.Vec3{x, y, z}, mgl64.Vec3{-x, y, z}, mgl64.Vec3{0, 0, 1})...)
	out = append(out, quad(mgl64.Vec3{x, -y, -z}, mgl64.Vec3{-x, -y, -z}, mgl64.Vec3{-x, y, -z}, mgl64.Vec3{x, y, -z}, mgl64.Vec3{0, 0, -1})...)
	return out
}

// CylinderMesh runs along Y, centered on the origin: segments side quads
// plus two capping fans, 4*segments triangles.
func CylinderMesh(r, h float64, segments int) []Triangle {
	if segments < 3 {
		segments = 3
	}
	top, bot := h/2, -h/2
	ring := func(s int) (float64, float64) {
		a := 2 * math.Pi * float64(s) / float64(segments)
		return math.Sin(a), math.Cos(a)
	}
	out := make([]Triangle, 0, 4*segments)
	for s := 0; s < segments; s++ {
		s0, c0 := ring(s)
		s1, c1 := ring(s + 1)
		u0 := float64(s) / float64(segments)
		u1 := float64(s+1) / float64(segments)
		n0 := mgl64.Vec3{s0, 0, c0}
		n1 := mgl64.Vec3{s1, 0, c1}
		a := Vertex{mgl64.Vec3{r * s0, bot, r * c0}, n0, mgl64.Vec2{u0, 0}}
		b := Vertex{mgl64.Vec3{r * s1, bot, r * c1}, n1, mgl64.Vec2{u1, 0}}
		c := Vertex{mgl64.Vec3{r * s1, top, r * c1}, n1, mgl64.Vec2{u1, 1}}
		d := Vertex{mgl64.Vec3{r * s0, top, r * c0}, n0, mgl64.Vec2{u0, 1}}
		out = append(out, Triangle{a, b, c}, Triangle{a, c, d})

		up, down := mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}
		out = append(out, Triangle{
			{mgl64.Vec3{0, top, 0}, up, mgl64.Vec2{0.5, 0.5}},
			{mgl64.Vec3{r * s0, top, r * c0}, up, mgl64.Vec2{0.5 + s0/2, 0.5 + c0/2}},
			{mgl64.Vec3{r * s1, top, r * c1}, up, mgl64.Vec2{0.5 + s1/2, 0.5 + c1/2}},
		}, Triangle{
			{mgl64.Vec3{0, bot, 0}, down, mgl64.Vec2{0.5, 0.5}},
			{mgl64.Vec3{r * s1, bot, r * c1}, down, mgl64.Vec2{0.5 + s1/2, 0.5 + c1/2}},
			{mgl64.Vec3{r * s0, bot, r * c0}, down, mgl64.Vec2{0.5 + s0/2, 0.5 + c0/2}},
		})
	}
	return out
}

// SphereMesh is a UV sphere, 2*rings*segments triangles.
func SphereMesh(r float64, rings, segments int) []Triangle {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	at := func(ri, si int) Vertex {
		v := float64(ri) / float64(rings)
		u := float64(si) / float64(segments)
		th, ph := v*math.Pi, u*2*math.Pi
		n := mgl64.Vec3{math.Sin(th) * math.Sin(ph), math.Cos(th), math.Sin(th) * math.Cos(ph)}
		return Vertex{n.Mul(r), n, mgl64.Vec2{u, 1 - v}}
	}
	out := make([]Triangle, 0, 2*rings*segments)
	for ri := 0; ri < rings; ri++ {
		for si := 0; si < segments; si++ {
			a, b := at(ri, si), at(ri, si+1)
			c, d := at(ri+1, si+1), at(ri+1, si)
			out = append(out, Triangle{a, d, c}, Triangle{a, c, b})
		}
	}
	return out
}
