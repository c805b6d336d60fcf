package render

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/funtimes-kitchenline/internal/camera"
	"github.com/coreman2200/funtimes-kitchenline/internal/scene"
)

// specular strength of every Phong surface (0x111111)
const specular = 0.067

type screenVert struct {
	x, y, z float64
	uv      mgl64.Vec2
}

// lit is a triangle ready to fill: flat lighting resolved, albedo still
// per pixel when textured.
type lit struct {
	v     [3]screenVert
	mat   *scene.Material
	light Color // ambient + diffuse
	spec  Color
	alpha float32
	dist  float64 // eye distance of the centroid
}

// rasterize draws opaque triangles with depth writes, then translucent
// ones back to front with blending and no depth writes.
func (e *Engine) rasterize() int {
	vp := e.Cam.ViewProjection()
	w, h := e.frame.W, e.frame.H
	var glass []lit
	drawn := 0

	e.Root.Walk(func(n *scene.Node, world mgl64.Mat4) {
		tris := n.Mesh()
		if len(tris) == 0 || n.Material.Opacity <= 0 {
			return
		}
		nm := world.Mat3().Inv().Transpose()
		m := &n.Material
		for _, tr := range tris {
			var (
				sv     [3]screenVert
				wp     [3]mgl64.Vec3
				normal mgl64.Vec3
				ok     = true
			)
			for i, v := range tr {
				wp[i] = mgl64.TransformCoordinate(v.P, world)
				x, y, z, in := camera.ProjectWith(vp, wp[i], w, h)
				if !in {
					ok = false
					break
				}
				sv[i] = screenVert{x, y, z, v.UV}
				normal = normal.Add(nm.Mul3x1(v.N))
			}
			if !ok || normal.Len() == 0 {
				continue
			}
			centroid := wp[0].Add(wp[1]).Add(wp[2]).Mul(1.0 / 3)
			t := lit{v: sv, mat: m, alpha: float32(m.Opacity), dist: centroid.Sub(e.Cam.Eye).Len()}
			t.light, t.spec = e.shade(normal.Normalize(), centroid, m.Shininess)
			if m.IsTranslucent() {
				glass = append(glass, t)
				continue
			}
			e.fill(&t, true)
			drawn++
		}
	})

	sort.SliceStable(glass, func(i, j int) bool { return glass[i].dist > glass[j].dist })
	for i := range glass {
		e.fill(&glass[i], false)
		drawn++
	}
	return drawn
}

// shade returns the flat Lambert term and the Phong highlight at p.
// Faces turned away from the eye are lit as seen, so no culling is needed.
func (e *Engine) shade(n, p mgl64.Vec3, shininess float64) (Color, Color) {
	view := e.Cam.Eye.Sub(p).Normalize()
	if n.Dot(view) < 0 {
		n = n.Mul(-1)
	}
	var diffuse, spec Color
	for _, l := range e.Lights {
		c := Linear(l.Color).Scale(float32(l.Intensity))
		switch l.Kind {
		case scene.Ambient:
			diffuse = diffuse.Add(c)
		case scene.Directional:
			ld := l.Direction.Normalize()
			nl := n.Dot(ld)
			if nl <= 0 {
				continue
			}
			diffuse = diffuse.Add(c.Scale(float32(nl)))
			if shininess > 0 {
				r := n.Mul(2 * nl).Sub(ld)
				if rv := r.Dot(view); rv > 0 {
					spec = spec.Add(c.Scale(float32(specular * math.Pow(rv, shininess))))
				}
			}
		}
	}
	return diffuse, spec
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

// edgeAt evaluates the edge p->q with its endpoints in a fixed order, so
// two triangles sharing the edge see exactly opposite values.
func edgeAt(p, q screenVert, px, py float64) float64 {
	if p.x > q.x || (p.x == q.x && p.y > q.y) {
		return -edge(q.x, q.y, p.x, p.y, px, py)
	}
	return edge(p.x, p.y, q.x, q.y, px, py)
}

// covers applies the fill rule to one edge weight of a positively wound
// triangle. A sample exactly on an edge belongs to the triangle that
// walks the edge downward, or leftward when it is horizontal, so a
// shared edge is drawn once.
func covers(w float64, p, q screenVert) bool {
	if w != 0 {
		return w > 0
	}
	dx, dy := q.x-p.x, q.y-p.y
	return dy > 0 || (dy == 0 && dx < 0)
}

// fill scan-converts t with a depth test at pixel centers.
func (e *Engine) fill(t *lit, opaque bool) {
	a, b, c := t.v[0], t.v[1], t.v[2]
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if math.Abs(area) < 1e-12 {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}
	w, h := e.frame.W, e.frame.H
	minX := clampInt(int(math.Floor(math.Min(a.x, math.Min(b.x, c.x)))), 0, w-1)
	maxX := clampInt(int(math.Ceil(math.Max(a.x, math.Max(b.x, c.x)))), 0, w-1)
	minY := clampInt(int(math.Floor(math.Min(a.y, math.Min(b.y, c.y)))), 0, h-1)
	maxY := clampInt(int(math.Ceil(math.Max(a.y, math.Max(b.y, c.y)))), 0, h-1)

	flat := Linear(t.mat.Color).Mul(t.light).Add(t.spec)
	textured := t.mat.Texture != nil

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edgeAt(b, c, px, py)
			w1 := edgeAt(c, a, px, py)
			w2 := edgeAt(a, b, px, py)
			if !covers(w0, b, c) || !covers(w1, c, a) || !covers(w2, a, b) {
				continue
			}
			b0, b1, b2 := w0/area, w1/area, w2/area
			z := b0*a.z + b1*b.z + b2*c.z
			i := y*w + x
			if z < -1 || z >= e.depth[i] {
				continue
			}
			col := flat
			if textured {
				uv := a.uv.Mul(b0).Add(b.uv.Mul(b1)).Add(c.uv.Mul(b2))
				col = Linear(t.mat.Albedo(uv)).Mul(t.light).Add(t.spec)
			}
			if opaque {
				e.frame.Pix[i] = col
				e.depth[i] = z
				continue
			}
			e.frame.Pix[i] = col.Blend(e.frame.Pix[i], t.alpha)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
