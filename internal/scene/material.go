package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Rand is the noise source; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Material is a Phong surface. Opacity below 1 draws blended.
type Material struct {
	Color     colorful.Color
	Opacity   float64
	Shininess float64
	Texture   image.Image
	Repeat    mgl64.Vec2
}

// Phong returns an opaque material of hex color.
func Phong(hex string) Material {
	return Material{Color: mustHex(hex), Opacity: 1, Shininess: 30, Repeat: mgl64.Vec2{1, 1}}
}

// mustHex parses a "#rrggbb" literal and panics on a malformed one.
func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Translucent returns m drawn at opacity.
func (m Material) Translucent(opacity float64) Material {
	m.Opacity = opacity
	return m
}

func (m Material) IsTranslucent() bool { return m.Opacity < 1 }

// Albedo is the material color modulated by the texture at uv.
// Texture lookups wrap and use the nearest texel.
func (m Material) Albedo(uv mgl64.Vec2) colorful.Color {
	if m.Texture == nil {
		return m.Color
	}
	b := m.Texture.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return m.Color
	}
	rx, ry := m.Repeat[0], m.Repeat[1]
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	u := wrap(uv[0] * rx)
	v := wrap(uv[1] * ry)
	x := b.Min.X + int(u*float64(w))%w
	y := b.Min.Y + int((1-v)*float64(h))%h
	t, _ := colorful.MakeColor(m.Texture.At(x, y))
	return colorful.Color{R: m.Color.R * t.R, G: m.Color.G * t.G, B: m.Color.B * t.B}
}

func wrap(x float64) float64 {
	return x - math.Floor(x)
}

type LightKind string

const (
	Ambient     LightKind = "ambient"
	Directional LightKind = "directional"
)

// Light.Direction points from the surface toward the light.
type Light struct {
	Kind      LightKind
	Color     colorful.Color
	Intensity float64
	Direction mgl64.Vec3
}

// StainlessSteel paints a brushed-metal tile: a diagonal light-dark-light
// gradient with w*h/10 faint dark specks.
func StainlessSteel(w, h int, rnd Rand) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	edge := mustHex("#b8b8b8")
	mid := mustHex("#f0f0f0")
	den := float64(w*w + h*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := (float64(x*w) + float64(y*h)) / den
			var c colorful.Color
			if t < 0.5 {
				c = edge.BlendRgb(mid, t*2)
			} else {
				c = mid.BlendRgb(edge, (t-0.5)*2)
			}
			r, g, b := c.Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
	for i := 0; i < w*h/10; i++ {
		a := rnd.Float64() * 0.1
		x := int(rnd.Float64() * float64(w))
		y := int(rnd.Float64() * float64(h))
		p := img.RGBAAt(x, y)
		k := 1 - a
		img.SetRGBA(x, y, color.RGBA{
			uint8(float64(p.R) * k),
			uint8(float64(p.G) * k),
			uint8(float64(p.B) * k),
			255,
		})
	}
	return img
}
