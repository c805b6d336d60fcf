package render

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Color is linear RGB.
type Color struct{ R, G, B float32 }

// Linear converts an sRGB colorful value to a linear Color.
func Linear(c colorful.Color) Color {
	r, g, b := c.LinearRgb()
	return Color{float32(r), float32(g), float32(b)}
}

func (c Color) Add(o Color) Color     { return Color{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c Color) Mul(o Color) Color     { return Color{c.R * o.R, c.G * o.G, c.B * o.B} }
func (c Color) Scale(s float32) Color { return Color{c.R * s, c.G * s, c.B * s} }
func (c Color) Blend(dst Color, a float32) Color {
	return Color{c.R*a + dst.R*(1-a), c.G*a + dst.G*(1-a), c.B*a + dst.B*(1-a)}
}

// Frame is a row-major W x H image, origin top left.
type Frame struct {
	W, H int
	Pix  []Color
}

func NewFrame(w, h int) *Frame {
	return &Frame{W: w, H: h, Pix: make([]Color, w*h)}
}

func (f *Frame) At(x, y int) Color     { return f.Pix[y*f.W+x] }
func (f *Frame) Set(x, y int, c Color) { f.Pix[y*f.W+x] = c }

func (f *Frame) Fill(c Color) {
	for i := range f.Pix {
		f.Pix[i] = c
	}
}

// Average is the mean color, zero for an empty frame.
func (f *Frame) Average() Color {
	var r, g, b float64
	for _, c := range f.Pix {
		r += float64(c.R)
		g += float64(c.G)
		b += float64(c.B)
	}
	n := float64(len(f.Pix))
	if n == 0 {
		return Color{}
	}
	return Color{float32(r / n), float32(g / n), float32(b / n)}
}

// RGB8 packs the frame as 8-bit RGB triples, clamping to [0,1].
func (f *Frame) RGB8() []byte {
	out := make([]byte, 0, len(f.Pix)*3)
	for _, c := range f.Pix {
		r, g, b := c.RGB8()
		out = append(out, r, g, b)
	}
	return out
}

// RGB8 clamps to [0,1] and rounds to bytes.
func (c Color) RGB8() (r, g, b uint8) {
	return to8(c.R), to8(c.G), to8(c.B)
}

func to8(v float32) byte {
	return byte(clamp01(v)*255 + 0.5)
}

// Driver receives every finished frame.
type Driver interface {
	Write(f *Frame) error
}
