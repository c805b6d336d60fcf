package ledpanel

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/funtimes-kitchenline/internal/layout"
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

var ErrPanel = errors.New("led panel")

// Panel box-filters each frame down to a W x H LED matrix, applies the
// current limiter and draws the strip in wiring order.
type Panel struct {
	mu      sync.Mutex
	drawer  display.Drawer
	closer  io.Closer
	layout  layout.Layout
	limiter render.Limiter
	log     zerolog.Logger

	cells []render.Color // row major, panel resolution
	strip *image.NRGBA   // 1 x N, strip order
	Count int
}

// New wraps an already-open drawer. The drawer must hold at least
// l.Count() pixels.
func New(d display.Drawer, l layout.Layout, lim render.Limiter, log zerolog.Logger) (*Panel, error) {
	if d == nil {
		return nil, errors.Wrap(ErrPanel, "nil drawer")
	}
	n := l.Count()
	if n <= 0 {
		return nil, errors.Wrapf(ErrPanel, "panel size %dx%d", l.Dim.X, l.Dim.Y)
	}
	if got := d.Bounds().Dx(); got < n {
		return nil, errors.Wrapf(ErrPanel, "%s drives %d pixels, panel needs %d", d, got, n)
	}
	return &Panel{
		drawer:  d,
		layout:  l,
		limiter: lim,
		log:     log,
		cells:   make([]render.Color, n),
		strip:   image.NewNRGBA(image.Rect(0, 0, n, 1)),
	}, nil
}

func (p *Panel) Write(f *render.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	downsample(f, p.cells, p.layout.Dim.X, p.layout.Dim.Y)
	p.limiter.Apply(p.cells)
	return p.flush()
}

// flush encodes cells into strip order and draws.
func (p *Panel) flush() error {
	w := p.layout.Dim.X
	for i, c := range p.cells {
		r, g, b := c.RGB8()
		p.strip.SetNRGBA(p.layout.Index(i%w, i/w), 0, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	if err := p.drawer.Draw(p.drawer.Bounds(), p.strip, image.Point{}); err != nil {
		return errors.Wrapf(err, "draw %s", p.drawer)
	}
	p.Count++
	return nil
}

// Close blanks the strip and releases the port.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.drawer.Halt()
	if p.closer != nil {
		if cerr := p.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// downsample averages the frame region under each panel cell.
func downsample(f *render.Frame, dst []render.Color, pw, ph int) {
	for py := 0; py < ph; py++ {
		y0, y1 := span(py, ph, f.H)
		for px := 0; px < pw; px++ {
			x0, x1 := span(px, pw, f.W)
			var acc render.Color
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					acc = acc.Add(f.At(x, y))
				}
			}
			dst[py*pw+px] = acc.Scale(1 / float32((x1-x0)*(y1-y0)))
		}
	}
}

// span is the source range [a,b) covered by cell i of n, never empty.
func span(i, n, size int) (int, int) {
	a := i * size / n
	b := (i + 1) * size / n
	if b <= a {
		b = a + 1
	}
	if b > size {
		a, b = size-1, size
	}
	return a, b
}
