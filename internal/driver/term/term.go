package term

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

// halfBlock packs two vertical pixels into one cell: foreground is the
// upper pixel, background the lower.
const halfBlock = '▀'

// Screen draws frames on a terminal.
type Screen struct {
	mu sync.Mutex
	s  tcell.Screen
}

// Open initializes the controlling terminal.
func Open() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "new terminal screen")
	}
	if err := s.Init(); err != nil {
		return nil, errors.Wrap(err, "init terminal screen")
	}
	s.HideCursor()
	return New(s), nil
}

// New wraps an initialized screen.
func New(s tcell.Screen) *Screen {
	return &Screen{s: s}
}

func (d *Screen) Screen() tcell.Screen { return d.s }

// Size is the frame size that fills the terminal, in pixels.
func (d *Screen) Size() (w, h int) {
	cw, ch := d.s.Size()
	return cw, ch * 2
}

func (d *Screen) Write(f *render.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cw, ch := d.s.Size()
	for cy := 0; cy < ch && cy*2 < f.H; cy++ {
		for cx := 0; cx < cw && cx < f.W; cx++ {
			top := f.At(cx, cy*2)
			var bottom render.Color
			if cy*2+1 < f.H {
				bottom = f.At(cx, cy*2+1)
			}
			style := tcell.StyleDefault.Foreground(toTcell(top)).Background(toTcell(bottom))
			d.s.SetContent(cx, cy, halfBlock, nil, style)
		}
	}
	d.s.Show()
	return nil
}

func (d *Screen) Close() error {
	d.s.Fini()
	return nil
}

func toTcell(c render.Color) tcell.Color {
	r, g, b := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
