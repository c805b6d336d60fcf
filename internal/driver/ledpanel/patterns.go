package ledpanel

import (
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

// Pattern names a wiring check that bypasses the renderer.
type Pattern string

const (
	None        Pattern = ""
	IndexSweep  Pattern = "index_sweep"
	RGBChannels Pattern = "rgb_channels"
	RowSweep    Pattern = "row_sweep"
)

type Runner struct {
	kind Pattern
	step int
}

func NewRunner(kind Pattern) *Runner { return &Runner{kind: kind} }
func (r *Runner) Kind() Pattern      { return r.kind }

// Step fills cells (row major, w x h) with the next pattern frame and
// reports false once the pattern is complete.
func (r *Runner) Step(w, h int, cells []render.Color) bool {
	n := w * h
	for i := range cells {
		cells[i] = render.Color{}
	}
	switch r.kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		cells[r.step] = render.Color{R: 1, G: 1, B: 1}
	case RGBChannels:
		if r.step >= 3 {
			return false
		}
		c := [3]render.Color{{R: 1}, {G: 1}, {B: 1}}[r.step]
		for i := 0; i < n; i++ {
			cells[i] = c
		}
	case RowSweep:
		if r.step >= h {
			return false
		}
		for x := 0; x < w; x++ {
			cells[r.step*w+x] = render.Color{G: 1, B: 1} // cyan
		}
	default:
		return false
	}
	r.step++
	return true
}

// Test draws one pattern step straight to the strip, limiter included.
func (p *Panel) Test(r *Runner) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !r.Step(p.layout.Dim.X, p.layout.Dim.Y, p.cells) {
		return false, nil
	}
	p.limiter.Apply(p.cells)
	return true, p.flush()
}
