package fake

import (
	"fmt"
	"io"
	"os"

	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

// Driver prints a compact summary of every Every-th frame (first pixel &
// avg), useful for headless runs.
type Driver struct {
	Out   io.Writer
	Every int
	Count int
}

func New(out io.Writer, every int) *Driver {
	if out == nil {
		out = os.Stdout
	}
	if every <= 0 {
		every = 1
	}
	return &Driver{Out: out, Every: every}
}

func (d *Driver) Write(f *render.Frame) error {
	d.Count++
	if d.Count%d.Every != 0 || len(f.Pix) == 0 {
		return nil
	}
	avg := f.Average()
	first := f.Pix[0]
	_, err := fmt.Fprintf(d.Out, "[frame %04d] %dx%d avg=(%.2f,%.2f,%.2f) first=(%.2f,%.2f,%.2f)\n",
		d.Count, f.W, f.H, avg.R, avg.G, avg.B, first.R, first.G, first.B)
	return err
}
