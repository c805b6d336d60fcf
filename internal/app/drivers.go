package app

import (
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/coreman2200/funtimes-kitchenline/internal/config"
	diag "github.com/coreman2200/funtimes-kitchenline/internal/diagnostics"
	"github.com/coreman2200/funtimes-kitchenline/internal/driver/fake"
	"github.com/coreman2200/funtimes-kitchenline/internal/driver/ledpanel"
	"github.com/coreman2200/funtimes-kitchenline/internal/driver/term"
	"github.com/coreman2200/funtimes-kitchenline/internal/layout"
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

var ErrDriver = errors.New("unknown driver")

// DriverFactory opens a frame sink for the core. Drivers that also
// implement io.Closer are closed with the core; drivers with a
// Size() (w, h int) method set the render size.
type DriverFactory func(c *Core) (render.Driver, error)

type Registry struct {
	m map[string]DriverFactory
}

func NewRegistry() *Registry { return &Registry{m: map[string]DriverFactory{}} }

func (r *Registry) Register(name string, f DriverFactory) { r.m[name] = f }

func (r *Registry) Get(name string) (DriverFactory, bool) {
	f, ok := r.m[name]
	return f, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry knows the preview, terminal, LED panel and log drivers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("ws", func(c *Core) (render.Driver, error) { return c.Preview, nil })
	r.Register("term", func(c *Core) (render.Driver, error) { return term.Open() })
	r.Register("led", func(c *Core) (render.Driver, error) {
		return ledpanel.Open(LEDConfig(c.Cfg.LED), c.log)
	})
	r.Register("fake", func(c *Core) (render.Driver, error) {
		return fake.New(os.Stdout, c.Cfg.Render.FPS), nil
	})
	return r
}

// LEDConfig maps the led section onto the panel driver.
func LEDConfig(led config.LED) ledpanel.Config {
	return ledpanel.Config{
		Dev:     led.Dev,
		SpeedHz: led.SpeedHz,
		Layout: layout.Layout{
			Dim:        layout.Dim{X: led.Width, Y: led.Height},
			Serpentine: led.Serpentine,
		},
		Limiter: render.Limiter{WhiteCap: led.WhiteCap, ChanMA: led.ChanMA, BudgetMA: led.BudgetMA},
	}
}

// named tags write errors with the driver name and reports them.
type named struct {
	name string
	d    render.Driver
	c    *Core
}

func (n named) Write(f *render.Frame) error {
	if err := n.d.Write(f); err != nil {
		n.c.Preview.PushDiag(diag.DriverFailed(n.name, err))
		return errors.Wrapf(err, "driver %s", n.name)
	}
	return nil
}
