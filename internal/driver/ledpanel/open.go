package ledpanel

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-kitchenline/internal/layout"
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

type Config struct {
	Dev     string // spireg name; "" picks the first port
	SpeedHz int
	Layout  layout.Layout
	Limiter render.Limiter
}

// Open initializes the host, opens the SPI port and drives a WS281x strip
// through nrzled.
func Open(cfg Config, log zerolog.Logger) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	port, err := spireg.Open(cfg.Dev)
	if err != nil {
		return nil, errors.Wrapf(err, "open spi port %q", cfg.Dev)
	}
	speed := cfg.SpeedHz
	if speed <= 0 {
		speed = 2500000
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: cfg.Layout.Count(),
		Channels:  3,
		Freq:      physic.Frequency(speed) * physic.Hertz,
	})
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "nrzled")
	}
	if err := d.Halt(); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "blank strip")
	}
	p, err := New(d, cfg.Layout, cfg.Limiter, log)
	if err != nil {
		port.Close()
		return nil, err
	}
	p.closer = port
	log.Info().Str("port", port.String()).Int("pixels", cfg.Layout.Count()).Msg("led panel open")
	return p, nil
}
