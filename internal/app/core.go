package app

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-kitchenline/internal/audio"
	"github.com/coreman2200/funtimes-kitchenline/internal/camera"
	"github.com/coreman2200/funtimes-kitchenline/internal/config"
	diag "github.com/coreman2200/funtimes-kitchenline/internal/diagnostics"
	"github.com/coreman2200/funtimes-kitchenline/internal/effects"
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
	"github.com/coreman2200/funtimes-kitchenline/internal/scene"
	"github.com/coreman2200/funtimes-kitchenline/internal/sequence"
	"github.com/coreman2200/funtimes-kitchenline/internal/ws"
)

// Options carries what InitCore cannot read from the config.
type Options struct {
	Clock    clock.Clock     // nil: wall clock
	Log      zerolog.Logger  // zero value is disabled
	Cue      audio.Cue       // nil: opened from cfg.Audio
	Registry *Registry       // nil: DefaultRegistry()
	Drivers  []render.Driver // written after the configured drivers
}

type sizer interface {
	Size() (w, h int)
}

// Core owns the kitchen and everything animating it. All scene mutation
// happens on the goroutine calling Step or Run.
type Core struct {
	Cfg      *config.Config
	Kitchen  *scene.Kitchen
	Seq      *sequence.Sequencer
	Cam      *camera.Camera
	Orbit    *camera.Orbit
	Conveyor *effects.Conveyor
	Steam    *effects.Steam
	Eng      *render.Engine
	Preview  *ws.State
	Cue      audio.Cue

	// Frames counts successful renders.
	Frames uint64

	clk     clock.Clock
	log     zerolog.Logger
	framing camera.Framing
	sizers  []sizer
	closers []io.Closer
	clinked bool
}

// InitCore builds the scene, sequencer, effects, camera and engine from
// cfg and opens the configured drivers. A driver that fails to open is
// logged and skipped; an unknown driver name is an error.
func InitCore(cfg *config.Config, opts Options) (_ *Core, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	c := &Core{Cfg: cfg, clk: clk, log: opts.Log}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	seed := cfg.Sequence.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	kopt := scene.DefaultOptions()
	kopt.Plates = cfg.Sequence.Count
	kopt.PlatesPerRow = cfg.Sequence.RowWidth
	kopt.ContainerY = cfg.Scene.ContainerY
	kopt.TextureSize = cfg.Scene.TextureSize
	kopt.SteamParticles = cfg.Effects.Steam.Count
	k, err := scene.BuildKitchen(kopt, rnd)
	if err != nil {
		return nil, err
	}
	c.Kitchen = k

	w, h := cfg.Render.Width, cfg.Render.Height
	aspect := float64(w) / float64(h)
	c.framing = camera.Framing{
		Width:     cfg.Camera.FitWidth,
		Height:    cfg.Camera.FitHeight,
		EyeHeight: cfg.Camera.Height,
		LookAtY:   cfg.Camera.LookAtY,
	}
	c.Cam = camera.New(aspect)
	c.Cam.Near, c.Cam.Far = cfg.Camera.Near, cfg.Camera.Far
	c.Cam.Fit(aspect, c.framing)
	c.Orbit = camera.NewOrbit(c.Cam, cfg.Render.FPS, cfg.Camera.OrbitFrequency, cfg.Camera.OrbitDamping)

	slats := make([]effects.Mover, len(k.Slats))
	for i, n := range k.Slats {
		slats[i] = n
	}
	if c.Conveyor, err = effects.NewConveyor(slats, cfg.Effects.SlatStep, cfg.Effects.SlatMin, cfg.Effects.SlatSpan); err != nil {
		return nil, err
	}

	puffs := make([]effects.Puff, len(k.Steam))
	for i, n := range k.Steam {
		puffs[i] = n
	}
	sc := cfg.Effects.Steam
	c.Steam, err = effects.NewSteam(effects.SteamConfig{
		Origin:   k.SteamOrigin,
		Lifetime: time.Duration(sc.LifetimeMs) * time.Millisecond,
		Rise:     sc.Rise,
		Spread:   sc.Spread,
		Ceiling:  sc.Ceiling,
	}, puffs, rnd, c.log)
	if err != nil {
		return nil, err
	}

	if c.Eng, err = render.NewEngine(w, h, k.Root, k.Lights, c.Cam, c.log); err != nil {
		return nil, err
	}
	bg, _ := colorful.Hex(cfg.Render.Background)
	c.Eng.Background = render.Linear(bg)
	c.Eng.SetPost(render.PostPipeline{ToneMap: render.Tone{ExposureEV: cfg.Render.ExposureEV, Gamma: cfg.Render.Gamma}.Apply})

	c.Preview = ws.NewState(cfg.Render.FPS, c, c, clk, c.log)
	c.Preview.Drivers = cfg.Render.Drivers

	c.Cue = opts.Cue
	if c.Cue == nil {
		if cfg.Audio.Enabled {
			c.Cue = audio.Open(cfg.Audio.FreqHz, time.Duration(cfg.Audio.Ms)*time.Millisecond, c.log)
		} else {
			c.Cue = audio.Nop{}
		}
	}

	objs := make([]sequence.Object, len(k.Plates))
	for i, p := range k.Plates {
		objs[i] = p
	}
	c.Seq, err = sequence.New(cfg.Sequence.Build(), objs,
		sequence.WithClock(clk),
		sequence.WithRand(rnd),
		sequence.WithHooks(c.hooks()),
		sequence.WithLogger(c.log),
	)
	if err != nil {
		return nil, err
	}

	for _, name := range cfg.Render.Drivers {
		f, ok := reg.Get(name)
		if !ok {
			return nil, errors.Wrapf(ErrDriver, "%q (known: %v)", name, reg.Names())
		}
		d, err := f(c)
		if err != nil {
			c.log.Warn().Err(err).Str("driver", name).Msg("driver init failed; skipping")
			c.Preview.PushDiag(diag.DriverFailed(name, err))
			continue
		}
		c.attach(d)
		c.Eng.AddDriver(named{name: name, d: d, c: c})
		c.log.Info().Str("driver", name).Msg("driver attached")
	}
	for _, d := range opts.Drivers {
		c.attach(d)
		c.Eng.AddDriver(d)
	}
	return c, nil
}

func (c *Core) attach(d render.Driver) {
	if s, ok := d.(sizer); ok {
		c.sizers = append(c.sizers, s)
	}
	if cl, ok := d.(io.Closer); ok && d != render.Driver(c.Preview) {
		c.closers = append(c.closers, cl)
	}
}

func (c *Core) hooks() sequence.Hooks {
	return sequence.Hooks{
		PhaseChanged: func(from, to sequence.State) {
			c.Preview.PushDiag(diag.Phase(string(from), string(to), c.Seq.Cycle()))
		},
		Shelved: func(int) {
			// every plate shelves on the same tick; one clink per tick
			if !c.clinked {
				c.clinked = true
				c.Cue.Clink()
			}
		},
		CycleDone: func(n int) {
			c.Preview.PushDiag(diag.CycleDone(n))
		},
	}
}

// Run ticks at the configured frame rate until ctx is done or a driver
// fails. The sequencer is started on entry and stopped on exit.
func (c *Core) Run(ctx context.Context) error {
	interval := c.Cfg.FrameInterval()
	t := c.clk.Ticker(interval)
	defer t.Stop()

	c.Seq.Start()
	defer c.Seq.Stop()
	c.log.Info().Dur("interval", interval).Msg("render loop started")

	last := c.clk.Now()
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Uint64("frames", c.Frames).Msg("render loop stopped")
			return nil
		case now := <-t.C:
			dt := now.Sub(last)
			last = now
			if err := c.Step(dt); err != nil {
				return err
			}
		}
	}
}

// Step advances one frame: orbit, sequencer, effects, then render.
func (c *Core) Step(dt time.Duration) error {
	c.clinked = false
	for _, s := range c.sizers {
		if w, h := s.Size(); w > 0 && h > 0 {
			if err := c.Resize(w, h); err != nil {
				return err
			}
			break
		}
	}
	c.Orbit.Update()
	c.Seq.Tick()
	c.Conveyor.Update()
	c.Steam.Update(dt)
	if err := c.Eng.RenderOnce(); err != nil {
		return err
	}
	c.Frames++
	return nil
}

// Resize retargets the engine and reframes the camera. Same-size calls
// leave the orbit alone.
func (c *Core) Resize(w, h int) error {
	if f := c.Eng.Frame(); f != nil && f.W == w && f.H == h {
		return nil
	}
	if err := c.Eng.Resize(w, h); err != nil {
		return err
	}
	c.Cam.Fit(c.Cam.Aspect, c.framing)
	c.Orbit.Sync()
	return nil
}

func (c *Core) Rotate(dAzimuth, dPolar float64) { c.Orbit.Rotate(dAzimuth, dPolar) }
func (c *Core) Zoom(factor float64)             { c.Orbit.Zoom(factor) }

func (c *Core) Snapshot() sequence.Status { return c.Seq.Snapshot() }

// Close releases drivers in reverse order and returns the first error.
func (c *Core) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	if c.Preview != nil {
		c.Preview.Close()
	}
	if c.Cue != nil {
		c.Cue.Close()
	}
	return first
}
