package effects

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-kitchenline/internal/tween"
)

var ErrConfig = errors.New("invalid effect config")

// Mover is anything with a settable position.
type Mover interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
}

// Puff is a particle handle.
type Puff interface {
	Mover
	SetOpacity(o float64)
}

// Rand is the particle jitter source; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Conveyor scrolls belt slats one step per frame, wrapping back by Span
// once a slat passes Min.
type Conveyor struct {
	Slats []Mover
	Step  float64
	Min   float64
	Span  float64
}

func NewConveyor(slats []Mover, step, min, span float64) (*Conveyor, error) {
	if span <= 0 {
		return nil, errors.Wrapf(ErrConfig, "slat span must be positive, got %v", span)
	}
	return &Conveyor{Slats: slats, Step: step, Min: min, Span: span}, nil
}

// Update advances every slat by one frame.
func (c *Conveyor) Update() {
	for _, s := range c.Slats {
		p := s.Position()
		p[0] -= c.Step
		if p[0] < c.Min {
			p[0] += c.Span
		}
		s.SetPosition(p)
	}
}

// SteamConfig shapes the sink's vapor.
type SteamConfig struct {
	Origin   mgl64.Vec3
	Lifetime time.Duration
	Rise     float64 // units/s
	Spread   float64 // lateral speed range, units/s
	Ceiling  float64 // respawn above this Y
	Fade     tween.Envelope
}

type particle struct {
	vel mgl64.Vec3
	age time.Duration
}

// Steam integrates a fixed pool of puffs: pos += vel*dt, respawning at
// the origin once a puff outlives Lifetime or climbs past Ceiling.
type Steam struct {
	cfg   SteamConfig
	puffs []Puff
	parts []particle
	rnd   Rand
	log   zerolog.Logger

	Respawns int
}

func NewSteam(cfg SteamConfig, puffs []Puff, rnd Rand, log zerolog.Logger) (*Steam, error) {
	if cfg.Lifetime <= 0 {
		return nil, errors.Wrapf(ErrConfig, "steam lifetime must be positive, got %v", cfg.Lifetime)
	}
	if rnd == nil {
		return nil, errors.Wrap(ErrConfig, "nil rand")
	}
	if len(cfg.Fade.Keys) == 0 {
		cfg.Fade = tween.FadeOut()
	}
	s := &Steam{cfg: cfg, puffs: puffs, parts: make([]particle, len(puffs)), rnd: rnd, log: log}
	for i := range puffs {
		s.spawn(i)
		// stagger ages so the column does not pulse
		s.parts[i].age = time.Duration(rnd.Float64() * float64(cfg.Lifetime))
		s.puffs[i].SetOpacity(s.opacity(s.parts[i].age))
	}
	return s, nil
}

func (s *Steam) spawn(i int) {
	s.parts[i] = particle{
		vel: mgl64.Vec3{
			(s.rnd.Float64() - 0.5) * s.cfg.Spread,
			s.cfg.Rise * (0.75 + 0.5*s.rnd.Float64()),
			(s.rnd.Float64() - 0.5) * s.cfg.Spread,
		},
	}
	s.puffs[i].SetPosition(s.cfg.Origin)
}

func (s *Steam) opacity(age time.Duration) float64 {
	return s.cfg.Fade.Eval(float64(age) / float64(s.cfg.Lifetime))
}

// Update advances every puff by dt.
func (s *Steam) Update(dt time.Duration) {
	sec := dt.Seconds()
	before := s.Respawns
	for i, p := range s.puffs {
		pt := &s.parts[i]
		pt.age += dt
		pos := p.Position().Add(pt.vel.Mul(sec))
		if pt.age >= s.cfg.Lifetime || pos.Y() >= s.cfg.Ceiling {
			s.spawn(i)
			s.Respawns++
			p.SetOpacity(s.opacity(0))
			continue
		}
		p.SetPosition(pos)
		p.SetOpacity(s.opacity(pt.age))
	}
	if s.Respawns/1000 > before/1000 {
		s.log.Debug().Int("respawns", s.Respawns).Msg("steam")
	}
}
