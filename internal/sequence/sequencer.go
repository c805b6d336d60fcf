package sequence

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-kitchenline/internal/tween"
)

// Sequencer drives the reset -> drop -> convey -> shelve cycle over a fixed
// object set. It advances only when Tick is called; all object mutation
// happens inside Start and Tick.
type Sequencer struct {
	mu sync.Mutex

	cfg   Config
	objs  []Object
	clk   clock.Clock
	rnd   Rand
	hooks Hooks
	log   zerolog.Logger

	state      State
	running    bool
	cycle      int
	phaseStart time.Time
	waitUntil  time.Time

	tracks []tween.Track
	done   []bool

	// hook calls queued while locked
	pending []func()
}

// Option configures a Sequencer.
type Option func(*Sequencer)

func WithClock(c clock.Clock) Option     { return func(s *Sequencer) { s.clk = c } }
func WithRand(r Rand) Option             { return func(s *Sequencer) { s.rnd = r } }
func WithHooks(h Hooks) Option           { return func(s *Sequencer) { s.hooks = h } }
func WithLogger(l zerolog.Logger) Option { return func(s *Sequencer) { s.log = l } }

// New validates cfg against objs and returns an Idle sequencer.
func New(cfg Config, objs []Object, opts ...Option) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(objs) != cfg.Count {
		return nil, errors.Wrapf(ErrConfig, "got %d objects, configured for %d", len(objs), cfg.Count)
	}
	for i, o := range objs {
		if o == nil {
			return nil, errors.Wrapf(ErrConfig, "object %d is nil", i)
		}
	}
	s := &Sequencer{
		cfg:    cfg,
		objs:   append([]Object(nil), objs...),
		clk:    clock.New(),
		log:    zerolog.Nop(),
		state:  Idle,
		tracks: make([]tween.Track, cfg.Count),
		done:   make([]bool, cfg.Count),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// SlotFor returns the shelf placement of object index.
func (s *Sequencer) SlotFor(index int) (Slot, error) {
	return slotFor(s.cfg, index)
}

func slotFor(cfg Config, index int) (Slot, error) {
	if index < 0 || index >= cfg.Count {
		return Slot{}, errors.Wrapf(ErrConfig, "index %d outside [0,%d)", index, cfg.Count)
	}
	row := index / cfg.RowWidth
	col := index % cfg.RowWidth
	center := float64(cfg.RowWidth-1) / 2
	return Slot{
		Row:    row,
		Column: col,
		Target: mgl64.Vec3{
			cfg.ShelfX + (float64(col)-center)*cfg.Spacing,
			cfg.ShelfHeights[row],
			cfg.ShelfZ,
		},
	}, nil
}

// Start begins cycling. Calling it while a cycle is in flight only
// re-arms the running flag.
func (s *Sequencer) Start() {
	s.mu.Lock()
	s.running = true
	if s.state == Idle {
		s.cycle++
		s.reset()
		s.enter(Resetting, s.clk.Now())
	}
	s.unlock()
}

// Stop clears the running flag. An active phase still finishes; the
// sequencer goes Idle at the next phase boundary instead of waiting.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.running = false
	if s.state == Waiting {
		s.enter(Idle, s.clk.Now())
	}
	s.unlock()
}

// Tick advances the active phase to the clock's current time.
func (s *Sequencer) Tick() {
	s.mu.Lock()
	now := s.clk.Now()
	switch s.state {
	case Resetting:
		s.enterDropping(now)
	case Dropping:
		if s.step(now, true) {
			s.enterConveying(now)
		}
	case Conveying:
		if s.step(now, false) {
			s.enterShelving(now)
		}
	case Shelving:
		if s.step(now, false) {
			s.finishCycle(now)
		}
	case Waiting:
		if !now.Before(s.waitUntil) {
			s.cycle++
			s.reset()
			s.enter(Resetting, now)
		}
	}
	s.unlock()
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Cycle is the 1-based number of the current or last cycle.
func (s *Sequencer) Cycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

func (s *Sequencer) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:     s.state,
		Running:   s.running,
		Cycle:     s.cycle,
		Positions: make([]mgl64.Vec3, len(s.objs)),
	}
	if s.state != Idle {
		st.PhaseElapsed = s.clk.Now().Sub(s.phaseStart)
	}
	for i, o := range s.objs {
		st.Positions[i] = o.Position()
	}
	return st
}

// unlock releases the mutex and then runs queued hooks.
func (s *Sequencer) unlock() {
	calls := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range calls {
		f()
	}
}

func (s *Sequencer) queue(f func()) {
	s.pending = append(s.pending, f)
}

func (s *Sequencer) enter(to State, now time.Time) {
	from := s.state
	s.state = to
	s.phaseStart = now
	s.log.Debug().Str("from", string(from)).Str("to", string(to)).Int("cycle", s.cycle).Msg("phase")
	if h := s.hooks.PhaseChanged; h != nil {
		s.queue(func() { h(from, to) })
	}
}

func (s *Sequencer) reset() {
	side := s.cfg.JitterSide
	for _, o := range s.objs {
		o.SetPosition(mgl64.Vec3{
			s.rnd.Float64()*side - side/2,
			s.cfg.ResetHeight,
			s.rnd.Float64()*side - side/2,
		})
	}
}

func (s *Sequencer) enterDropping(now time.Time) {
	for i, o := range s.objs {
		p := o.Position()
		delay := time.Duration(i) * s.cfg.Stagger
		if s.cfg.SequentialDrops {
			delay = time.Duration(i) * (nonNegative(s.cfg.DropDuration) + s.cfg.Stagger)
		}
		s.tracks[i] = tween.Track{
			From:     p,
			To:       mgl64.Vec3{p.X(), s.cfg.RestY, p.Z()},
			Delay:    delay,
			Duration: s.cfg.DropDuration,
			Ease:     s.cfg.Ease,
		}
	}
	s.begin(Dropping, now)
}

func (s *Sequencer) enterConveying(now time.Time) {
	for i, o := range s.objs {
		p := o.Position()
		s.tracks[i] = tween.Track{
			From:     mgl64.Vec3{s.cfg.ConveyStartX, p.Y(), p.Z()},
			To:       mgl64.Vec3{s.cfg.ConveyEndX, p.Y(), p.Z()},
			Duration: s.cfg.ConveyDuration,
			Ease:     s.cfg.Ease,
		}
	}
	s.begin(Conveying, now)
}

func (s *Sequencer) enterShelving(now time.Time) {
	for i, o := range s.objs {
		slot, _ := slotFor(s.cfg, i) // indices validated in New
		s.tracks[i] = tween.Track{
			From:     o.Position(),
			To:       slot.Target,
			Duration: s.cfg.ShelveDuration,
			Ease:     s.cfg.Ease,
		}
	}
	s.begin(Shelving, now)
}

// begin enters a tweened phase and applies its first frame.
func (s *Sequencer) begin(to State, now time.Time) {
	for i := range s.done {
		s.done[i] = false
	}
	s.enter(to, now)
	s.step(now, to == Dropping)
}

// step applies the active tracks at now and reports whether every
// object has completed its track.
func (s *Sequencer) step(now time.Time, landing bool) bool {
	elapsed := now.Sub(s.phaseStart)
	all := true
	for i, o := range s.objs {
		tr := s.tracks[i]
		if s.done[i] {
			continue
		}
		if tr.Started(elapsed) {
			o.SetPosition(tr.At(elapsed))
		}
		if !tr.Done(elapsed) {
			all = false
			continue
		}
		s.done[i] = true
		if h := s.hooks.Landed; landing && h != nil {
			idx := i
			s.queue(func() { h(idx) })
		}
	}
	return all
}

func (s *Sequencer) finishCycle(now time.Time) {
	if h := s.hooks.Shelved; h != nil {
		for i := range s.objs {
			idx := i
			s.queue(func() { h(idx) })
		}
	}
	if h := s.hooks.CycleDone; h != nil {
		n := s.cycle
		s.queue(func() { h(n) })
	}
	if !s.running {
		s.enter(Idle, now)
		return
	}
	s.enter(Waiting, now)
	s.waitUntil = now.Add(s.cfg.IdleDelay)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
