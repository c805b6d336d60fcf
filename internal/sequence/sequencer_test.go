package sequence

import (
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 16 * time.Millisecond

// plate is a bare Object for tests.
type plate struct{ p mgl64.Vec3 }

func (p *plate) Position() mgl64.Vec3     { return p.p }
func (p *plate) SetPosition(v mgl64.Vec3) { p.p = v }

func plates(n int) ([]Object, []*plate) {
	objs := make([]Object, n)
	ps := make([]*plate, n)
	for i := range ps {
		ps[i] = &plate{}
		objs[i] = ps[i]
	}
	return objs, ps
}

func newTestSequencer(t *testing.T, cfg Config, h Hooks) (*Sequencer, *clock.Mock, []*plate) {
	t.Helper()
	objs, ps := plates(cfg.Count)
	mock := clock.NewMock()
	s, err := New(cfg, objs,
		WithClock(mock),
		WithRand(rand.New(rand.NewSource(7))),
		WithHooks(h),
	)
	require.NoError(t, err)
	return s, mock, ps
}

// runUntil ticks frame by frame until pred holds or max frames pass.
func runUntil(s *Sequencer, mock *clock.Mock, max int, pred func() bool) int {
	for i := 1; i <= max; i++ {
		mock.Add(frame)
		s.Tick()
		if pred() {
			return i
		}
	}
	return -1
}

func compress(states []State) []State {
	var out []State
	for _, st := range states {
		if len(out) == 0 || out[len(out)-1] != st {
			out = append(out, st)
		}
	}
	return out
}

func TestPhaseOrderAcrossCycles(t *testing.T) {
	var changes []State
	s, mock, _ := newTestSequencer(t, DefaultConfig(), Hooks{
		PhaseChanged: func(from, to State) { changes = append(changes, to) },
	})

	s.Start()
	sampled := []State{s.State()}
	frames := runUntil(s, mock, 2000, func() bool {
		sampled = append(sampled, s.State())
		return s.Cycle() == 3
	})
	require.NotEqual(t, -1, frames, "third cycle never started")

	want := []State{
		Resetting, Dropping, Conveying, Shelving, Waiting,
		Resetting, Dropping, Conveying, Shelving, Waiting,
		Resetting,
	}
	assert.Equal(t, want, compress(sampled))
	assert.Equal(t, want, changes)
}

func TestPhasesCompleteInBoundedFrames(t *testing.T) {
	cfg := DefaultConfig()
	s, mock, _ := newTestSequencer(t, cfg, Hooks{})
	s.Start()
	s.Tick()
	require.Equal(t, Dropping, s.State())

	budget := func(d time.Duration) int { return int(d/frame) + 2 }
	dropEnd := time.Duration(cfg.Count-1)*cfg.Stagger + cfg.DropDuration

	n := runUntil(s, mock, budget(dropEnd), func() bool { return s.State() == Conveying })
	assert.NotEqual(t, -1, n, "dropping did not finish")
	n = runUntil(s, mock, budget(cfg.ConveyDuration), func() bool { return s.State() == Shelving })
	assert.NotEqual(t, -1, n, "conveying did not finish")
	n = runUntil(s, mock, budget(cfg.ShelveDuration), func() bool { return s.State() == Waiting })
	assert.NotEqual(t, -1, n, "shelving did not finish")
	n = runUntil(s, mock, budget(cfg.IdleDelay), func() bool { return s.State() == Resetting })
	assert.NotEqual(t, -1, n, "idle delay did not elapse")
}

func TestStartIsIdempotent(t *testing.T) {
	resets := 0
	s, mock, _ := newTestSequencer(t, DefaultConfig(), Hooks{
		PhaseChanged: func(from, to State) {
			if to == Resetting {
				resets++
			}
		},
	})
	s.Start()
	s.Start()
	s.Tick()
	s.Start()
	runUntil(s, mock, 100, func() bool { return false })
	s.Start()

	assert.Equal(t, 1, s.Cycle())
	assert.Equal(t, 1, resets)
	assert.True(t, s.Running())
}

func TestStaggeredDropStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 3
	cfg.Stagger = 200 * time.Millisecond
	cfg.DropDuration = 600 * time.Millisecond
	s, mock, ps := newTestSequencer(t, cfg, Hooks{})

	s.Start()
	s.Tick()
	require.Equal(t, Dropping, s.State())
	start := mock.Now()

	for s.State() == Dropping {
		mock.Add(10 * time.Millisecond)
		s.Tick()
		if s.State() != Dropping {
			break
		}
		elapsed := mock.Now().Sub(start)
		for k, p := range ps {
			if elapsed < time.Duration(k)*cfg.Stagger {
				assert.Equalf(t, cfg.ResetHeight, p.p.Y(),
					"object %d moved at %v, before its %v offset", k, elapsed, time.Duration(k)*cfg.Stagger)
			}
		}
	}
	for _, p := range ps {
		assert.InDelta(t, cfg.RestY, p.p.Y(), 1e-9)
	}
}

func TestSequentialDropsWaitForLanding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 2
	cfg.SequentialDrops = true
	var landedAt []time.Duration
	var s *Sequencer
	var mock *clock.Mock
	var start time.Time
	s, mock, _ = newTestSequencer(t, cfg, Hooks{
		Landed: func(i int) { landedAt = append(landedAt, mock.Now().Sub(start)) },
	})
	s.Start()
	s.Tick()
	start = mock.Now()
	runUntil(s, mock, 200, func() bool { return s.State() == Conveying })

	require.Len(t, landedAt, 2)
	assert.True(t, landedAt[0] >= cfg.DropDuration, "first landing at %v", landedAt[0])
	assert.True(t, landedAt[1] >= 2*cfg.DropDuration+cfg.Stagger, "second landing at %v", landedAt[1])
}

func TestShelfSlot(t *testing.T) {
	s, _, _ := newTestSequencer(t, DefaultConfig(), Hooks{})
	slot, err := s.SlotFor(4)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.Row)
	assert.Equal(t, 1, slot.Column)
	assert.Equal(t, mgl64.Vec3{-8, 0, 0}, slot.Target)

	slot, err = s.SlotFor(6)
	require.NoError(t, err)
	assert.True(t, slot.Target.ApproxEqual(mgl64.Vec3{-10.8, 4, 0}), "slot 6 target %v", slot.Target)

	_, err = s.SlotFor(9)
	assert.Equal(t, ErrConfig, errors.Cause(err))
	_, err = s.SlotFor(-1)
	assert.Equal(t, ErrConfig, errors.Cause(err))
}

func TestPlatesEndOnTheirShelves(t *testing.T) {
	s, mock, ps := newTestSequencer(t, DefaultConfig(), Hooks{})
	s.Start()
	n := runUntil(s, mock, 1000, func() bool { return s.State() == Waiting })
	require.NotEqual(t, -1, n)
	for i, p := range ps {
		slot, err := s.SlotFor(i)
		require.NoError(t, err)
		assert.True(t, p.p.ApproxEqual(slot.Target), "plate %d at %v, want %v", i, p.p, slot.Target)
	}
}

func TestConveyHoldsYAndZ(t *testing.T) {
	cfg := DefaultConfig()
	s, mock, ps := newTestSequencer(t, cfg, Hooks{})
	s.Start()
	runUntil(s, mock, 1000, func() bool { return s.State() == Conveying })
	before := make([]mgl64.Vec3, len(ps))
	for i, p := range ps {
		before[i] = p.p
		assert.Equal(t, cfg.ConveyStartX, p.p.X())
	}
	mock.Add(cfg.ConveyDuration / 2)
	s.Tick()
	for i, p := range ps {
		assert.InDelta(t, (cfg.ConveyStartX+cfg.ConveyEndX)/2, p.p.X(), 1e-9)
		assert.Equal(t, before[i].Y(), p.p.Y())
		assert.Equal(t, before[i].Z(), p.p.Z())
	}
}

func TestStopDuringDroppingFinishesCycle(t *testing.T) {
	var changes []State
	cycles := 0
	s, mock, _ := newTestSequencer(t, DefaultConfig(), Hooks{
		PhaseChanged: func(from, to State) { changes = append(changes, to) },
		CycleDone:    func(int) { cycles++ },
	})
	s.Start()
	s.Tick()
	mock.Add(300 * time.Millisecond)
	s.Tick()
	require.Equal(t, Dropping, s.State())

	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, Dropping, s.State())

	n := runUntil(s, mock, 1000, func() bool { return s.State() == Idle })
	require.NotEqual(t, -1, n, "sequencer never went idle")
	assert.Equal(t, []State{Resetting, Dropping, Conveying, Shelving, Idle}, changes)
	assert.Equal(t, 1, cycles)

	runUntil(s, mock, 300, func() bool { return false })
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, s.Cycle())
}

func TestStopWhileWaitingGoesIdle(t *testing.T) {
	s, mock, _ := newTestSequencer(t, DefaultConfig(), Hooks{})
	s.Start()
	runUntil(s, mock, 1000, func() bool { return s.State() == Waiting })
	s.Stop()
	assert.Equal(t, Idle, s.State())

	s.Start()
	assert.Equal(t, Resetting, s.State())
	assert.Equal(t, 2, s.Cycle())
}

func TestRestartAfterStopMidCycleKeepsOneCycle(t *testing.T) {
	s, mock, _ := newTestSequencer(t, DefaultConfig(), Hooks{})
	s.Start()
	s.Tick()
	s.Stop()
	s.Start()
	n := runUntil(s, mock, 1000, func() bool { return s.State() == Waiting })
	require.NotEqual(t, -1, n)
	assert.Equal(t, 1, s.Cycle())
}

func TestZeroDurationsCompleteImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DropDuration = 0
	cfg.Stagger = 0
	cfg.ConveyDuration = -time.Second
	cfg.ShelveDuration = 0
	cfg.IdleDelay = 0
	s, mock, ps := newTestSequencer(t, cfg, Hooks{})

	s.Start()
	var seen []State
	for i := 0; i < 5; i++ {
		mock.Add(frame)
		s.Tick()
		seen = append(seen, s.State())
	}
	assert.Equal(t, []State{Dropping, Conveying, Shelving, Waiting, Resetting}, seen)
	for _, p := range ps {
		assert.Equal(t, cfg.ResetHeight, p.p.Y(), "reset should have re-randomized the plates")
	}
}

func TestResetStaysInsideJitterBox(t *testing.T) {
	cfg := DefaultConfig()
	s, _, ps := newTestSequencer(t, cfg, Hooks{})
	s.Start()
	half := cfg.JitterSide / 2
	for _, p := range ps {
		assert.True(t, p.p.X() >= -half && p.p.X() < half, "x out of jitter box: %v", p.p)
		assert.True(t, p.p.Z() >= -half && p.p.Z() < half, "z out of jitter box: %v", p.p)
		assert.Equal(t, cfg.ResetHeight, p.p.Y())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	objs, _ := plates(9)
	for _, tc := range []struct {
		name string
		mut  func(*Config)
		objs []Object
	}{
		{"count mismatch", func(c *Config) { c.Count = 8 }, objs},
		{"zero count", func(c *Config) { c.Count = 0 }, nil},
		{"zero row width", func(c *Config) { c.RowWidth = 0 }, objs},
		{"too few shelves", func(c *Config) { c.ShelfHeights = []float64{0, 4} }, objs},
		{"nil object", func(c *Config) {}, append(append([]Object{}, objs[:8]...), nil)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			_, err := New(cfg, tc.objs)
			require.Error(t, err)
			assert.Equal(t, ErrConfig, errors.Cause(err))
		})
	}
}

func TestSnapshot(t *testing.T) {
	s, mock, ps := newTestSequencer(t, DefaultConfig(), Hooks{})
	st := s.Snapshot()
	assert.Equal(t, Idle, st.State)
	assert.Zero(t, st.PhaseElapsed)

	s.Start()
	s.Tick()
	mock.Add(100 * time.Millisecond)
	st = s.Snapshot()
	assert.Equal(t, Dropping, st.State)
	assert.Equal(t, 100*time.Millisecond, st.PhaseElapsed)
	assert.True(t, st.Running)
	require.Len(t, st.Positions, len(ps))
	assert.Equal(t, ps[3].p, st.Positions[3])
}
