package effects

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	p       mgl64.Vec3
	opacity float64
}

func (m *point) Position() mgl64.Vec3     { return m.p }
func (m *point) SetPosition(p mgl64.Vec3) { m.p = p }
func (m *point) SetOpacity(o float64)     { m.opacity = o }

// half always returns 0.5: no lateral drift, rise at the nominal rate, age
// staggered to half a lifetime.
type half struct{}

func (half) Float64() float64 { return 0.5 }

func TestConveyorWraps(t *testing.T) {
	s := &point{p: mgl64.Vec3{-2.95, 0.2, 0}}
	c, err := NewConveyor([]Mover{s}, 0.08, -3, 6)
	require.NoError(t, err)

	c.Update()
	assert.InDelta(t, 2.97, s.p.X(), 1e-9)
	assert.Equal(t, 0.2, s.p.Y(), "only x moves")
}

func TestConveyorStaysInBand(t *testing.T) {
	slats := make([]Mover, 5)
	for i := range slats {
		slats[i] = &point{p: mgl64.Vec3{float64(i)/5*8 - 4, 0.2, 0}}
	}
	c, err := NewConveyor(slats, 0.08, -3, 6)
	require.NoError(t, err)
	for f := 0; f < 500; f++ {
		c.Update()
	}
	for _, s := range slats {
		x := s.Position().X()
		assert.True(t, x >= -3 && x < 3, "x=%v", x)
	}
}

func TestConveyorRejectsSpan(t *testing.T) {
	_, err := NewConveyor(nil, 0.08, -3, 0)
	require.Error(t, err)
	assert.Equal(t, ErrConfig, errors.Cause(err))
}

func newSteam(t *testing.T, puffs ...*point) *Steam {
	t.Helper()
	list := make([]Puff, len(puffs))
	for i, p := range puffs {
		list[i] = p
	}
	s, err := NewSteam(SteamConfig{
		Origin:   mgl64.Vec3{4, 7, 0},
		Lifetime: 2 * time.Second,
		Rise:     2,
		Spread:   1,
		Ceiling:  100,
	}, list, half{}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSteamIntegratesVelocity(t *testing.T) {
	p := &point{}
	s := newSteam(t, p)
	assert.Equal(t, mgl64.Vec3{4, 7, 0}, p.p)
	assert.InDelta(t, 0.5, p.opacity, 1e-9, "starts half way through its life")

	s.Update(250 * time.Millisecond)
	assert.True(t, p.p.ApproxEqual(mgl64.Vec3{4, 7.5, 0}), "got %v", p.p)
	assert.InDelta(t, 0.375, p.opacity, 1e-9)
}

func TestSteamRespawnsAfterLifetime(t *testing.T) {
	p := &point{}
	s := newSteam(t, p)
	s.Update(time.Second) // age reaches the 2s lifetime
	assert.Equal(t, mgl64.Vec3{4, 7, 0}, p.p)
	assert.InDelta(t, 1, p.opacity, 1e-9)
	assert.Equal(t, 1, s.Respawns)
}

func TestSteamRespawnsAtCeiling(t *testing.T) {
	p := &point{}
	s := newSteam(t, p)
	s.cfg.Ceiling = 7.2
	s.Update(200 * time.Millisecond)
	assert.Equal(t, mgl64.Vec3{4, 7, 0}, p.p)
	assert.Equal(t, 1, s.Respawns)
}

func TestSteamLogsEachThousandRespawnsOnce(t *testing.T) {
	var buf bytes.Buffer
	p := &point{}
	s, err := NewSteam(SteamConfig{
		Origin:   mgl64.Vec3{4, 7, 0},
		Lifetime: 2 * time.Second,
		Rise:     2,
		Spread:   1,
		Ceiling:  100,
	}, []Puff{p}, half{}, zerolog.New(&buf).Level(zerolog.DebugLevel))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		s.Update(2 * time.Second) // one full lifetime per frame
	}
	require.Equal(t, 1000, s.Respawns)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	// frames without a respawn stay quiet
	for i := 0; i < 3; i++ {
		s.Update(0)
	}
	assert.Equal(t, 1000, s.Respawns)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `"respawns":1000`)
}

func TestSteamRejectsLifetime(t *testing.T) {
	_, err := NewSteam(SteamConfig{}, nil, half{}, zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, ErrConfig, errors.Cause(err))
}
