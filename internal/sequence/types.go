package sequence

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/coreman2200/funtimes-kitchenline/internal/tween"
)

// ErrConfig is the cause of every construction-time failure.
var ErrConfig = errors.New("invalid sequence config")

// State enumerates sequencer states.
type State string

const (
	Idle      State = "idle"
	Resetting State = "resetting"
	Dropping  State = "dropping"
	Conveying State = "conveying"
	Shelving  State = "shelving"
	Waiting   State = "waiting"
)

// Object is a movable entity owned by the scene.
type Object interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
}

// Rand is the jitter source; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Config holds the cycle geometry and timings.
type Config struct {
	Count int

	// reset: square of side JitterSide centered on the origin, at ResetHeight
	JitterSide  float64
	ResetHeight float64

	// drop
	RestY           float64
	DropDuration    time.Duration
	Stagger         time.Duration
	SequentialDrops bool // next drop waits for the previous landing plus Stagger

	// convey
	ConveyStartX   float64
	ConveyEndX     float64
	ConveyDuration time.Duration

	// shelve
	ShelveDuration time.Duration
	RowWidth       int
	Spacing        float64
	ShelfX         float64
	ShelfZ         float64
	ShelfHeights   []float64

	IdleDelay time.Duration
	Ease      tween.Ease
}

// DefaultConfig mirrors the kitchen vignette: nine plates, three shelves.
func DefaultConfig() Config {
	return Config{
		Count:          9,
		JitterSide:     1.5,
		ResetHeight:    12.2,
		RestY:          0.3,
		DropDuration:   600 * time.Millisecond,
		Stagger:        200 * time.Millisecond,
		ConveyStartX:   5,
		ConveyEndX:     -1,
		ConveyDuration: 1500 * time.Millisecond,
		ShelveDuration: 1000 * time.Millisecond,
		RowWidth:       3,
		Spacing:        2.8,
		ShelfX:         -8,
		ShelfZ:         0,
		ShelfHeights:   []float64{-4, 0, 4},
		IdleDelay:      2000 * time.Millisecond,
		Ease:           tween.Linear,
	}
}

// Validate checks the config against an object count.
func (c Config) Validate() error {
	if c.Count <= 0 {
		return errors.Wrapf(ErrConfig, "object count must be positive, got %d", c.Count)
	}
	if c.RowWidth <= 0 {
		return errors.Wrapf(ErrConfig, "row width must be positive, got %d", c.RowWidth)
	}
	rows := (c.Count + c.RowWidth - 1) / c.RowWidth
	if rows > len(c.ShelfHeights) {
		return errors.Wrapf(ErrConfig, "%d objects need %d shelf rows, only %d configured",
			c.Count, rows, len(c.ShelfHeights))
	}
	if c.JitterSide < 0 {
		return errors.Wrapf(ErrConfig, "jitter side must not be negative, got %v", c.JitterSide)
	}
	return nil
}

// Slot is the shelf placement derived from an object index.
type Slot struct {
	Row    int
	Column int
	Target mgl64.Vec3
}

// Hooks are optional callbacks fired after the sequencer releases its lock.
type Hooks struct {
	PhaseChanged func(from, to State)
	Landed       func(index int)
	Shelved      func(index int)
	CycleDone    func(cycle int)
}

// Status is a point-in-time copy of the sequencer.
type Status struct {
	State        State         `json:"state"`
	Running      bool          `json:"running"`
	Cycle        int           `json:"cycle"`
	PhaseElapsed time.Duration `json:"phase_elapsed_ns"`
	Positions    []mgl64.Vec3  `json:"positions"`
}
