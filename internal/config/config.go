package config

import (
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-kitchenline/internal/sequence"
	"github.com/coreman2200/funtimes-kitchenline/internal/tween"
)

var ErrInvalid = errors.New("invalid config")

type Sequence struct {
	Count           int       `yaml:"count"`
	JitterSide      float64   `yaml:"jitter_side"`
	ResetHeight     float64   `yaml:"reset_height"`
	RestY           float64   `yaml:"rest_y"`
	DropMs          int       `yaml:"drop_ms"`
	StaggerMs       int       `yaml:"stagger_ms"`
	SequentialDrops bool      `yaml:"sequential_drops"`
	ConveyStartX    float64   `yaml:"convey_start_x"`
	ConveyEndX      float64   `yaml:"convey_end_x"`
	ConveyMs        int       `yaml:"convey_ms"`
	ShelveMs        int       `yaml:"shelve_ms"`
	RowWidth        int       `yaml:"row_width"`
	Spacing         float64   `yaml:"spacing"`
	ShelfX          float64   `yaml:"shelf_x"`
	ShelfZ          float64   `yaml:"shelf_z"`
	ShelfHeights    []float64 `yaml:"shelf_heights"`
	IdleMs          int       `yaml:"idle_ms"`
	Ease            string    `yaml:"ease,omitempty"` // "linear","smooth","cubic"
	Seed            int64     `yaml:"seed,omitempty"` // 0 seeds from the clock
}

type Scene struct {
	ContainerY  float64 `yaml:"container_y"`
	TextureSize int     `yaml:"texture_size"`
}

type Camera struct {
	FitWidth  float64 `yaml:"fit_width"`
	FitHeight float64 `yaml:"fit_height"`
	Height    float64 `yaml:"height"`
	LookAtY   float64 `yaml:"look_at_y"`
	Near      float64 `yaml:"near"`
	Far       float64 `yaml:"far"`

	OrbitFrequency float64 `yaml:"orbit_frequency"`
	OrbitDamping   float64 `yaml:"orbit_damping"`
}

type Steam struct {
	Count      int     `yaml:"count"`
	LifetimeMs int     `yaml:"lifetime_ms"`
	Rise       float64 `yaml:"rise"`    // units per second
	Spread     float64 `yaml:"spread"`  // lateral speed range
	Ceiling    float64 `yaml:"ceiling"` // respawn altitude
}

type Effects struct {
	SlatStep float64 `yaml:"slat_step"`
	SlatMin  float64 `yaml:"slat_min"`
	SlatSpan float64 `yaml:"slat_span"`
	Steam    Steam   `yaml:"steam"`
}

type Render struct {
	FPS        int      `yaml:"fps"`
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	ExposureEV float64  `yaml:"exposure_ev"`
	Gamma      float64  `yaml:"gamma"`
	Background string   `yaml:"background"`
	Drivers    []string `yaml:"drivers"` // "ws" | "term" | "led" | "fake"
}

type Server struct {
	Addr string `yaml:"addr"`
}

type LED struct {
	Dev        string  `yaml:"dev"`      // spireg name, "" for the first port
	SpeedHz    int     `yaml:"speed_hz"` // SPI clock, 3 bits per LED bit
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Serpentine bool    `yaml:"serpentine"`
	ChanMA     float64 `yaml:"chan_ma"`
	BudgetMA   float64 `yaml:"budget_ma"`
	WhiteCap   float64 `yaml:"white_cap"`
}

type Audio struct {
	Enabled bool    `yaml:"enabled"`
	FreqHz  float64 `yaml:"freq_hz"`
	Ms      int     `yaml:"ms"`
}

type Config struct {
	Sequence Sequence `yaml:"sequence"`
	Scene    Scene    `yaml:"scene"`
	Camera   Camera   `yaml:"camera"`
	Effects  Effects  `yaml:"effects"`
	Render   Render   `yaml:"render"`
	Server   Server   `yaml:"server"`
	LED      LED      `yaml:"led"`
	Audio    Audio    `yaml:"audio"`
}

// Default returns the vignette as shipped.
func Default() *Config {
	return &Config{
		Sequence: Sequence{
			Count:        9,
			JitterSide:   1.5,
			ResetHeight:  12.2,
			RestY:        0.3,
			DropMs:       600,
			StaggerMs:    200,
			ConveyStartX: 5,
			ConveyEndX:   -1,
			ConveyMs:     1500,
			ShelveMs:     1000,
			RowWidth:     3,
			Spacing:      2.8,
			ShelfX:       -8,
			ShelfHeights: []float64{-4, 0, 4},
			IdleMs:       2000,
			Ease:         string(tween.Linear),
		},
		Scene: Scene{ContainerY: -5, TextureSize: 256},
		Camera: Camera{
			FitWidth:       60,
			FitHeight:      30,
			Height:         10,
			LookAtY:        -5,
			Near:           0.1,
			Far:            1000,
			OrbitFrequency: 6,
			OrbitDamping:   1,
		},
		Effects: Effects{
			SlatStep: 0.08,
			SlatMin:  -3,
			SlatSpan: 6,
			Steam: Steam{
				Count:      24,
				LifetimeMs: 1800,
				Rise:       2.5,
				Spread:     0.6,
				Ceiling:    16,
			},
		},
		Render: Render{
			FPS:        60,
			Width:      160,
			Height:     90,
			ExposureEV: 0,
			Gamma:      2.2,
			Background: "#000000",
			Drivers:    []string{"ws"},
		},
		Server: Server{Addr: ":8080"},
		LED: LED{
			Dev:        "",
			SpeedHz:    2500000,
			Width:      32,
			Height:     16,
			Serpentine: true,
			ChanMA:     20,
			BudgetMA:   3000,
			WhiteCap:   2.2,
		},
		Audio: Audio{Enabled: false, FreqHz: 1760, Ms: 60},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	if err := c.Sequence.Build().Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	switch tween.Ease(c.Sequence.Ease) {
	case "", tween.Linear, tween.Smooth, tween.Cubic:
	default:
		return errors.Wrapf(ErrInvalid, "unknown ease %q", c.Sequence.Ease)
	}
	if c.Render.FPS <= 0 {
		return errors.Wrapf(ErrInvalid, "fps must be positive, got %d", c.Render.FPS)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.Wrapf(ErrInvalid, "render size %dx%d", c.Render.Width, c.Render.Height)
	}
	if _, err := colorful.Hex(c.Render.Background); err != nil {
		return errors.Wrapf(ErrInvalid, "background %q", c.Render.Background)
	}
	if c.Scene.TextureSize <= 0 {
		return errors.Wrapf(ErrInvalid, "texture size must be positive, got %d", c.Scene.TextureSize)
	}
	if c.Effects.SlatSpan <= 0 {
		return errors.Wrapf(ErrInvalid, "slat span must be positive, got %v", c.Effects.SlatSpan)
	}
	if c.Effects.Steam.Count < 0 {
		return errors.Wrapf(ErrInvalid, "steam count %d", c.Effects.Steam.Count)
	}
	return nil
}

// FrameInterval is the render tick period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Render.FPS)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Build converts to the sequencer's config.
func (s Sequence) Build() sequence.Config {
	return sequence.Config{
		Count:           s.Count,
		JitterSide:      s.JitterSide,
		ResetHeight:     s.ResetHeight,
		RestY:           s.RestY,
		DropDuration:    ms(s.DropMs),
		Stagger:         ms(s.StaggerMs),
		SequentialDrops: s.SequentialDrops,
		ConveyStartX:    s.ConveyStartX,
		ConveyEndX:      s.ConveyEndX,
		ConveyDuration:  ms(s.ConveyMs),
		ShelveDuration:  ms(s.ShelveMs),
		RowWidth:        s.RowWidth,
		Spacing:         s.Spacing,
		ShelfX:          s.ShelfX,
		ShelfZ:          s.ShelfZ,
		ShelfHeights:    append([]float64(nil), s.ShelfHeights...),
		IdleDelay:       ms(s.IdleMs),
		Ease:            tween.Ease(s.Ease),
	}
}
