package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/funtimes-kitchenline/internal/config"
	"github.com/coreman2200/funtimes-kitchenline/internal/sequence"
)

// point is a bare object with no scene behind it.
type point struct{ p mgl64.Vec3 }

func (o *point) Position() mgl64.Vec3     { return o.p }
func (o *point) SetPosition(p mgl64.Vec3) { o.p = p }

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml")
		fps        = flag.Int("fps", 60, "simulation frames per second")
		cycles     = flag.Int("cycles", 1, "cycles to run before stopping")
		realtime   = flag.Bool("realtime", false, "tick on the wall clock instead of simulated time")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		cfg = c
	}
	sc := cfg.Sequence.Build()

	var clk clock.Clock = clock.New()
	mock := clock.NewMock()
	if !*realtime {
		clk = mock
	}
	start := clk.Now()
	elapsed := func() float64 { return clk.Since(start).Seconds() }

	objs := make([]sequence.Object, sc.Count)
	for i := range objs {
		objs[i] = &point{}
	}

	var seq *sequence.Sequencer
	h := sequence.Hooks{
		PhaseChanged: func(from, to sequence.State) {
			fmt.Printf("[%7.3fs] %s -> %s\n", elapsed(), from, to)
		},
		Landed: func(i int) {
			fmt.Printf("[%7.3fs]   landed %d\n", elapsed(), i)
		},
		CycleDone: func(n int) {
			fmt.Printf("[%7.3fs] cycle %d done\n", elapsed(), n)
			if n >= *cycles {
				seq.Stop()
			}
		},
	}
	seed := cfg.Sequence.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	seq, err := sequence.New(sc, objs,
		sequence.WithClock(clk),
		sequence.WithRand(rand.New(rand.NewSource(seed))),
		sequence.WithHooks(h),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sequencer:", err)
		os.Exit(1)
	}
	seq.Start()

	dt := time.Second / time.Duration(max(1, *fps))
	var tick *time.Ticker
	if *realtime {
		tick = time.NewTicker(dt)
		defer tick.Stop()
	}
	for seq.State() != sequence.Idle {
		if tick != nil {
			<-tick.C
		} else {
			mock.Add(dt)
		}
		seq.Tick()
	}

	fmt.Printf("Done at t=%.3fs\n", elapsed())
	for i, o := range objs {
		fmt.Printf("  plate %d at (%.2f, %.2f, %.2f)\n", i, o.Position().X(), o.Position().Y(), o.Position().Z())
	}
}
