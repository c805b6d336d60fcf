package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-kitchenline/internal/app"
	"github.com/coreman2200/funtimes-kitchenline/internal/config"
	"github.com/coreman2200/funtimes-kitchenline/internal/driver/term"
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

const (
	orbitStep = 0.1
	zoomStep  = 1.1
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		fps        = flag.Int("fps", 30, "frames per second")
		logPath    = flag.String("log", "", "write logs to this file (the terminal is busy drawing)")
		seed       = flag.Int64("seed", 0, "jitter seed (0 = clock)")
	)
	flag.Parse()

	logger := zerolog.Nop()
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		logger = zerolog.New(f).With().Timestamp().Logger()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	cfg.Render.FPS = *fps
	cfg.Render.Drivers = nil
	if *seed != 0 {
		cfg.Sequence.Seed = *seed
	}

	screen, err := term.Open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// the core closes the screen with its drivers
	core, err := app.InitCore(cfg, app.Options{Log: logger, Drivers: []render.Driver{screen}})
	if err != nil {
		screen.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer core.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleKeys(screen.Screen(), core, cancel)

	if err := core.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("render loop failed")
	}
}

// handleKeys: arrows orbit, +/- zoom, q or Esc quits.
func handleKeys(s tcell.Screen, core *app.Core, quit context.CancelFunc) {
	for {
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				quit()
				return
			case tcell.KeyLeft:
				core.Rotate(-orbitStep, 0)
			case tcell.KeyRight:
				core.Rotate(orbitStep, 0)
			case tcell.KeyUp:
				core.Rotate(0, -orbitStep)
			case tcell.KeyDown:
				core.Rotate(0, orbitStep)
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q':
					quit()
					return
				case '+', '=':
					core.Zoom(1 / zoomStep)
				case '-':
					core.Zoom(zoomStep)
				}
			}
		}
	}
}
