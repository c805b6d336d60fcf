package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-kitchenline/internal/app"
	"github.com/coreman2200/funtimes-kitchenline/internal/config"
	"github.com/coreman2200/funtimes-kitchenline/internal/driver/ledpanel"
)

func main() {
	// ---- Flags (override config.yaml when set) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		addr       = flag.String("addr", "", "HTTP listen address (default from config)")
		fps        = flag.Int("fps", 0, "frames per second")
		width      = flag.Int("w", 0, "render width in pixels")
		height     = flag.Int("h", 0, "render height in pixels")
		drivers    = flag.String("drivers", "", "comma separated drivers: ws,term,led,fake")
		seed       = flag.Int64("seed", 0, "jitter seed (0 = clock)")
		sound      = flag.Bool("audio", false, "play a clink when plates are shelved")
		ledTest    = flag.String("led-test", "", "run an LED wiring pattern and exit: index_sweep | rgb_channels | row_sweep")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}

	// ---- Flag overrides ----
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *fps > 0 {
		cfg.Render.FPS = *fps
	}
	if *width > 0 {
		cfg.Render.Width = *width
	}
	if *height > 0 {
		cfg.Render.Height = *height
	}
	if *drivers != "" {
		cfg.Render.Drivers = strings.Split(*drivers, ",")
	}
	if *seed != 0 {
		cfg.Sequence.Seed = *seed
	}
	if *sound {
		cfg.Audio.Enabled = true
	}

	if *ledTest != "" {
		if err := runLEDTest(cfg, ledpanel.Pattern(*ledTest)); err != nil {
			log.Fatal().Err(err).Str("pattern", *ledTest).Msg("led test failed")
		}
		return
	}

	core, err := app.InitCore(cfg, app.Options{Log: log.Logger})
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}
	defer core.Close()

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	core.Preview.Routes(mux)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Strs("drivers", cfg.Render.Drivers).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Run until signalled ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := core.Run(ctx); err != nil {
		log.Error().Err(err).Msg("render loop failed")
	}
	log.Info().Uint64("frames", core.Frames).Msg("shutting down")

	shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdown)
}

// runLEDTest drives a wiring pattern on the panel at 10 steps per second.
func runLEDTest(cfg *config.Config, p ledpanel.Pattern) error {
	switch p {
	case ledpanel.IndexSweep, ledpanel.RGBChannels, ledpanel.RowSweep:
	default:
		return errors.Errorf("unknown pattern %q", p)
	}
	panel, err := ledpanel.Open(app.LEDConfig(cfg.LED), log.Logger)
	if err != nil {
		return err
	}
	defer panel.Close()

	r := ledpanel.NewRunner(p)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	steps := 0
	for range tick.C {
		more, err := panel.Test(r)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		steps++
	}
	log.Info().Str("pattern", string(p)).Int("steps", steps).Msg("led test done")
	return nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
