package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"
)

const sampleRate = beep.SampleRate(48000)

// Cue plays the shelving sound.
type Cue interface {
	Clink()
	Close()
}

// Nop is the silent cue used when no audio device is available.
type Nop struct{}

func (Nop) Clink() {}
func (Nop) Close() {}

// Speaker mixes clinks into the default output device.
type Speaker struct {
	mu    sync.Mutex
	mixer *beep.Mixer
	freq  float64
	dur   time.Duration
	open  bool
}

// Open starts the speaker. Failure is not fatal: the error is logged and
// a Nop cue returned.
func Open(freq float64, dur time.Duration, log zerolog.Logger) Cue {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		log.Warn().Err(err).Msg("audio unavailable, cues muted")
		return Nop{}
	}
	s := &Speaker{mixer: &beep.Mixer{}, freq: freq, dur: dur, open: true}
	speaker.Play(s.mixer)
	return s
}

func (s *Speaker) Clink() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	speaker.Lock()
	s.mixer.Add(NewClink(sampleRate, s.freq, s.dur))
	speaker.Unlock()
}

func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	s.open = false
}

// NewClink is a struck-porcelain tone: a sine with one inharmonic
// partial under an exponential decay, dur long.
func NewClink(sr beep.SampleRate, freq float64, dur time.Duration) beep.Streamer {
	return beep.Take(sr.N(dur), &clink{sr: sr, freq: freq, tau: dur.Seconds() / 5})
}

type clink struct {
	sr   beep.SampleRate
	freq float64
	tau  float64
	pos  int
}

func (g *clink) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		v := 0.7*math.Sin(2*math.Pi*g.freq*t) + 0.3*math.Sin(2*math.Pi*g.freq*2.76*t)
		if g.tau > 0 {
			v *= math.Exp(-t / g.tau)
		}
		v *= 0.4
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *clink) Err() error { return nil }
