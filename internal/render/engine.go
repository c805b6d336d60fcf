package render

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-kitchenline/internal/camera"
	"github.com/coreman2200/funtimes-kitchenline/internal/scene"
)

var ErrSize = errors.New("invalid frame size")

// Engine rasterizes the scene through the camera, applies post, then
// writes the frame to every driver.
type Engine struct {
	Root       *scene.Node
	Lights     []scene.Light
	Cam        *camera.Camera
	Background Color
	Drivers    []Driver

	frame *Frame
	depth []float64

	post PostPipeline
	log  zerolog.Logger

	// metrics (last durations in ms)
	Last struct {
		RasterMS  float64
		PostMS    float64
		TotalMS   float64
		Triangles int
	}
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	ToneMap func([]Color)
}

// NewEngine allocates a w x h target with the filmic tone map wired.
func NewEngine(w, h int, root *scene.Node, lights []scene.Light, cam *camera.Camera, log zerolog.Logger) (*Engine, error) {
	if root == nil || cam == nil {
		return nil, errors.New("engine needs a scene and a camera")
	}
	e := &Engine{
		Root:   root,
		Lights: lights,
		Cam:    cam,
		log:    log,
		post:   PostPipeline{ToneMap: Tone{Gamma: 2.2}.Apply},
	}
	if err := e.Resize(w, h); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) AddDriver(d Driver) {
	if d != nil {
		e.Drivers = append(e.Drivers, d)
	}
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// Resize reallocates the target and matches the camera aspect.
func (e *Engine) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.Wrapf(ErrSize, "%dx%d", w, h)
	}
	if e.frame != nil && e.frame.W == w && e.frame.H == h {
		return nil
	}
	e.frame = NewFrame(w, h)
	e.depth = make([]float64, w*h)
	e.Cam.Aspect = float64(w) / float64(h)
	e.log.Debug().Int("w", w).Int("h", h).Msg("render target resized")
	return nil
}

// Frame is the last rendered frame. It is overwritten by the next render.
func (e *Engine) Frame() *Frame { return e.frame }

// RenderOnce draws one frame and hands it to the drivers. The first
// driver error aborts the write loop and is returned.
func (e *Engine) RenderOnce() error {
	start := time.Now()

	e.frame.Fill(e.Background)
	for i := range e.depth {
		e.depth[i] = 1
	}
	e.Last.Triangles = e.rasterize()
	e.Last.RasterMS = ms(time.Since(start))

	postStart := time.Now()
	if e.post.ToneMap != nil {
		e.post.ToneMap(e.frame.Pix)
	}
	e.Last.PostMS = ms(time.Since(postStart))

	for _, d := range e.Drivers {
		if err := d.Write(e.frame); err != nil {
			return err
		}
	}
	e.Last.TotalMS = ms(time.Since(start))
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
