package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-kitchenline/internal/camera"
	"github.com/coreman2200/funtimes-kitchenline/internal/scene"
)

// fakeDriver captures the last frame written.
type fakeDriver struct {
	last *Frame
	err  error
}

func (d *fakeDriver) Write(f *Frame) error {
	if d.err != nil {
		return d.err
	}
	d.last = &Frame{W: f.W, H: f.H, Pix: append([]Color(nil), f.Pix...)}
	return nil
}

// fullAmbient makes every surface render exactly its linear albedo.
var fullAmbient = []scene.Light{{Kind: scene.Ambient, Color: colorful.Color{R: 1, G: 1, B: 1}, Intensity: 1}}

func newTestEngine(t *testing.T, root *scene.Node) (*Engine, *fakeDriver) {
	t.Helper()
	cam := camera.New(1)
	cam.Eye = mgl64.Vec3{0, 0, 10}
	cam.Target = mgl64.Vec3{}
	e, err := NewEngine(20, 20, root, fullAmbient, cam, zerolog.Nop())
	require.NoError(t, err)
	// Disable tone mapping for deterministic tests.
	e.SetPost(PostPipeline{})
	drv := &fakeDriver{}
	e.AddDriver(drv)
	return e, drv
}

func box(name string, hex string, z float64) *scene.Node {
	b := scene.NewBox(name, 2, 2, 2, scene.Phong(hex))
	b.Pos = mgl64.Vec3{0, 0, z}
	return b
}

func near(t *testing.T, want, got Color) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1e-3, "R")
	assert.InDelta(t, want.G, got.G, 1e-3, "G")
	assert.InDelta(t, want.B, got.B, 1e-3, "B")
}

func TestRenderEmptySceneIsBackground(t *testing.T) {
	e, drv := newTestEngine(t, scene.NewGroup("root"))
	e.Background = Color{0.1, 0.2, 0.3}
	require.NoError(t, e.RenderOnce())
	require.NotNil(t, drv.last)
	near(t, Color{0.1, 0.2, 0.3}, drv.last.Average())
	assert.Equal(t, 0, e.Last.Triangles)
}

func TestRenderBoxCoversCenterOnly(t *testing.T) {
	e, drv := newTestEngine(t, scene.NewGroup("root").Add(box("red", "#ff0000", 0)))
	require.NoError(t, e.RenderOnce())
	near(t, Color{1, 0, 0}, drv.last.At(10, 10))
	near(t, Color{}, drv.last.At(0, 0))
	assert.Greater(t, e.Last.Triangles, 0)
}

func TestRenderDepthOrderIndependent(t *testing.T) {
	// far box added first must still lose to the near one
	root := scene.NewGroup("root").Add(box("green", "#00ff00", -3), box("red", "#ff0000", 0))
	e, drv := newTestEngine(t, root)
	require.NoError(t, e.RenderOnce())
	near(t, Color{1, 0, 0}, drv.last.At(10, 10))
}

func TestRenderTranslucentBlends(t *testing.T) {
	glass := box("glass", "#0000ff", 3)
	glass.Material = glass.Material.Translucent(0.5)
	root := scene.NewGroup("root").Add(glass, box("red", "#ff0000", 0))
	e, drv := newTestEngine(t, root)
	require.NoError(t, e.RenderOnce())
	// two blue faces stack over red: 0.5 then 0.5 again
	near(t, Color{0.25, 0, 0.75}, drv.last.At(10, 10))
}

func TestRenderTranslucentSharedEdgesBlendOnce(t *testing.T) {
	glass := box("glass", "#ffffff", 0)
	glass.Material = glass.Material.Translucent(0.5)
	e, drv := newTestEngine(t, scene.NewGroup("root").Add(glass))
	require.NoError(t, e.RenderOnce())
	// every covered sample sees one entry face and one exit face; pixel
	// centers on a quad diagonal must not pick up a third layer
	covered := 0
	for y := 0; y < drv.last.H; y++ {
		for x := 0; x < drv.last.W; x++ {
			r := float64(drv.last.At(x, y).R)
			if r < 1e-6 {
				continue
			}
			covered++
			assert.InDelta(t, 0.75, r, 1e-3, "pixel %d,%d", x, y)
		}
	}
	assert.Positive(t, covered)
	near(t, Color{0.75, 0.75, 0.75}, drv.last.At(10, 10))
}

func TestRenderHiddenAndInvisible(t *testing.T) {
	a := box("a", "#ff0000", 0)
	a.Hidden = true
	b := box("b", "#00ff00", 0)
	b.Material.Opacity = 0
	e, drv := newTestEngine(t, scene.NewGroup("root").Add(a, b))
	require.NoError(t, e.RenderOnce())
	near(t, Color{}, drv.last.At(10, 10))
}

func TestRenderDirectionalLight(t *testing.T) {
	e, drv := newTestEngine(t, scene.NewGroup("root").Add(box("white", "#ffffff", 0)))
	e.Lights = []scene.Light{{Kind: scene.Directional, Color: colorful.Color{R: 1, G: 1, B: 1}, Intensity: 0.5, Direction: mgl64.Vec3{0, 0, 1}}}
	require.NoError(t, e.RenderOnce())
	c := drv.last.At(10, 10)
	// head-on: diffuse 0.5 plus a full-strength highlight
	assert.InDelta(t, 0.5+0.5*specular, c.R, 5e-3)
}

func TestResize(t *testing.T) {
	e, drv := newTestEngine(t, scene.NewGroup("root"))
	require.NoError(t, e.Resize(40, 10))
	assert.Equal(t, 4.0, e.Cam.Aspect)
	require.NoError(t, e.RenderOnce())
	assert.Equal(t, 40, drv.last.W)
	assert.Len(t, drv.last.Pix, 400)

	err := e.Resize(0, 10)
	require.Error(t, err)
	assert.Equal(t, ErrSize, errors.Cause(err))
}

func TestDriverErrorIsReturned(t *testing.T) {
	e, drv := newTestEngine(t, scene.NewGroup("root"))
	drv.err = errors.New("spi gone")
	assert.EqualError(t, e.RenderOnce(), "spi gone")
}

func TestToneMap(t *testing.T) {
	buf := []Color{{0, 0, 0}, {0.2, 0.2, 0.2}, {1, 1, 1}, {50, 50, 50}}
	Tone{Gamma: 2.2}.Apply(buf)
	assert.Equal(t, float32(0), buf[0].R)
	assert.Less(t, buf[1].R, buf[2].R)
	assert.LessOrEqual(t, buf[3].R, float32(1))

	brighter := []Color{{0.2, 0.2, 0.2}}
	Tone{ExposureEV: 1, Gamma: 2.2}.Apply(brighter)
	assert.Greater(t, brighter[0].R, buf[1].R)
}

func TestRGB8(t *testing.T) {
	f := NewFrame(2, 1)
	f.Set(0, 0, Color{1, 0.5, -1})
	f.Set(1, 0, Color{2, 0, 0})
	assert.Equal(t, []byte{255, 128, 0, 255, 0, 0}, f.RGB8())
}
