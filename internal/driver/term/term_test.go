package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-kitchenline/internal/render"
)

func newSim(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	s.SetSize(w, h)
	return s
}

func TestSizeIsTwoPixelsPerRow(t *testing.T) {
	d := New(newSim(t, 10, 4))
	w, h := d.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 8, h)
}

func TestWritePacksHalfBlocks(t *testing.T) {
	s := newSim(t, 2, 1)
	d := New(s)

	f := render.NewFrame(2, 2)
	f.Set(0, 0, render.Color{R: 1})
	f.Set(0, 1, render.Color{B: 1})
	f.Set(1, 0, render.Color{G: 1})
	require.NoError(t, d.Write(f))

	cells, w, _ := s.GetContents()
	require.Equal(t, 2, w)

	assert.Equal(t, []rune{halfBlock}, cells[0].Runes)
	fg, bg, _ := cells[0].Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0, 0, 255), bg)

	fg, bg, _ = cells[1].Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 255, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0), bg)
}

func TestWriteClipsToScreen(t *testing.T) {
	s := newSim(t, 1, 1)
	d := New(s)
	require.NoError(t, d.Write(render.NewFrame(5, 5)))
	cells, w, h := s.GetContents()
	assert.Equal(t, 1, w*h)
	assert.Len(t, cells, 1)
}
