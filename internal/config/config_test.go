package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-kitchenline/internal/sequence"
)

func TestDefaultMatchesSequencerDefaults(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, sequence.DefaultConfig(), c.Sequence.Build())
	assert.Equal(t, time.Second/60, c.FrameInterval())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
sequence:
  stagger_ms: 150
  sequential_drops: true
render:
  fps: 30
  drivers: [term, led]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150, c.Sequence.StaggerMs)
	assert.True(t, c.Sequence.SequentialDrops)
	assert.Equal(t, 9, c.Sequence.Count, "unset keys keep their defaults")
	assert.Equal(t, 30, c.Render.FPS)
	assert.Equal(t, []string{"term", "led"}, c.Render.Drivers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		"shelves": "sequence:\n  shelf_heights: [0]\n",
		"fps":     "render:\n  fps: 0\n",
		"ease":    "sequence:\n  ease: bouncy\n",
		"count":   "sequence:\n  count: -1\n",
		"bg":      "render:\n  background: teal\n",
		"texture": "scene:\n  texture_size: 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, ErrInvalid, errors.Cause(err))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.Camera.Height = 12
	require.NoError(t, Save(path, c))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestShippedConfigIsDefault(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
