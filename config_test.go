package rusteroids

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 1920
height = 1080
title = "Rusteroids Dev"

[render]
frames_in_flight = 2

[logging]
debug = true

[[pool]]
mesh = "asteroid"
initial_capacity = 128
max_objects = 2048
growable = true

[[pool]]
mesh = "missile"
initial_capacity = 32
growable = false
instance_capacity = 32
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, "Rusteroids Dev", cfg.Window.Title)
	assert.Equal(t, 2, cfg.Render.FramesInFlight)
	assert.True(t, cfg.Logging.Debug)

	require.Len(t, cfg.Pools, 2)
	assert.Equal(t, "asteroid", cfg.Pools[0].Mesh)

	pc := cfg.Pools[0].PoolConfig()
	assert.Equal(t, 128, pc.InitialCapacity)
	assert.Equal(t, 2048, pc.MaxObjects)
	assert.True(t, pc.Growable)

	pc = cfg.Pools[1].PoolConfig()
	assert.Equal(t, 32, pc.InitialCapacity)
	assert.False(t, pc.Growable)
	assert.Equal(t, 32, pc.InstanceCapacity)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	// An empty file behaves like no file at all, except the ring depth
	// clamp still applies.
	assert.Equal(t, DefaultConfig().Window, cfg.Window)
	assert.Equal(t, 3, cfg.Render.FramesInFlight)
	assert.Empty(t, cfg.Pools)
}

func TestLoadConfigClampsFramesInFlight(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "[render]\nframes_in_flight = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Render.FramesInFlight)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "[window\nnot toml"))
	assert.Error(t, err)
}
