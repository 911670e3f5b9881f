package rusteroids

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ericrwinkler/rusteroids-sub000/render/pool"
)

// Config is the engine configuration, loaded from a TOML file.
type Config struct {
	Window  WindowConfig   `toml:"window"`
	Render  RenderConfig   `toml:"render"`
	Logging LoggingConfig  `toml:"logging"`
	Pools   []PoolSettings `toml:"pool"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type RenderConfig struct {
	// FramesInFlight is the resource ring depth; the CPU runs at most this
	// many frames ahead of the GPU. Clamped to a minimum of 2.
	FramesInFlight int `toml:"frames_in_flight"`
}

type LoggingConfig struct {
	Debug bool `toml:"debug"`
}

// PoolSettings sizes one mesh type's object pool.
type PoolSettings struct {
	Mesh             string `toml:"mesh"` // mesh registration name
	InitialCapacity  int    `toml:"initial_capacity"`
	MaxObjects       int    `toml:"max_objects"`
	Growable         bool   `toml:"growable"`
	InstanceCapacity int    `toml:"instance_capacity"`
}

// PoolConfig converts the settings to the pool package's config.
func (p PoolSettings) PoolConfig() pool.Config {
	cfg := pool.DefaultConfig()
	if p.InitialCapacity > 0 {
		cfg.InitialCapacity = p.InitialCapacity
	}
	cfg.MaxObjects = p.MaxObjects
	cfg.Growable = p.Growable
	cfg.InstanceCapacity = p.InstanceCapacity
	return cfg
}

// DefaultConfig matches running with no config file at all.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{Width: 1280, Height: 720, Title: "Rusteroids"},
		Render: RenderConfig{FramesInFlight: 3},
	}
}

// LoadConfig reads a TOML config file. Missing keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Render.FramesInFlight < 2 {
		cfg.Render.FramesInFlight = 2
	}
	return cfg, nil
}
