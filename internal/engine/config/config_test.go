package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/mesh"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ViewDistance != 15 || cfg.WorldSize != 1000 || cfg.MaxConcurrentTasks != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`seed: 42
view_distance: 4
generator: flat
noise: opensimplex
tick_interval: 20ms
storage: bolt
atlas:
  brick: [0.25, 0.25, 0.25, 0.25]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 42 || cfg.ViewDistance != 4 || cfg.Generator != "flat" || cfg.Noise != "opensimplex" {
		t.Fatalf("decoded %+v", cfg)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Fatalf("tick_interval = %v, want 20ms", cfg.TickInterval)
	}
	if cfg.Storage != "bolt" {
		t.Fatalf("storage = %q", cfg.Storage)
	}
	// Unset keys keep their defaults.
	if cfg.MeshConcurrency != 5 || cfg.LogLevel != "info" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	atlas, err := cfg.BuildAtlas()
	if err != nil {
		t.Fatalf("BuildAtlas: %v", err)
	}
	if got := atlas.Rect(block.Brick); got != (mesh.Rect{U: 0.25, V: 0.25, Width: 0.25, Height: 0.25}) {
		t.Fatalf("brick rect = %+v", got)
	}
	if got := atlas.Rect(block.Grass); got.U != 0.5 {
		t.Fatalf("default grass rect lost: %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v, want ErrNotExist", err)
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	if _, err := Parse([]byte("view_distance: [oops")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMergeRespectsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.ViewDistance = 3

	fromFile := DefaultConfig()
	fromFile.Seed = 99
	fromFile.ViewDistance = 10
	fromFile.Generator = "flat"
	fromFile.Atlas = map[string][4]float32{"sand": {0, 0, 1, 1}}

	Merge(cfg, fromFile, map[string]bool{"seed": true})

	if cfg.Seed != 7 {
		t.Errorf("explicit seed overwritten: %d", cfg.Seed)
	}
	if cfg.ViewDistance != 10 {
		t.Errorf("view distance = %d, want file value 10", cfg.ViewDistance)
	}
	if cfg.Generator != "flat" {
		t.Errorf("generator = %q, want flat", cfg.Generator)
	}
	if len(cfg.Atlas) != 1 {
		t.Errorf("atlas not merged: %v", cfg.Atlas)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"view distance", func(c *Config) { c.ViewDistance = 0 }},
		{"world size", func(c *Config) { c.WorldSize = 0 }},
		{"tasks", func(c *Config) { c.MaxConcurrentTasks = 0 }},
		{"mesh tasks", func(c *Config) { c.MeshConcurrency = -1 }},
		{"noise", func(c *Config) { c.Noise = "pink" }},
		{"generator", func(c *Config) { c.Generator = "caves" }},
		{"storage", func(c *Config) { c.Storage = "tape" }},
		{"tick", func(c *Config) { c.TickInterval = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"atlas", func(c *Config) { c.Atlas = map[string][4]float32{"obsidian": {}} }},
		{"save dir", func(c *Config) { c.SaveDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	if err != nil || l != slog.LevelDebug {
		t.Fatalf("ParseLevel(debug) = %v, %v", l, err)
	}
}
