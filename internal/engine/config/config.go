package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/gen"
	"github.com/OCharnyshevich/voxelworld/pkg/world/mesh"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the engine configuration.
type Config struct {
	Seed         int64 `yaml:"seed" json:"seed"`
	ViewDistance int   `yaml:"view_distance" json:"view_distance"` // chunks
	WorldSize    int   `yaml:"world_size" json:"world_size"`       // chunks per side, negative = unbounded

	MaxConcurrentTasks int `yaml:"max_concurrent_tasks" json:"max_concurrent_tasks"`
	MeshConcurrency    int `yaml:"mesh_concurrency" json:"mesh_concurrency"`

	AnchorCount         int     `yaml:"anchor_count" json:"anchor_count"`
	AnchorArea          float64 `yaml:"anchor_area" json:"anchor_area"` // blocks per side
	Noise               string  `yaml:"noise" json:"noise"`             // "perlin", "simplex" or "opensimplex"
	Generator           string  `yaml:"generator" json:"generator"`     // "biome" or "flat"
	SmoothingIterations int     `yaml:"smoothing_iterations" json:"smoothing_iterations"`
	MaxSlope            int     `yaml:"max_slope" json:"max_slope"`

	SaveDir       string `yaml:"save_dir" json:"save_dir"`
	Storage       string `yaml:"storage" json:"storage"` // "region" or "bolt"
	Index         bool   `yaml:"index" json:"index"`
	SaveGenerated bool   `yaml:"save_generated" json:"save_generated"`

	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
	LogLevel     string        `yaml:"log_level" json:"log_level"`

	// Atlas overrides texture tiles by block name: [u, v, width, height].
	Atlas map[string][4]float32 `yaml:"atlas,omitempty" json:"atlas,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	opts := gen.DefaultOptions()
	return &Config{
		Seed:                1,
		ViewDistance:        15,
		WorldSize:           1000,
		MaxConcurrentTasks:  5,
		MeshConcurrency:     5,
		AnchorCount:         gen.DefaultAnchorCount,
		AnchorArea:          16000,
		Noise:               gen.NoisePerlin,
		Generator:           gen.TypeBiome,
		SmoothingIterations: opts.SmoothingIterations,
		MaxSlope:            opts.MaxSlope,
		SaveDir:             "world",
		Storage:             "region",
		Index:               false,
		SaveGenerated:       false,
		TickInterval:        50 * time.Millisecond,
		LogLevel:            "info",
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["view-distance"] {
		cfg.ViewDistance = fromFile.ViewDistance
	}
	if !explicitFlags["world-size"] {
		cfg.WorldSize = fromFile.WorldSize
	}
	if !explicitFlags["max-tasks"] {
		cfg.MaxConcurrentTasks = fromFile.MaxConcurrentTasks
	}
	if !explicitFlags["mesh-tasks"] {
		cfg.MeshConcurrency = fromFile.MeshConcurrency
	}
	if !explicitFlags["anchors"] {
		cfg.AnchorCount = fromFile.AnchorCount
	}
	if !explicitFlags["anchor-area"] {
		cfg.AnchorArea = fromFile.AnchorArea
	}
	if !explicitFlags["noise"] {
		cfg.Noise = fromFile.Noise
	}
	if !explicitFlags["generator"] {
		cfg.Generator = fromFile.Generator
	}
	if !explicitFlags["smoothing"] {
		cfg.SmoothingIterations = fromFile.SmoothingIterations
	}
	if !explicitFlags["max-slope"] {
		cfg.MaxSlope = fromFile.MaxSlope
	}
	if !explicitFlags["dir"] {
		cfg.SaveDir = fromFile.SaveDir
	}
	if !explicitFlags["storage"] {
		cfg.Storage = fromFile.Storage
	}
	if !explicitFlags["index"] {
		cfg.Index = fromFile.Index
	}
	if !explicitFlags["save-generated"] {
		cfg.SaveGenerated = fromFile.SaveGenerated
	}
	if !explicitFlags["tick"] {
		cfg.TickInterval = fromFile.TickInterval
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if len(fromFile.Atlas) > 0 {
		cfg.Atlas = fromFile.Atlas
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.ViewDistance >= 1 && c.ViewDistance <= 64, "view_distance %d outside [1, 64]", c.ViewDistance)
	check(c.WorldSize != 0, "world_size must be non-zero")
	check(c.MaxConcurrentTasks >= 1, "max_concurrent_tasks must be at least 1")
	check(c.MeshConcurrency >= 1, "mesh_concurrency must be at least 1")
	check(c.AnchorCount >= 0, "anchor_count must not be negative")
	check(c.AnchorArea > 0, "anchor_area must be positive")
	check(c.SmoothingIterations >= 0, "smoothing_iterations must not be negative")
	check(c.MaxSlope >= 0, "max_slope must not be negative")
	check(c.TickInterval > 0, "tick_interval must be positive")
	check(c.SaveDir != "", "save_dir is empty")

	switch c.Noise {
	case gen.NoisePerlin, gen.NoiseSimplex, gen.NoiseOpenSimplex:
	default:
		check(false, "unknown noise %q", c.Noise)
	}
	switch c.Generator {
	case gen.TypeBiome, gen.TypeFlat:
	default:
		check(false, "unknown generator %q", c.Generator)
	}
	switch c.Storage {
	case "region", "bolt":
	default:
		check(false, "unknown storage %q", c.Storage)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.BuildAtlas(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
	return l, nil
}

// BuildAtlas returns the default atlas with the configured overrides
// applied. Names may omit the "minecraft:" prefix.
func (c *Config) BuildAtlas() (*mesh.Atlas, error) {
	atlas := mesh.DefaultAtlas()
	for name, r := range c.Atlas {
		full := strings.ToLower(name)
		if !strings.HasPrefix(full, block.NamePrefix) {
			full = block.NamePrefix + full
		}
		info, ok := block.Default().ByName(full)
		if !ok {
			return nil, fmt.Errorf("%w: atlas entry for unknown block %q", ErrInvalid, name)
		}
		atlas.Set(info.Type, mesh.Rect{U: r[0], V: r[1], Width: r[2], Height: r[3]})
	}
	return atlas, nil
}
