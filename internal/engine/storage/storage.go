package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/voxelworld/internal/engine/config"
)

// Level describes a world save: its identity, how it was generated and
// where the viewer was last.
type Level struct {
	ID        uuid.UUID `json:"id"`
	Seed      int64     `json:"seed"`
	Generator string    `json:"generator"`
	Noise     string    `json:"noise"`
	CreatedAt time.Time `json:"created_at"`
	SavedAt   time.Time `json:"saved_at"`
	ViewerX   float64   `json:"viewer_x"`
	ViewerZ   float64   `json:"viewer_z"`
}

// Storage handles the files of a world save directory.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a new Storage rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	if log == nil {
		log = slog.Default()
	}
	dirs := []string{
		dir,
		filepath.Join(dir, "region"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return &Storage{dir: dir, log: log}, nil
}

// Dir returns the save directory.
func (s *Storage) Dir() string { return s.dir }

// LoadConfig reads config.yaml. It returns nil, nil when the file does not exist.
func (s *Storage) LoadConfig() (*config.Config, error) {
	path := filepath.Join(s.dir, "config.yaml")
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	s.log.Info("loaded config from file", "path", path)
	return cfg, nil
}

// SaveConfig writes cfg to config.yaml atomically.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return atomicWrite(filepath.Join(s.dir, "config.yaml"), data)
}

// LoadLevel reads level.json, or returns nil when the save has none.
func (s *Storage) LoadLevel() (*Level, error) {
	path := filepath.Join(s.dir, "level.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read level: %w", err)
	}

	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	return &lvl, nil
}

// OpenLevel loads level.json, or creates a new level from cfg when the save
// is fresh. An existing level's seed and generator win over cfg.
func (s *Storage) OpenLevel(cfg *config.Config) (*Level, error) {
	lvl, err := s.LoadLevel()
	if err != nil {
		return nil, err
	}
	if lvl != nil {
		if lvl.Seed != cfg.Seed || lvl.Generator != cfg.Generator || lvl.Noise != cfg.Noise {
			s.log.Warn("save was created with different settings, using the save's",
				"seed", lvl.Seed, "generator", lvl.Generator, "noise", lvl.Noise)
		}
		s.log.Info("opened level", "id", lvl.ID, "seed", lvl.Seed)
		return lvl, nil
	}

	lvl = &Level{
		ID:        uuid.New(),
		Seed:      cfg.Seed,
		Generator: cfg.Generator,
		Noise:     cfg.Noise,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveLevel(lvl); err != nil {
		return nil, err
	}
	s.log.Info("created level", "id", lvl.ID, "seed", lvl.Seed)
	return lvl, nil
}

// SaveLevel writes lvl to level.json atomically.
func (s *Storage) SaveLevel(lvl *Level) error {
	lvl.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(lvl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	return atomicWrite(filepath.Join(s.dir, "level.json"), data)
}

// atomicWrite writes data to path using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
