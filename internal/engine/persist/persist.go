// Package persist loads and saves chunk block data.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// ErrNotFound is returned by Load when no saved data exists for a chunk.
var ErrNotFound = errors.New("chunk not found")

// Adapter is a chunk store. Implementations are safe for concurrent use.
type Adapter interface {
	Load(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error)
	Save(ctx context.Context, c *chunk.Chunk) error
	SaveAll(ctx context.Context, cs []*chunk.Chunk) error
	Close() error
}

// Storage backends accepted by Open.
const (
	StorageRegion = "region"
	StorageBolt   = "bolt"
)

// Options select and configure a backend.
type Options struct {
	Dir     string // world save directory
	Storage string // StorageRegion or StorageBolt
	Index   bool   // keep a sqlite index of saved region chunks
	Log     *slog.Logger
}

// Open opens the backend named in opts under opts.Dir.
func Open(ctx context.Context, opts Options) (Adapter, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	switch opts.Storage {
	case StorageRegion, "":
		var index *Index
		if opts.Index {
			var err error
			index, err = OpenIndex(filepath.Join(opts.Dir, "index.db"))
			if err != nil {
				return nil, err
			}
		}
		s, err := NewRegionStore(ctx, filepath.Join(opts.Dir, "region"), index, log)
		if err != nil {
			if index != nil {
				index.Close()
			}
			return nil, err
		}
		return s, nil
	case StorageBolt:
		return NewBoltStore(filepath.Join(opts.Dir, "chunks.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Storage)
	}
}
