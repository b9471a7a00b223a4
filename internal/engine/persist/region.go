package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/voxelworld/pkg/world/anvil"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// flushLimit bounds how many region files SaveAll rewrites at once.
const flushLimit = 4

type regionKey struct{ x, z int }

// RegionStore keeps chunks in region files under a directory.
type RegionStore struct {
	dir   string
	index *Index
	log   *slog.Logger

	mu    sync.Mutex
	locks map[regionKey]*sync.Mutex
}

// NewRegionStore creates dir if needed. When index is non-nil and empty it
// is rebuilt from the region files already on disk. A non-empty index may
// still miss chunks; Load fills those in as it finds them.
func NewRegionStore(ctx context.Context, dir string, index *Index, log *slog.Logger) (*RegionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create region dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	s := &RegionStore{
		dir:   dir,
		index: index,
		log:   log,
		locks: make(map[regionKey]*sync.Mutex),
	}

	if index != nil {
		n, err := index.Count(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			n, err = index.Rebuild(ctx, dir)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				log.Info("rebuilt chunk index", "dir", dir, "chunks", n)
			}
		}
		log.Info("chunk index ready", "chunks", n)
	}
	return s, nil
}

func (s *RegionStore) lock(rx, rz int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := regionKey{rx, rz}
	m, ok := s.locks[k]
	if !ok {
		m = &sync.Mutex{}
		s.locks[k] = m
	}
	return m
}

// Load reads the chunk at pos. Missing files and entries yield ErrNotFound.
// The index is only a hint: chunks written while it was off, or by another
// tool, are read from their region file and indexed on first load.
func (s *RegionStore) Load(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	indexed := true
	if s.index != nil {
		ok, err := s.index.Has(ctx, pos)
		if err != nil {
			s.log.Warn("chunk index lookup failed", "x", pos.X, "z", pos.Z, "error", err)
		}
		indexed = ok
	}

	data, err := anvil.ReadChunk(s.dir, pos)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, anvil.ErrChunkNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk (%d,%d): %w", pos.X, pos.Z, err)
	}

	c, err := anvil.DecodeChunk(data)
	if err != nil {
		return nil, fmt.Errorf("decode chunk (%d,%d): %w", pos.X, pos.Z, err)
	}
	if c.Pos != pos {
		return nil, fmt.Errorf("region entry for (%d,%d) holds chunk (%d,%d)", pos.X, pos.Z, c.Pos.X, c.Pos.Z)
	}
	if !indexed {
		if err := s.index.Record(ctx, c); err != nil {
			s.log.Warn("index loaded chunk", "x", pos.X, "z", pos.Z, "error", err)
		} else {
			s.log.Debug("indexed unlisted chunk", "x", pos.X, "z", pos.Z)
		}
	}
	return c, nil
}

// Save writes one chunk.
func (s *RegionStore) Save(ctx context.Context, c *chunk.Chunk) error {
	return s.SaveAll(ctx, []*chunk.Chunk{c})
}

// SaveAll groups chunks by region and rewrites the affected region files
// in parallel.
func (s *RegionStore) SaveAll(ctx context.Context, cs []*chunk.Chunk) error {
	groups := make(map[regionKey][]*chunk.Chunk)
	for _, c := range cs {
		rx, rz := c.Pos.Region()
		k := regionKey{rx, rz}
		groups[k] = append(groups[k], c)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(flushLimit)
	for k, group := range groups {
		g.Go(func() error {
			return s.saveRegion(ctx, k, group)
		})
	}
	return g.Wait()
}

func (s *RegionStore) saveRegion(ctx context.Context, k regionKey, cs []*chunk.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded := make(map[chunk.Pos][]byte, len(cs))
	for _, c := range cs {
		data, err := anvil.EncodeChunk(c)
		if err != nil {
			return fmt.Errorf("encode chunk (%d,%d): %w", c.Pos.X, c.Pos.Z, err)
		}
		encoded[c.Pos] = data
	}

	m := s.lock(k.x, k.z)
	m.Lock()
	err := anvil.SaveRegion(s.dir, k.x, k.z, encoded)
	m.Unlock()
	if err != nil {
		return fmt.Errorf("save region (%d,%d): %w", k.x, k.z, err)
	}

	if s.index != nil {
		if err := s.index.Record(ctx, cs...); err != nil {
			return err
		}
	}
	s.log.Debug("saved region", "rx", k.x, "rz", k.z, "chunks", len(cs))
	return nil
}

// Close closes the index, if any.
func (s *RegionStore) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
