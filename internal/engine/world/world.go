// Package world is the resident chunk table: loaded chunks, the geometry
// handles spawned for them, and which of them have unsaved edits.
package world

import (
	"slices"
	"sync"

	"github.com/OCharnyshevich/voxelworld/internal/engine/render"
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

type entry struct {
	chunk   *chunk.Chunk
	spawned []render.Spawned
}

// World maps chunk coordinates to resident chunks.
type World struct {
	mu     sync.RWMutex
	chunks map[chunk.Pos]*entry
	dirty  map[chunk.Pos]struct{}
}

// New returns an empty world.
func New() *World {
	return &World{
		chunks: make(map[chunk.Pos]*entry),
		dirty:  make(map[chunk.Pos]struct{}),
	}
}

// Insert stores c, replacing any chunk already at its position. Geometry
// spawned for the replaced chunk is kept until the next remesh swaps it.
func (w *World) Insert(c *chunk.Chunk) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.chunks[c.Pos]; ok {
		e.chunk = c
		return
	}
	w.chunks[c.Pos] = &entry{chunk: c}
}

// Chunk returns the resident chunk at pos.
func (w *World) Chunk(pos chunk.Pos) (*chunk.Chunk, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e, ok := w.chunks[pos]
	if !ok {
		return nil, false
	}
	return e.chunk, true
}

// Has reports whether a chunk is resident at pos.
func (w *World) Has(pos chunk.Pos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.chunks[pos]
	return ok
}

// Len returns the number of resident chunks.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// Positions returns every resident position ordered by x, then z.
func (w *World) Positions() []chunk.Pos {
	w.mu.RLock()
	out := make([]chunk.Pos, 0, len(w.chunks))
	for pos := range w.chunks {
		out = append(out, pos)
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b chunk.Pos) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Z - b.Z
	})
	return out
}

// Remove drops the chunk at pos and returns the geometry spawned for it.
func (w *World) Remove(pos chunk.Pos) []render.Spawned {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.chunks[pos]
	if !ok {
		return nil
	}
	delete(w.chunks, pos)
	delete(w.dirty, pos)
	return e.spawned
}

// SetSpawned records the geometry spawned for pos and returns what it
// replaces. It is a no-op returning nil when pos is not resident.
func (w *World) SetSpawned(pos chunk.Pos, spawned []render.Spawned) []render.Spawned {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.chunks[pos]
	if !ok {
		return nil
	}
	old := e.spawned
	e.spawned = spawned
	return old
}

// Spawned returns a copy of the geometry recorded for pos.
func (w *World) Spawned(pos chunk.Pos) []render.Spawned {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if e, ok := w.chunks[pos]; ok {
		return slices.Clone(e.spawned)
	}
	return nil
}

// BlockAt returns the block at world coordinates. Non-resident chunks read
// as air.
func (w *World) BlockAt(x, y, z int) block.Type {
	pos := chunk.Pos{X: chunk.FloorDiv(x, chunk.Size), Z: chunk.FloorDiv(z, chunk.Size)}
	c, ok := w.Chunk(pos)
	if !ok {
		return block.Air
	}
	return c.Block(x-pos.X*chunk.Size, y, z-pos.Z*chunk.Size)
}

// SetBlock writes a block at world coordinates and marks its chunk dirty.
// It returns the chunk position and false when the chunk is not resident
// or y is outside the world.
func (w *World) SetBlock(x, y, z int, t block.Type) (chunk.Pos, bool) {
	pos := chunk.Pos{X: chunk.FloorDiv(x, chunk.Size), Z: chunk.FloorDiv(z, chunk.Size)}
	if y < 0 || y >= chunk.WorldHeight {
		return pos, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.chunks[pos]
	if !ok {
		return pos, false
	}
	e.chunk.SetBlock(x-pos.X*chunk.Size, y, z-pos.Z*chunk.Size, t)
	w.dirty[pos] = struct{}{}
	return pos, true
}

// MarkDirty flags pos as holding unsaved changes.
func (w *World) MarkDirty(pos chunk.Pos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.chunks[pos]; ok {
		w.dirty[pos] = struct{}{}
	}
}

// IsDirty reports whether pos holds unsaved changes.
func (w *World) IsDirty(pos chunk.Pos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.dirty[pos]
	return ok
}

// Dirty returns the resident chunks with unsaved changes.
func (w *World) Dirty() []*chunk.Chunk {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*chunk.Chunk, 0, len(w.dirty))
	for pos := range w.dirty {
		out = append(out, w.chunks[pos].chunk)
	}
	return out
}

// ClearDirty unflags the given positions.
func (w *World) ClearDirty(positions ...chunk.Pos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, pos := range positions {
		delete(w.dirty, pos)
	}
}
