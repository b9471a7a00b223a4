package world

import (
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// Neighborhood is a detached copy of a chunk and its four orthogonal
// neighbors, safe to read from a worker goroutine.
type Neighborhood struct {
	center                   *chunk.Chunk
	north, south, east, west *chunk.Chunk
}

// Neighborhood snapshots the chunk at pos with whatever neighbors are
// resident. It returns false when pos itself is not resident.
func (w *World) Neighborhood(pos chunk.Pos) (*Neighborhood, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e, ok := w.chunks[pos]
	if !ok {
		return nil, false
	}
	clone := func(p chunk.Pos) *chunk.Chunk {
		if n, ok := w.chunks[p]; ok {
			return n.chunk.Clone()
		}
		return nil
	}
	return NewNeighborhood(
		e.chunk.Clone(),
		clone(chunk.Pos{X: pos.X, Z: pos.Z - 1}),
		clone(chunk.Pos{X: pos.X, Z: pos.Z + 1}),
		clone(chunk.Pos{X: pos.X + 1, Z: pos.Z}),
		clone(chunk.Pos{X: pos.X - 1, Z: pos.Z}),
	), true
}

// NewNeighborhood builds a neighborhood from explicit chunks. Any neighbor
// may be nil.
func NewNeighborhood(center, north, south, east, west *chunk.Chunk) *Neighborhood {
	return &Neighborhood{center: center, north: north, south: south, east: east, west: west}
}

// Center returns the snapshot of the central chunk.
func (n *Neighborhood) Center() *chunk.Chunk { return n.center }

// BlockAt reads chunk-local coordinates of the center chunk, stepping into
// an orthogonal neighbor when x or z leave [0, 16). Missing neighbors and
// diagonal cells read as air.
func (n *Neighborhood) BlockAt(x, y, z int) block.Type {
	inX := x >= 0 && x < chunk.Size
	inZ := z >= 0 && z < chunk.Size

	var c *chunk.Chunk
	switch {
	case inX && inZ:
		c = n.center
	case inZ && x < 0:
		c, x = n.west, x+chunk.Size
	case inZ && x >= chunk.Size:
		c, x = n.east, x-chunk.Size
	case inX && z < 0:
		c, z = n.north, z+chunk.Size
	case inX && z >= chunk.Size:
		c, z = n.south, z-chunk.Size
	}
	if c == nil {
		return block.Air
	}
	return c.Block(x, y, z)
}
