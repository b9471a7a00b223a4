// Package chunk holds the in-memory voxel model: chunks split into
// palette-indexed sections.
package chunk

import (
	"math"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
)

const (
	Size          = 16
	SectionHeight = 16
	WorldHeight   = 256
	SectionCount  = WorldHeight / SectionHeight
	SeaLevel      = 40

	// RegionSize is the number of chunks along one side of a region file.
	RegionSize = 32
)

// Pos identifies a chunk by its grid coordinates.
type Pos struct{ X, Z int }

// PosFromWorld returns the chunk containing the world position (x, z).
func PosFromWorld(x, z float64) Pos {
	return Pos{
		X: int(math.Floor(x / Size)),
		Z: int(math.Floor(z / Size)),
	}
}

// Chebyshev returns the chessboard distance between two chunk positions.
func (p Pos) Chebyshev(o Pos) int {
	dx := p.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dz := p.Z - o.Z
	if dz < 0 {
		dz = -dz
	}
	return max(dx, dz)
}

// Region returns the region file coordinates holding this chunk.
func (p Pos) Region() (rx, rz int) {
	return FloorDiv(p.X, RegionSize), FloorDiv(p.Z, RegionSize)
}

// RegionIndex returns the slot of this chunk inside its region's location table.
func (p Pos) RegionIndex() int {
	return (p.X & (RegionSize - 1)) + (p.Z&(RegionSize-1))*RegionSize
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Chunk is a full-height column of sections. A nil section is all air.
type Chunk struct {
	Pos      Pos
	Sections [SectionCount]*Section
}

// New returns an empty chunk at pos.
func New(pos Pos) *Chunk {
	return &Chunk{Pos: pos}
}

// Block returns the block at local coordinates. Anything outside the chunk is Air.
func (c *Chunk) Block(x, y, z int) block.Type {
	if x < 0 || x >= Size || z < 0 || z >= Size || y < 0 || y >= WorldHeight {
		return block.Air
	}
	sec := c.Sections[y/SectionHeight]
	if sec == nil {
		return block.Air
	}
	return sec.Block(x, y%SectionHeight, z)
}

// SetBlock sets the block at local coordinates, allocating the section on
// first non-air write. Out-of-range writes are ignored.
func (c *Chunk) SetBlock(x, y, z int, t block.Type) {
	if x < 0 || x >= Size || z < 0 || z >= Size || y < 0 || y >= WorldHeight {
		return
	}
	i := y / SectionHeight
	if c.Sections[i] == nil {
		if t == block.Air {
			return
		}
		c.Sections[i] = NewSection()
	}
	c.Sections[i].SetBlock(x, y%SectionHeight, z, t)
}

// Empty reports whether the chunk holds no non-air block.
func (c *Chunk) Empty() bool {
	for _, sec := range c.Sections {
		if sec != nil && !sec.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the chunk.
func (c *Chunk) Clone() *Chunk {
	out := &Chunk{Pos: c.Pos}
	for i, sec := range c.Sections {
		if sec != nil {
			out.Sections[i] = sec.Clone()
		}
	}
	return out
}
