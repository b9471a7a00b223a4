package chunk

import (
	"fmt"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
)

// SectionVolume is the number of blocks in one section.
const SectionVolume = Size * SectionHeight * Size

// Section is a 16×16×16 slab of blocks stored as indices into an
// append-only palette. Index = (y*16 + z)*16 + x.
type Section struct {
	palette []block.Type
	blocks  [SectionVolume]uint8
}

// NewSection returns an all-air section. Air is inserted at palette index 0
// so the zeroed block array is valid.
func NewSection() *Section {
	return &Section{palette: []block.Type{block.Air}}
}

// SectionFromPalette rebuilds a section from persisted palette and index data.
// Duplicate palette entries are folded together and indices remapped.
func SectionFromPalette(palette []block.Type, indices []byte) (*Section, error) {
	if len(indices) != SectionVolume {
		return nil, fmt.Errorf("section has %d indices, want %d", len(indices), SectionVolume)
	}
	if len(palette) == 0 {
		return nil, fmt.Errorf("section palette is empty")
	}
	if len(palette) > 256 {
		return nil, fmt.Errorf("section palette has %d entries, max 256", len(palette))
	}

	s := &Section{}
	remap := make([]uint8, len(palette))
	for i, t := range palette {
		remap[i] = s.IndexOf(t)
	}
	for i, idx := range indices {
		if int(idx) >= len(palette) {
			return nil, fmt.Errorf("block %d references palette index %d of %d", i, idx, len(palette))
		}
		s.blocks[i] = remap[idx]
	}
	return s, nil
}

func sectionIndex(x, y, z int) int {
	return (y*Size+z)*Size + x
}

// Block returns the block at section-local coordinates.
func (s *Section) Block(x, y, z int) block.Type {
	if x < 0 || x >= Size || y < 0 || y >= SectionHeight || z < 0 || z >= Size {
		return block.Air
	}
	return s.palette[s.blocks[sectionIndex(x, y, z)]]
}

// SetBlock writes t at section-local coordinates.
func (s *Section) SetBlock(x, y, z int, t block.Type) {
	if x < 0 || x >= Size || y < 0 || y >= SectionHeight || z < 0 || z >= Size {
		return
	}
	s.blocks[sectionIndex(x, y, z)] = s.IndexOf(t)
}

// IndexOf returns the palette index of t, appending it on first use.
// Invalid types are stored as Air.
func (s *Section) IndexOf(t block.Type) uint8 {
	if !t.Valid() {
		t = block.Air
	}
	for i, p := range s.palette {
		if p == t {
			return uint8(i)
		}
	}
	// The palette can never exceed the number of block types.
	s.palette = append(s.palette, t)
	return uint8(len(s.palette) - 1)
}

// Palette returns a copy of the palette in index order.
func (s *Section) Palette() []block.Type {
	out := make([]block.Type, len(s.palette))
	copy(out, s.palette)
	return out
}

// Indices returns a copy of the raw palette index array.
func (s *Section) Indices() []byte {
	out := make([]byte, SectionVolume)
	copy(out, s.blocks[:])
	return out
}

// IsEmpty reports whether every block in the section is air.
func (s *Section) IsEmpty() bool {
	for _, idx := range s.blocks {
		if s.palette[idx] != block.Air {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	out := &Section{blocks: s.blocks}
	out.palette = make([]block.Type, len(s.palette))
	copy(out.palette, s.palette)
	return out
}
