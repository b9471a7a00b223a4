package anvil

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// DataVersion tags the chunk layout written by EncodeChunk.
const DataVersion = 1

type chunkNBT struct {
	DataVersion int32        `nbt:"DataVersion"`
	XPos        int32        `nbt:"xPos"`
	ZPos        int32        `nbt:"zPos"`
	Sections    []sectionNBT `nbt:"sections"`
}

type sectionNBT struct {
	Y       int8     `nbt:"Y"`
	Palette []string `nbt:"palette"`
	Blocks  []byte   `nbt:"blocks"`
}

// EncodeChunk serializes a chunk's palettes and block indices as NBT.
// Nil sections are omitted.
func EncodeChunk(c *chunk.Chunk) ([]byte, error) {
	root := chunkNBT{
		DataVersion: DataVersion,
		XPos:        int32(c.Pos.X),
		ZPos:        int32(c.Pos.Z),
		Sections:    []sectionNBT{},
	}

	for y, sec := range c.Sections {
		if sec == nil {
			continue
		}
		pal := sec.Palette()
		names := make([]string, len(pal))
		for i, t := range pal {
			names[i] = t.Name()
		}
		root.Sections = append(root.Sections, sectionNBT{
			Y:       int8(y),
			Palette: names,
			Blocks:  sec.Indices(),
		})
	}

	data, err := nbt.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode chunk (%d,%d): %w", c.Pos.X, c.Pos.Z, err)
	}
	return data, nil
}

// DecodeChunk parses NBT written by EncodeChunk. Unknown block names decode
// as air; malformed sections are rejected.
func DecodeChunk(data []byte) (*chunk.Chunk, error) {
	var root chunkNBT
	if err := nbt.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode chunk nbt: %w", err)
	}

	c := chunk.New(chunk.Pos{X: int(root.XPos), Z: int(root.ZPos)})
	for _, s := range root.Sections {
		if s.Y < 0 || int(s.Y) >= chunk.SectionCount {
			return nil, fmt.Errorf("section Y %d out of range", s.Y)
		}
		if c.Sections[s.Y] != nil {
			return nil, fmt.Errorf("duplicate section Y %d", s.Y)
		}

		pal := make([]block.Type, len(s.Palette))
		for i, name := range s.Palette {
			pal[i] = block.FromName(name)
		}
		sec, err := chunk.SectionFromPalette(pal, s.Blocks)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", s.Y, err)
		}
		c.Sections[s.Y] = sec
	}
	return c, nil
}
