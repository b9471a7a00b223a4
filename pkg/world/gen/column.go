package gen

import (
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// subsurfaceDepth is the number of underground-block cells below the surface.
const subsurfaceDepth = 3

// columnBlock returns the block at height y for a column whose top solid
// block sits at height.
func columnBlock(b Biome, y, height int) block.Type {
	if b.Tag.Aquatic() {
		switch {
		case y <= height:
			return b.Underground
		case y <= chunk.SeaLevel:
			return block.Water
		default:
			return block.Air
		}
	}

	switch {
	case y > height:
		return block.Air
	case y == height:
		return b.Surface
	case y >= height-subsurfaceDepth:
		return b.Underground
	default:
		return block.Rock
	}
}

// fillColumn writes every cell of the column (x, z), bottom to top.
func fillColumn(c *chunk.Chunk, x, z, height int, b Biome) {
	for y := 0; y < chunk.WorldHeight; y++ {
		sec := c.Sections[y/chunk.SectionHeight]
		sec.SetBlock(x, y%chunk.SectionHeight, z, columnBlock(b, y, height))
	}
}
