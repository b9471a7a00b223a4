package gen

import (
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// FlatGenerator generates a superflat world:
// rock at y=0..2, dirt at y=3, grass at y=4.
type FlatGenerator struct{}

// NewFlatGenerator creates a FlatGenerator.
func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) Generate(chunkX, chunkZ int) *chunk.Chunk {
	c := chunk.New(chunk.Pos{X: chunkX, Z: chunkZ})

	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			c.SetBlock(x, 0, z, block.Rock)
			c.SetBlock(x, 1, z, block.Rock)
			c.SetBlock(x, 2, z, block.Rock)
			c.SetBlock(x, 3, z, block.Dirt)
			c.SetBlock(x, 4, z, block.Grass)
		}
	}
	return c
}

func (g *FlatGenerator) HeightAt(_, _ int) int {
	return 4 // top solid block is at y=4 (grass)
}

func (g *FlatGenerator) BiomeAt(_, _ int) BiomeTag {
	return Plains
}
