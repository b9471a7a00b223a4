package gen

import "github.com/OCharnyshevich/voxelworld/pkg/world/chunk"

// Options tune the terrain generator.
type Options struct {
	// SmoothingIterations is the number of slope-limiting passes. Zero disables smoothing.
	SmoothingIterations int
	// MaxSlope is the largest height step allowed between orthogonal neighbors.
	MaxSlope int
}

// DefaultOptions returns the smoothing used by the default configuration.
func DefaultOptions() Options {
	return Options{SmoothingIterations: 4, MaxSlope: 3}
}

// TerrainGenerator builds chunks from a biome map and a noise field. It holds
// no mutable state and is safe for concurrent use.
type TerrainGenerator struct {
	biomes *BiomeMap
	noise  Noise
	opts   Options
}

// NewTerrainGenerator creates a TerrainGenerator.
func NewTerrainGenerator(biomes *BiomeMap, noise Noise, opts Options) *TerrainGenerator {
	return &TerrainGenerator{biomes: biomes, noise: noise, opts: opts}
}

// Generate builds the chunk at (chunkX, chunkZ).
func (g *TerrainGenerator) Generate(chunkX, chunkZ int) *chunk.Chunk {
	c := chunk.New(chunk.Pos{X: chunkX, Z: chunkZ})
	for i := range c.Sections {
		c.Sections[i] = chunk.NewSection()
	}

	baseX, baseZ := chunkX*chunk.Size, chunkZ*chunk.Size
	heights := g.heightWindow(baseX, baseZ, chunk.Size, chunk.Size)

	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			wx, wz := baseX+x, baseZ+z
			b := Descriptor(g.biomes.Classify(float64(wx), float64(wz)))
			fillColumn(c, x, z, heights[x*chunk.Size+z], b)
		}
	}
	return c
}

// HeightAt returns the height of the top generated block at the world column.
func (g *TerrainGenerator) HeightAt(blockX, blockZ int) int {
	return g.heightWindow(blockX, blockZ, 1, 1)[0]
}

// BiomeAt returns the dominant biome at the world column.
func (g *TerrainGenerator) BiomeAt(blockX, blockZ int) BiomeTag {
	return g.biomes.Classify(float64(blockX), float64(blockZ))
}
