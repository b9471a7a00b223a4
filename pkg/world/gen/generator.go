// Package gen derives chunk block data from a seed, climate anchors and
// coherent noise.
package gen

import (
	"fmt"

	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// Generator kinds accepted by New.
const (
	TypeBiome = "biome"
	TypeFlat  = "flat"
)

// Generator produces chunk data deterministically.
type Generator interface {
	Generate(chunkX, chunkZ int) *chunk.Chunk
	HeightAt(blockX, blockZ int) int
	BiomeAt(blockX, blockZ int) BiomeTag
}

// New returns the generator named by kind.
func New(kind string, biomes *BiomeMap, noise Noise, opts Options) (Generator, error) {
	switch kind {
	case TypeBiome, "":
		return NewTerrainGenerator(biomes, noise, opts), nil
	case TypeFlat:
		return NewFlatGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown generator type %q", kind)
	}
}
