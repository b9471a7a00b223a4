package gen

import (
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// BiomeTag identifies a biome.
type BiomeTag uint8

const (
	Mountain BiomeTag = iota
	Plains
	Beach
	Ocean
	Abyss
)

var biomeNames = [...]string{
	Mountain: "mountain",
	Plains:   "plains",
	Beach:    "beach",
	Ocean:    "ocean",
	Abyss:    "abyss",
}

func (b BiomeTag) String() string {
	if int(b) < len(biomeNames) {
		return biomeNames[b]
	}
	return "unknown"
}

// Aquatic reports whether columns of this biome are flooded up to sea level.
func (b BiomeTag) Aquatic() bool {
	return b == Ocean || b == Abyss
}

// Biome holds the height curve and block palette for one biome.
type Biome struct {
	Tag         BiomeTag
	BaseHeight  float64
	Amplitude   float64
	Frequency   float64
	Surface     block.Type
	Underground block.Type
}

var biomes = [...]Biome{
	Mountain: {Tag: Mountain, BaseHeight: chunk.SeaLevel + 10, Amplitude: 200, Frequency: 0.1, Surface: block.Rock, Underground: block.Rock},
	Plains:   {Tag: Plains, BaseHeight: chunk.SeaLevel + 4, Amplitude: 5, Frequency: 0.02, Surface: block.Grass, Underground: block.Rock},
	Beach:    {Tag: Beach, BaseHeight: chunk.SeaLevel + 4, Amplitude: 5, Frequency: 0.02, Surface: block.Sand, Underground: block.Rock},
	Ocean:    {Tag: Ocean, BaseHeight: chunk.SeaLevel - 80, Amplitude: 25, Frequency: 0.005, Surface: block.Air, Underground: block.Sand},
	Abyss:    {Tag: Abyss, BaseHeight: chunk.SeaLevel - 110, Amplitude: 100, Frequency: 0.005, Surface: block.Air, Underground: block.Rock},
}

// Descriptor returns the biome parameters for tag. Unknown tags map to Plains.
func Descriptor(tag BiomeTag) Biome {
	if int(tag) < len(biomes) {
		return biomes[tag]
	}
	return biomes[Plains]
}

// Altitude thresholds used by ChooseBiome.
const (
	abyssAltitude    = 0.06
	oceanAltitude    = 0.14
	beachAltitude    = 0.17
	mountainAltitude = 0.8
)

// ChooseBiome maps a climate sample to a biome. Only altitude splits
// biomes at the moment; temperature and humidity do not yet form bands.
//
//	altitude < 0.06  Abyss
//	altitude < 0.14  Ocean
//	altitude < 0.17  Beach
//	altitude > 0.8   Mountain
//	otherwise        Plains
func ChooseBiome(temperature, humidity, altitude float64) BiomeTag {
	alt := clamp(altitude, 0, 1)

	switch {
	case alt < abyssAltitude:
		return Abyss
	case alt < oceanAltitude:
		return Ocean
	case alt < beachAltitude:
		return Beach
	case alt > mountainAltitude:
		return Mountain
	default:
		return Plains
	}
}
