package gen

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

const (
	// DefaultAnchorCount is the number of climate anchors scattered at startup.
	DefaultAnchorCount = 600

	climateRadius = 120.0
	heightRadius  = 150.0
	jitterScale   = 0.05
)

// ClimatePoint is a climate anchor sampled once at map construction.
type ClimatePoint struct {
	X, Z        float64
	Temperature float64
	Humidity    float64
	Altitude    float64
	Biome       BiomeTag
}

// Influence is one biome's normalized contribution at a position.
type Influence struct {
	Weight float64
	Biome  BiomeTag
}

// HeightParams are the noise parameters blended from nearby anchors.
type HeightParams struct {
	BaseHeight float64
	Amplitude  float64
	Frequency  float64
}

type cell struct{ x, z int }

// BiomeMap is an immutable set of climate anchors. It is safe for
// concurrent use once constructed.
type BiomeMap struct {
	points []ClimatePoint
	jitter [][2]float64
	grid   map[cell][]int
}

// NewBiomeMap scatters count anchors over [-area/2, area/2)² using a seeded
// RNG and samples their climate from noise.
func NewBiomeMap(seed int64, count int, area float64, noise Noise) *BiomeMap {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))

	points := make([]ClimatePoint, 0, count)
	half := area / 2
	for range count {
		x := rng.Float64()*area - half
		z := rng.Float64()*area - half
		temp, humid, alt := sampleEnvironment(noise, x, z)
		points = append(points, ClimatePoint{
			X:           x,
			Z:           z,
			Temperature: temp,
			Humidity:    humid,
			Altitude:    alt,
			Biome:       ChooseBiome(temp, humid, alt),
		})
	}
	return NewBiomeMapFromPoints(points, noise)
}

// NewBiomeMapFromPoints builds a map from explicit anchors. Anchor order is
// preserved and used to break ties.
func NewBiomeMapFromPoints(points []ClimatePoint, noise Noise) *BiomeMap {
	m := &BiomeMap{
		points: slices.Clone(points),
		jitter: make([][2]float64, len(points)),
		grid:   make(map[cell][]int),
	}
	for i, p := range m.points {
		m.jitter[i] = [2]float64{
			noise.Eval2(p.X*0.1, p.Z*0.1) * jitterScale,
			noise.Eval2(p.X*0.1+500, p.Z*0.1+500) * jitterScale,
		}
		c := cellOf(p.X, p.Z)
		m.grid[c] = append(m.grid[c], i)
	}
	return m
}

// Points returns a copy of the anchors in insertion order.
func (m *BiomeMap) Points() []ClimatePoint {
	return slices.Clone(m.points)
}

// Climate returns blended temperature, humidity and altitude at (x, z).
// Without any anchor in range it returns (0.5, 0.5, 0.5).
func (m *BiomeMap) Climate(x, z float64) (temperature, humidity, altitude float64) {
	var total, tSum, hSum, aSum float64
	m.near(x, z, climateRadius, func(i int, d float64) {
		w := math.Pow(1-d/climateRadius, 2)
		p := &m.points[i]
		tSum += (p.Temperature + m.jitter[i][0]) * w
		hSum += (p.Humidity + m.jitter[i][1]) * w
		aSum += p.Altitude * w
		total += w
	})
	if total == 0 {
		return 0.5, 0.5, 0.5
	}
	return clamp(tSum/total, 0, 1), clamp(hSum/total, 0, 1), clamp(aSum/total, 0, 1)
}

// Classify returns the dominant biome at (x, z), falling back to Plains
// when no anchor is in range.
func (m *BiomeMap) Classify(x, z float64) BiomeTag {
	found := false
	m.near(x, z, climateRadius, func(int, float64) { found = true })
	if !found {
		return Plains
	}
	return ChooseBiome(m.Climate(x, z))
}

// Influences returns per-biome normalized weights within radius, heaviest
// first. Equal weights keep the order in which the biome was first seen.
func (m *BiomeMap) Influences(x, z, radius float64) []Influence {
	var out []Influence
	var total float64
	m.near(x, z, radius, func(i int, d float64) {
		w := math.Pow(1-d/radius, 2)
		total += w
		tag := m.points[i].Biome
		for j := range out {
			if out[j].Biome == tag {
				out[j].Weight += w
				return
			}
		}
		out = append(out, Influence{Weight: w, Biome: tag})
	})
	if total == 0 {
		return []Influence{{Weight: 1, Biome: Plains}}
	}
	for i := range out {
		out[i].Weight /= total
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Weight > out[b].Weight })
	return out
}

// HeightParams blends base height, amplitude and frequency of the anchors
// within range using a cubic falloff. Without anchors it returns Plains.
func (m *BiomeMap) HeightParams(x, z float64) HeightParams {
	var total float64
	var hp HeightParams
	m.near(x, z, heightRadius, func(i int, d float64) {
		w := math.Pow(1-d/heightRadius, 3)
		b := Descriptor(m.points[i].Biome)
		hp.BaseHeight += b.BaseHeight * w
		hp.Amplitude += b.Amplitude * w
		hp.Frequency += b.Frequency * w
		total += w
	})
	if total == 0 {
		p := Descriptor(Plains)
		return HeightParams{BaseHeight: p.BaseHeight, Amplitude: p.Amplitude, Frequency: p.Frequency}
	}
	hp.BaseHeight /= total
	hp.Amplitude /= total
	hp.Frequency /= total
	return hp
}

// near calls fn for every anchor strictly within radius of (x, z), in
// insertion order.
func (m *BiomeMap) near(x, z, radius float64, fn func(i int, dist float64)) {
	lo := cellOf(x-radius, z-radius)
	hi := cellOf(x+radius, z+radius)

	var idx []int
	for cx := lo.x; cx <= hi.x; cx++ {
		for cz := lo.z; cz <= hi.z; cz++ {
			idx = append(idx, m.grid[cell{cx, cz}]...)
		}
	}
	slices.Sort(idx)

	r2 := radius * radius
	for _, i := range idx {
		dx := m.points[i].X - x
		dz := m.points[i].Z - z
		d2 := dx*dx + dz*dz
		if d2 < r2 {
			fn(i, math.Sqrt(d2))
		}
	}
}

func cellOf(x, z float64) cell {
	return cell{int(math.Floor(x / heightRadius)), int(math.Floor(z / heightRadius))}
}

// sampleEnvironment derives an anchor's climate from layered noise: a
// mountain mask amplifies relief, temperature follows latitude and
// altitude, humidity is an independent low-frequency field.
func sampleEnvironment(n Noise, x, z float64) (temperature, humidity, altitude float64) {
	mask := (n.Eval2(x*0.0012+999, z*0.0012+999) + 1) / 2
	intensity := mask * mask

	relief := fractal(n, x, z, 6, 0.02, 0.45)
	meters := relief * (300 + 1200*intensity)

	latitude := math.Mod(z, 1000)/1000*2 - 1
	baseTemp := 15 + 15*math.Cos(latitude*math.Pi)
	temp := clamp(baseTemp-meters*0.0065, 0, 40) / 40

	humid := (n.Eval2(x*0.003+1337, z*0.003+1337) + 1) / 2

	return temp, humid, meters / 1500
}
