package gen

import (
	"testing"
)

func TestNewBiomeMapDeterministic(t *testing.T) {
	n1, _ := NewNoise(NoisePerlin, 42)
	n2, _ := NewNoise(NoisePerlin, 42)

	m1 := NewBiomeMap(42, 200, 2000, n1)
	m2 := NewBiomeMap(42, 200, 2000, n2)

	p1, p2 := m1.Points(), m2.Points()
	if len(p1) != 200 || len(p2) != 200 {
		t.Fatalf("got %d and %d anchors, want 200", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("anchor %d differs: %+v vs %+v", i, p1[i], p2[i])
		}
	}
}

func TestNewBiomeMapAnchorsInArea(t *testing.T) {
	n := openSimplex(1)
	m := NewBiomeMap(1, 300, 1000, n)
	for _, p := range m.Points() {
		if p.X < -500 || p.X >= 500 || p.Z < -500 || p.Z >= 500 {
			t.Fatalf("anchor (%f,%f) outside area", p.X, p.Z)
		}
		if p.Biome != ChooseBiome(p.Temperature, p.Humidity, p.Altitude) {
			t.Fatalf("anchor biome %v does not match its climate", p.Biome)
		}
	}
}

func TestClimateFallback(t *testing.T) {
	m := NewBiomeMapFromPoints([]ClimatePoint{{X: 10_000, Z: 10_000, Altitude: 0.9, Biome: Mountain}}, openSimplex(0))

	temp, humid, alt := m.Climate(0, 0)
	if temp != 0.5 || humid != 0.5 || alt != 0.5 {
		t.Fatalf("Climate fallback = (%f,%f,%f), want (0.5,0.5,0.5)", temp, humid, alt)
	}
	if got := m.Classify(0, 0); got != Plains {
		t.Fatalf("Classify fallback = %v, want plains", got)
	}

	hp := m.HeightParams(0, 0)
	plains := Descriptor(Plains)
	if hp.BaseHeight != plains.BaseHeight || hp.Amplitude != plains.Amplitude || hp.Frequency != plains.Frequency {
		t.Fatalf("HeightParams fallback = %+v, want plains", hp)
	}
}

func TestClassifySingleAnchor(t *testing.T) {
	tests := []struct {
		altitude float64
		want     BiomeTag
	}{
		{0.02, Abyss},
		{0.1, Ocean},
		{0.15, Beach},
		{0.5, Plains},
		{0.95, Mountain},
	}
	for _, tt := range tests {
		m := NewBiomeMapFromPoints([]ClimatePoint{{X: 0, Z: 0, Temperature: 0.5, Humidity: 0.5, Altitude: tt.altitude, Biome: tt.want}}, openSimplex(0))
		if got := m.Classify(10, 10); got != tt.want {
			t.Errorf("altitude %f: Classify = %v, want %v", tt.altitude, got, tt.want)
		}
	}
}

func TestChooseBiomeClampsAltitude(t *testing.T) {
	if got := ChooseBiome(0.5, 0.5, -3); got != Abyss {
		t.Errorf("ChooseBiome(alt=-3) = %v, want abyss", got)
	}
	if got := ChooseBiome(0.5, 0.5, 7); got != Mountain {
		t.Errorf("ChooseBiome(alt=7) = %v, want mountain", got)
	}
}

func TestHeightParamsBlend(t *testing.T) {
	// Two equidistant anchors contribute equal weight.
	m := NewBiomeMapFromPoints([]ClimatePoint{
		{X: -50, Z: 0, Altitude: 0.5, Biome: Plains},
		{X: 50, Z: 0, Altitude: 0.95, Biome: Mountain},
	}, openSimplex(0))

	hp := m.HeightParams(0, 0)
	p, mt := Descriptor(Plains), Descriptor(Mountain)
	want := (p.Amplitude + mt.Amplitude) / 2
	if diff := hp.Amplitude - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("blended amplitude = %f, want %f", hp.Amplitude, want)
	}
	wantFreq := (p.Frequency + mt.Frequency) / 2
	if diff := hp.Frequency - wantFreq; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("blended frequency = %f, want %f", hp.Frequency, wantFreq)
	}
}

func TestInfluencesStableOrder(t *testing.T) {
	// Equal distances and weights: insertion order decides.
	m := NewBiomeMapFromPoints([]ClimatePoint{
		{X: 0, Z: 30, Biome: Beach},
		{X: 0, Z: -30, Biome: Ocean},
		{X: 30, Z: 0, Biome: Plains},
		{X: -30, Z: 0, Biome: Plains},
	}, openSimplex(0))

	inf := m.Influences(0, 0, 100)
	if len(inf) != 3 {
		t.Fatalf("got %d influences, want 3: %+v", len(inf), inf)
	}
	if inf[0].Biome != Plains {
		t.Errorf("heaviest influence = %v, want plains", inf[0].Biome)
	}
	if inf[1].Biome != Beach || inf[2].Biome != Ocean {
		t.Errorf("tie order = %v, %v; want beach, ocean", inf[1].Biome, inf[2].Biome)
	}

	var total float64
	for _, in := range inf {
		total += in.Weight
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("weights sum to %f, want 1", total)
	}
}

func TestInfluencesFallback(t *testing.T) {
	m := NewBiomeMapFromPoints(nil, openSimplex(0))
	inf := m.Influences(0, 0, 100)
	if len(inf) != 1 || inf[0].Biome != Plains || inf[0].Weight != 1 {
		t.Fatalf("Influences fallback = %+v, want [{1 plains}]", inf)
	}
}

func TestNearMatchesLinearScan(t *testing.T) {
	n := openSimplex(9)
	m := NewBiomeMap(9, 400, 1200, n)

	for _, q := range [][2]float64{{0, 0}, {310, -77}, {-599, 599}, {149.9, 150}} {
		var got []int
		m.near(q[0], q[1], heightRadius, func(i int, _ float64) { got = append(got, i) })

		var want []int
		for i, p := range m.points {
			dx, dz := p.X-q[0], p.Z-q[1]
			if dx*dx+dz*dz < heightRadius*heightRadius {
				want = append(want, i)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("near(%v) found %d anchors, linear scan %d", q, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("near(%v) order differs at %d: %d vs %d", q, i, got[i], want[i])
			}
		}
	}
}
