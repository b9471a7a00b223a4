package gen

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Noise kinds accepted by NewNoise. "simplex" is an alias for OpenSimplex.
const (
	NoisePerlin      = "perlin"
	NoiseSimplex     = "simplex"
	NoiseOpenSimplex = "opensimplex"
)

// Noise is a coherent 2D noise field with output in [-1, 1].
type Noise interface {
	Eval2(x, y float64) float64
}

// NewNoise returns the noise source named by kind, seeded with seed.
func NewNoise(kind string, seed int64) (Noise, error) {
	switch kind {
	case NoisePerlin, "":
		return clamped(perlin.NewPerlin(2, 2, 3, seed).Noise2D), nil
	case NoiseSimplex, NoiseOpenSimplex:
		return openSimplex(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise kind %q", kind)
	}
}

func openSimplex(seed int64) Noise {
	return clamped(opensimplex.New(seed).Eval2)
}

// clamped adapts third-party fields whose output can overshoot [-1, 1].
type clamped func(x, y float64) float64

func (f clamped) Eval2(x, y float64) float64 {
	return clamp(f(x, y), -1, 1)
}

// OctaveNoise layers octaves of n and returns a value in [-1, 1].
func OctaveNoise(n Noise, x, y float64, octaves int, persistence float64) float64 {
	var total, maxVal float64
	frequency := 1.0
	amplitude := 1.0

	for range octaves {
		total += n.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2.0
	}
	return total / maxVal
}

// fractal samples octave noise starting at baseFreq and normalizes to [0, 1].
func fractal(n Noise, x, z float64, octaves int, baseFreq, persistence float64) float64 {
	return (OctaveNoise(n, x*baseFreq, z*baseFreq, octaves, persistence) + 1) / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
