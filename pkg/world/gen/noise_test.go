package gen

import (
	"math"
	"testing"
)

func TestNoiseSourcesRange(t *testing.T) {
	for _, kind := range []string{NoisePerlin, NoiseSimplex, NoiseOpenSimplex} {
		t.Run(kind, func(t *testing.T) {
			n, err := NewNoise(kind, 42)
			if err != nil {
				t.Fatalf("NewNoise: %v", err)
			}
			for i := 0; i < 5000; i++ {
				x := float64(i)*0.37 - 500
				y := float64(i)*0.53 - 500
				v := n.Eval2(x, y)
				if v < -1.0 || v > 1.0 || math.IsNaN(v) {
					t.Fatalf("Eval2(%f, %f) = %f, out of [-1,1]", x, y, v)
				}
			}
		})
	}
}

func TestNoiseSourcesDeterministic(t *testing.T) {
	for _, kind := range []string{NoisePerlin, NoiseSimplex, NoiseOpenSimplex} {
		a, _ := NewNoise(kind, 7)
		b, _ := NewNoise(kind, 7)
		for i := 0; i < 50; i++ {
			x, y := float64(i)*1.3, float64(i)*-0.7
			if a.Eval2(x, y) != b.Eval2(x, y) {
				t.Fatalf("%s: Eval2 not deterministic at (%f, %f)", kind, x, y)
			}
		}
	}
}

func TestSimplexAliasesOpenSimplex(t *testing.T) {
	a, _ := NewNoise(NoiseSimplex, 11)
	b, _ := NewNoise(NoiseOpenSimplex, 11)
	for i := 0; i < 50; i++ {
		x, y := float64(i)*0.9, float64(i)*0.4
		if a.Eval2(x, y) != b.Eval2(x, y) {
			t.Fatalf("simplex and opensimplex differ at (%f, %f)", x, y)
		}
	}
}

func TestNewNoiseUnknownKind(t *testing.T) {
	if _, err := NewNoise("value", 1); err == nil {
		t.Fatal("expected error for unknown noise kind")
	}
}

func TestDifferentSeedsDifferentNoise(t *testing.T) {
	ng1 := openSimplex(1)
	ng2 := openSimplex(2)

	different := false
	for i := 0; i < 100; i++ {
		x := float64(i) * 0.1
		y := float64(i) * 0.2
		if ng1.Eval2(x, y) != ng2.Eval2(x, y) {
			different = true
			break
		}
	}
	if !different {
		t.Error("different seeds should produce different noise")
	}
}

func TestOctaveNoiseRange(t *testing.T) {
	ng := openSimplex(42)

	for i := 0; i < 5000; i++ {
		x := float64(i)*0.37 - 500
		y := float64(i)*0.53 - 500
		v := OctaveNoise(ng, x, y, 6, 0.45)
		if v < -1.0 || v > 1.0 {
			t.Fatalf("OctaveNoise(%f, %f) = %f, out of [-1,1]", x, y, v)
		}
	}
}

func TestFractalNormalized(t *testing.T) {
	ng := openSimplex(3)
	for i := 0; i < 1000; i++ {
		v := fractal(ng, float64(i)*3.1, float64(i)*-2.3, 6, 0.02, 0.45)
		if v < 0 || v > 1 {
			t.Fatalf("fractal = %f, out of [0,1]", v)
		}
	}
}

func TestOpenSimplexSmoothness(t *testing.T) {
	ng := openSimplex(42)

	// Adjacent samples at small step should differ by a small amount.
	const step = 0.01
	maxDiff := 0.0
	for i := 0; i < 1000; i++ {
		x := float64(i) * 0.1
		diff := math.Abs(ng.Eval2(x, 0) - ng.Eval2(x+step, 0))
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	if maxDiff > 0.1 {
		t.Errorf("max difference between adjacent samples = %f, expected < 0.1", maxDiff)
	}
}
