package gen

import (
	"math"

	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// heightNoiseOffset moves sampling away from the lattice origin, where
// gradient noise is zero.
const heightNoiseOffset = 1000.0

// rawHeight samples the blended height curve at one world column.
func (g *TerrainGenerator) rawHeight(wx, wz int) int {
	x, z := float64(wx), float64(wz)
	hp := g.biomes.HeightParams(x, z)

	n := g.noise.Eval2(x*hp.Frequency+heightNoiseOffset, z*hp.Frequency+heightNoiseOffset)
	h := hp.BaseHeight + ((n+1)/2)*hp.Amplitude

	return int(clamp(math.Floor(h), 0, chunk.WorldHeight-1))
}

// heightWindow returns smoothed heights for the w×d columns starting at
// (x0, z0), indexed [dx*d + dz]. Raw heights are sampled with a border of
// one column per smoothing iteration, so a column's result does not depend
// on which window it was computed in.
func (g *TerrainGenerator) heightWindow(x0, z0, w, d int) []int {
	pad := 0
	if g.opts.MaxSlope > 0 {
		pad = g.opts.SmoothingIterations
	}
	pw, pd := w+2*pad, d+2*pad

	cur := make([]int, pw*pd)
	for i := range pw {
		for j := range pd {
			cur[i*pd+j] = g.rawHeight(x0-pad+i, z0-pad+j)
		}
	}

	cur = smoothHeights(cur, pw, pd, pad, g.opts.MaxSlope)

	out := make([]int, w*d)
	for i := range w {
		for j := range d {
			out[i*d+j] = min(max(cur[(i+pad)*pd+j+pad], 0), chunk.WorldHeight-1)
		}
	}
	return out
}

// smoothHeights runs iterations slope-limiting passes over a pw×pd grid.
// Pass k updates only cells at least k+1 columns from the edge, so after n
// passes the cells n columns in are exact. Each pass reads the previous grid.
func smoothHeights(cur []int, pw, pd, iterations, maxSlope int) []int {
	next := make([]int, len(cur))
	for it := range iterations {
		copy(next, cur)
		m := it + 1
		for i := m; i < pw-m; i++ {
			for j := m; j < pd-m; j++ {
				h := cur[i*pd+j]
				surplus, deficit := 0, 0
				for _, nh := range [4]int{cur[(i-1)*pd+j], cur[(i+1)*pd+j], cur[i*pd+j-1], cur[i*pd+j+1]} {
					surplus = max(surplus, h-nh-maxSlope)
					deficit = max(deficit, nh-h-maxSlope)
				}
				next[i*pd+j] = h - (surplus+1)/2 + (deficit+1)/2
			}
		}
		cur, next = next, cur
	}
	return cur
}
