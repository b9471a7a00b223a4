package mesh

import (
	"maps"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
)

// TextureRepeat is how many blocks one atlas tile spans before repeating.
const TextureRepeat = 8

// Rect is a sub-rectangle of the texture atlas in normalized coordinates.
type Rect struct {
	U, V          float32
	Width, Height float32
}

// FullRect covers the whole atlas and is used for blocks without an entry.
var FullRect = Rect{U: 0, V: 0, Width: 1, Height: 1}

// Atlas maps block types to atlas tiles.
type Atlas struct {
	rects map[block.Type]Rect
}

// NewAtlas returns an atlas holding the given entries.
func NewAtlas(entries map[block.Type]Rect) *Atlas {
	a := &Atlas{rects: make(map[block.Type]Rect, len(entries))}
	maps.Copy(a.rects, entries)
	return a
}

// DefaultAtlas is a 2×2 grid of half-size tiles.
func DefaultAtlas() *Atlas {
	return NewAtlas(map[block.Type]Rect{
		block.Dirt:  {U: 0, V: 0, Width: 0.5, Height: 0.5},
		block.Grass: {U: 0.5, V: 0, Width: 0.5, Height: 0.5},
		block.Rock:  {U: 0, V: 0.5, Width: 0.5, Height: 0.5},
		block.Water: {U: 0.5, V: 0.5, Width: 0.5, Height: 0.5},
	})
}

// Set overrides the tile for t.
func (a *Atlas) Set(t block.Type, r Rect) {
	a.rects[t] = r
}

// Rect returns the tile for t, or FullRect when t has none.
func (a *Atlas) Rect(t block.Type) Rect {
	if a == nil {
		return FullRect
	}
	if r, ok := a.rects[t]; ok {
		return r
	}
	return FullRect
}

// uvs returns the corner coordinates of a face spanning [u, u+w]×[v, v+h]
// blocks, in top-left, top-right, bottom-right, bottom-left order. Block
// coordinates are scaled by 1/TextureRepeat² of the tile, so a face within
// a section never leaves its tile.
func (r Rect) uvs(u, v, w, h int) [4][2]float32 {
	u1 := r.U + tileOffset(u)*r.Width
	u2 := r.U + tileOffset(u+w)*r.Width
	v1 := r.V + tileOffset(v)*r.Height
	v2 := r.V + tileOffset(v+h)*r.Height
	return [4][2]float32{{u1, v2}, {u2, v2}, {u2, v1}, {u1, v1}}
}

func tileOffset(coord int) float32 {
	return float32(coord) / TextureRepeat / TextureRepeat
}

// Contains reports whether (u, v) lies within the rectangle.
func (r Rect) Contains(u, v float32) bool {
	return u >= r.U && u <= r.U+r.Width && v >= r.V && v <= r.V+r.Height
}
