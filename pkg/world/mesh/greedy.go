// Package mesh turns chunk sections into merged, textured face geometry.
package mesh

import (
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// Lookup returns the block at chunk-local coordinates. x and z may step one
// block outside the chunk to reach neighbors; y outside the world is Air.
type Lookup func(x, y, z int) block.Type

// Quad is a merged rectangle of faces sharing a block type and direction.
// X, Y, Z are section-local coordinates of the block at the rectangle's
// minimum corner. Width runs along the direction's u axis, Height along v.
type Quad struct {
	Dir           Direction
	Type          block.Type
	X, Y, Z       int
	Width, Height int
}

// Exposed reports whether a face of cur is visible against neighbor. Water
// shows against anything that is not water; other blocks show against air
// and water only.
func Exposed(cur, neighbor block.Type) bool {
	switch cur {
	case block.Air:
		return false
	case block.Water:
		return neighbor != block.Water
	default:
		return neighbor == block.Air || neighbor == block.Water
	}
}

// Greedy builds the visible faces of section sectionIndex, merged into
// maximal rectangles per layer. Water faces are returned separately.
func Greedy(sec *chunk.Section, sectionIndex int, lookup Lookup) (opaque, water []Quad) {
	if sec == nil || sec.IsEmpty() {
		return nil, nil
	}
	baseY := sectionIndex * chunk.SectionHeight

	neighbor := func(x, y, z int) block.Type {
		if x >= 0 && x < chunk.Size && z >= 0 && z < chunk.Size && y >= 0 && y < chunk.SectionHeight {
			return sec.Block(x, y, z)
		}
		return lookup(x, baseY+y, z)
	}

	var mask [chunk.Size][chunk.Size]block.Type
	var visited [chunk.Size][chunk.Size]bool

	for _, dir := range Directions {
		dx, dy, dz := dir.Offset()
		for w := range chunk.Size {
			for v := range chunk.Size {
				for u := range chunk.Size {
					x, y, z := dir.toXYZ(u, v, w)
					cur := sec.Block(x, y, z)
					if Exposed(cur, neighbor(x+dx, y+dy, z+dz)) {
						mask[v][u] = cur
					} else {
						mask[v][u] = block.Air
					}
					visited[v][u] = false
				}
			}

			for v := range chunk.Size {
				for u := range chunk.Size {
					t := mask[v][u]
					if t == block.Air || visited[v][u] {
						continue
					}

					width := 1
					for u+width < chunk.Size && mask[v][u+width] == t && !visited[v][u+width] {
						width++
					}

					height := 1
				grow:
					for v+height < chunk.Size {
						for k := range width {
							if mask[v+height][u+k] != t || visited[v+height][u+k] {
								break grow
							}
						}
						height++
					}

					for j := range height {
						for k := range width {
							visited[v+j][u+k] = true
						}
					}

					x, y, z := dir.toXYZ(u, v, w)
					q := Quad{Dir: dir, Type: t, X: x, Y: y, Z: z, Width: width, Height: height}
					if t == block.Water {
						water = append(water, q)
					} else {
						opaque = append(opaque, q)
					}
				}
			}
		}
	}
	return opaque, water
}
