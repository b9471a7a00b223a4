package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// Volume is a chunk together with read access to the blocks around it.
type Volume interface {
	Center() *chunk.Chunk
	// BlockAt takes chunk-local coordinates and may reach one block into
	// neighboring chunks.
	BlockAt(x, y, z int) block.Type
}

// SectionMesh is the geometry of one section. Water is nil when the
// section has no visible water; Opaque is nil when it has only water.
type SectionMesh struct {
	Section int
	Origin  mgl32.Vec3
	Opaque  *Mesh
	Water   *Mesh
	Bounds  AABB // world space
}

// BuildChunk meshes every section of v's center chunk that has visible faces.
func BuildChunk(v Volume, atlas *Atlas) []SectionMesh {
	c := v.Center()
	var out []SectionMesh
	for i, sec := range c.Sections {
		opaque, water := Greedy(sec, i, v.BlockAt)
		if len(opaque) == 0 && len(water) == 0 {
			continue
		}

		sm := SectionMesh{
			Section: i,
			Origin: mgl32.Vec3{
				float32(c.Pos.X * chunk.Size),
				float32(i * chunk.SectionHeight),
				float32(c.Pos.Z * chunk.Size),
			},
		}
		var box AABB
		if len(opaque) > 0 {
			sm.Opaque = Build(opaque, atlas)
			box = sm.Opaque.Bounds()
		}
		if len(water) > 0 {
			sm.Water = Build(water, atlas)
			if sm.Opaque == nil {
				box = sm.Water.Bounds()
			} else {
				box = box.Union(sm.Water.Bounds())
			}
		}
		sm.Bounds = box.Translate(sm.Origin)
		out = append(out, sm)
	}
	return out
}
