package mesh

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerateMesh is returned when a mesh has no triangle with area.
var ErrDegenerateMesh = errors.New("mesh has no usable triangles")

// TriMesh is static collision geometry.
type TriMesh struct {
	Vertices  []mgl32.Vec3
	Triangles [][3]uint32
}

// Collider derives collision triangles from m, skipping zero-area ones.
func Collider(m *Mesh) (*TriMesh, error) {
	if m.Empty() {
		return nil, ErrDegenerateMesh
	}

	tm := &TriMesh{Vertices: m.Positions}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(max(a, b, c)) >= len(m.Positions) {
			continue
		}
		pa, pb, pc := m.Positions[a], m.Positions[b], m.Positions[c]
		if pb.Sub(pa).Cross(pc.Sub(pa)).Len() == 0 {
			continue
		}
		tm.Triangles = append(tm.Triangles, [3]uint32{a, b, c})
	}
	if len(tm.Triangles) == 0 {
		return nil, ErrDegenerateMesh
	}
	return tm, nil
}
