package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list with per-vertex attributes.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec4
	Indices   []uint32
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

var quadIndices = [6]uint32{0, 1, 2, 2, 3, 0}

// Build realizes quads as four vertices and two counter-clockwise triangles
// each, textured from atlas.
func Build(quads []Quad, atlas *Atlas) *Mesh {
	m := &Mesh{
		Positions: make([]mgl32.Vec3, 0, len(quads)*4),
		Normals:   make([]mgl32.Vec3, 0, len(quads)*4),
		UVs:       make([]mgl32.Vec2, 0, len(quads)*4),
		Tangents:  make([]mgl32.Vec4, 0, len(quads)*4),
		Indices:   make([]uint32, 0, len(quads)*6),
	}
	for _, q := range quads {
		m.addQuad(q, atlas.Rect(q.Type))
	}
	return m
}

func (m *Mesh) addQuad(q Quad, r Rect) {
	base := uint32(len(m.Positions))
	corners := q.corners()
	uvs := q.uvs(r)
	n := q.Dir.Normal()
	t := tangent(corners, uvs, n)

	for i := range 4 {
		m.Positions = append(m.Positions, corners[i])
		m.Normals = append(m.Normals, n)
		m.UVs = append(m.UVs, uvs[i])
		m.Tangents = append(m.Tangents, t)
	}
	for _, idx := range quadIndices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// corners returns the four vertex positions, ordered so that the index
// pattern 0,1,2 2,3,0 winds counter-clockwise seen from outside.
func (q Quad) corners() [4]mgl32.Vec3 {
	x, y, z := float32(q.X), float32(q.Y), float32(q.Z)
	w, h := float32(q.Width), float32(q.Height)

	switch q.Dir {
	case Up:
		y++
		return [4]mgl32.Vec3{{x, y, z + h}, {x + w, y, z + h}, {x + w, y, z}, {x, y, z}}
	case Down:
		return [4]mgl32.Vec3{{x, y, z}, {x + w, y, z}, {x + w, y, z + h}, {x, y, z + h}}
	case North:
		return [4]mgl32.Vec3{{x + w, y, z}, {x, y, z}, {x, y + h, z}, {x + w, y + h, z}}
	case South:
		z++
		return [4]mgl32.Vec3{{x, y, z}, {x + w, y, z}, {x + w, y + h, z}, {x, y + h, z}}
	case West:
		return [4]mgl32.Vec3{{x, y, z}, {x, y, z + w}, {x, y + h, z + w}, {x, y + h, z}}
	default: // East
		x++
		return [4]mgl32.Vec3{{x, y, z + w}, {x, y, z}, {x, y + h, z}, {x, y + h, z + w}}
	}
}

func (q Quad) uvs(r Rect) [4]mgl32.Vec2 {
	var c [4][2]float32
	switch q.Dir {
	case Up, Down:
		c = r.uvs(q.X, q.Z, q.Width, q.Height)
	case North, South:
		c = r.uvs(q.X, q.Y, q.Width, q.Height)
	default:
		c = r.uvs(q.Z, q.Y, q.Width, q.Height)
	}
	return [4]mgl32.Vec2{c[0], c[1], c[2], c[3]}
}

// tangent derives the quad's tangent from the triangle (v0, v2, v1). The w
// component carries the bitangent handedness. A zero UV determinant yields
// (1, 0, 0, 1).
func tangent(p [4]mgl32.Vec3, uv [4]mgl32.Vec2, n mgl32.Vec3) mgl32.Vec4 {
	e1 := p[2].Sub(p[0])
	e2 := p[1].Sub(p[0])
	d1 := uv[2].Sub(uv[0])
	d2 := uv[1].Sub(uv[0])

	det := d1.X()*d2.Y() - d2.X()*d1.Y()
	if det == 0 || math.IsNaN(float64(det)) {
		return mgl32.Vec4{1, 0, 0, 1}
	}
	f := 1 / det

	t := e1.Mul(d2.Y()).Sub(e2.Mul(d1.Y())).Mul(f)
	b := e2.Mul(d1.X()).Sub(e1.Mul(d2.X())).Mul(f)
	if t.Len() == 0 {
		return mgl32.Vec4{1, 0, 0, 1}
	}
	t = t.Normalize()

	w := float32(1)
	if n.Cross(t).Dot(b) < 0 {
		w = -1
	}
	return t.Vec4(w)
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Indices) == 0
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Positions)
}

// Bounds returns the box enclosing every vertex. An empty mesh has a zero box.
func (m *Mesh) Bounds() AABB {
	if m.VertexCount() == 0 {
		return AABB{}
	}
	box := AABB{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		box = box.extend(p)
	}
	return box
}

func (b AABB) extend(p mgl32.Vec3) AABB {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the box enclosing both b and o.
func (b AABB) Union(o AABB) AABB {
	return b.extend(o.Min).extend(o.Max)
}

// Translate moves the box by off.
func (b AABB) Translate(off mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(off), Max: b.Max.Add(off)}
}
