package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
	"github.com/OCharnyshevich/voxelworld/pkg/world/mesh"
)

func quadMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2, 2, 3, 0},
	}
}

func TestRecorderSpawnAndRemove(t *testing.T) {
	r := NewRecorder()
	key := KeyOf(chunk.Pos{X: 2, Z: -1}, 3)
	if key != (SectionKey{X: 2, Z: -1, Section: 3}) {
		t.Fatalf("KeyOf = %+v", key)
	}

	m := quadMesh()
	col, err := mesh.Collider(m)
	if err != nil {
		t.Fatalf("Collider: %v", err)
	}
	h1 := r.SpawnOpaque(key, m, col)
	h2 := r.SpawnWater(key, m)
	if h1 == h2 {
		t.Fatal("handles must be unique")
	}

	s := r.Stats()
	if s.Opaque != 1 || s.Water != 1 || s.Colliders != 1 || s.Live != 2 || s.Vertices != 8 {
		t.Fatalf("stats after spawn = %+v", s)
	}
	if got := r.Handles(key); len(got) != 2 {
		t.Fatalf("Handles = %v, want 2", got)
	}

	r.Remove(key, []Handle{h1, h2, 999})
	s = r.Stats()
	if s.Live != 0 || s.Vertices != 0 || s.Removed != 2 {
		t.Fatalf("stats after remove = %+v", s)
	}
	if r.Keys() != 0 {
		t.Fatalf("Keys = %d, want 0", r.Keys())
	}
}

func TestRecorderOpaqueWithoutCollider(t *testing.T) {
	r := NewRecorder()
	r.SpawnOpaque(SectionKey{}, quadMesh(), nil)
	if s := r.Stats(); s.Colliders != 0 || s.Opaque != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestRemoveAllGroupsBySection(t *testing.T) {
	r := NewRecorder()
	a := SectionKey{Section: 1}
	b := SectionKey{Section: 2}
	spawned := []Spawned{
		{Key: a, Handle: r.SpawnOpaque(a, quadMesh(), nil)},
		{Key: b, Handle: r.SpawnOpaque(b, quadMesh(), nil)},
		{Key: a, Handle: r.SpawnWater(a, quadMesh())},
	}
	RemoveAll(r, spawned)
	if s := r.Stats(); s.Live != 0 || s.Removed != 3 {
		t.Fatalf("stats = %+v", s)
	}
	if r.Keys() != 0 {
		t.Fatalf("Keys = %d, want 0", r.Keys())
	}
}
