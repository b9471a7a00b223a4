// Package render defines the boundary between the world pipeline and the
// rendering and physics backends.
package render

import (
	"sync"

	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
	"github.com/OCharnyshevich/voxelworld/pkg/world/mesh"
)

// SectionKey identifies the geometry of one chunk section.
type SectionKey struct {
	X, Z    int
	Section int
}

// KeyOf returns the key for section i of the chunk at pos.
func KeyOf(pos chunk.Pos, i int) SectionKey {
	return SectionKey{X: pos.X, Z: pos.Z, Section: i}
}

// Handle is an opaque reference to spawned geometry.
type Handle uint64

// Spawned pairs a handle with the section it was spawned for.
type Spawned struct {
	Key    SectionKey
	Handle Handle
}

// Sink receives section geometry. Implementations must be safe for use
// from the scheduler goroutine.
type Sink interface {
	SpawnOpaque(key SectionKey, m *mesh.Mesh, collider *mesh.TriMesh) Handle
	SpawnWater(key SectionKey, m *mesh.Mesh) Handle
	Remove(key SectionKey, handles []Handle)
}

// RemoveAll hands spawned geometry back to sink, one Remove call per section.
func RemoveAll(sink Sink, spawned []Spawned) {
	var keys []SectionKey
	byKey := make(map[SectionKey][]Handle)
	for _, sp := range spawned {
		if _, ok := byKey[sp.Key]; !ok {
			keys = append(keys, sp.Key)
		}
		byKey[sp.Key] = append(byKey[sp.Key], sp.Handle)
	}
	for _, k := range keys {
		sink.Remove(k, byKey[k])
	}
}

// Stats are the running totals of a Recorder.
type Stats struct {
	Opaque    int // opaque meshes spawned
	Water     int // water meshes spawned
	Colliders int
	Removed   int // handles removed
	Vertices  int // vertices currently live
	Live      int // handles currently live
}

// Recorder is an in-memory Sink that keeps track of live geometry.
type Recorder struct {
	mu    sync.Mutex
	next  Handle
	live  map[Handle]int // vertex count
	keys  map[SectionKey][]Handle
	stats Stats
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		live: make(map[Handle]int),
		keys: make(map[SectionKey][]Handle),
	}
}

func (r *Recorder) spawn(key SectionKey, m *mesh.Mesh) Handle {
	r.next++
	h := r.next
	n := m.VertexCount()
	r.live[h] = n
	r.keys[key] = append(r.keys[key], h)
	r.stats.Vertices += n
	r.stats.Live++
	return h
}

// SpawnOpaque records an opaque mesh and its optional collider.
func (r *Recorder) SpawnOpaque(key SectionKey, m *mesh.Mesh, collider *mesh.TriMesh) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Opaque++
	if collider != nil {
		r.stats.Colliders++
	}
	return r.spawn(key, m)
}

// SpawnWater records a water mesh.
func (r *Recorder) SpawnWater(key SectionKey, m *mesh.Mesh) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Water++
	return r.spawn(key, m)
}

// Remove forgets the given handles. Unknown handles are ignored.
func (r *Recorder) Remove(key SectionKey, handles []Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range handles {
		n, ok := r.live[h]
		if !ok {
			continue
		}
		delete(r.live, h)
		r.stats.Vertices -= n
		r.stats.Live--
		r.stats.Removed++
	}

	kept := r.keys[key][:0]
	for _, h := range r.keys[key] {
		if _, ok := r.live[h]; ok {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		delete(r.keys, key)
	} else {
		r.keys[key] = kept
	}
}

// Stats returns a snapshot of the running totals.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Handles returns the live handles spawned for key.
func (r *Recorder) Handles(key SectionKey) []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Handle(nil), r.keys[key]...)
}

// Keys returns the number of sections with live geometry.
func (r *Recorder) Keys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
