// Package stream keeps the chunks around a moving viewer resident: it
// schedules loads and generation on a bounded worker pool, applies the
// results, evicts what falls out of range and rebuilds section meshes.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/alitto/pond/v2"

	"github.com/OCharnyshevich/voxelworld/internal/engine/persist"
	"github.com/OCharnyshevich/voxelworld/internal/engine/render"
	"github.com/OCharnyshevich/voxelworld/internal/engine/world"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
	"github.com/OCharnyshevich/voxelworld/pkg/world/gen"
	"github.com/OCharnyshevich/voxelworld/pkg/world/mesh"
)

// Defaults used when Options leave a field at zero.
const (
	DefaultViewDistance    = 15
	DefaultMaxConcurrent   = 5
	DefaultMeshConcurrency = 5
	DefaultWorldSize       = 1000
)

// Source tells where a resident chunk came from.
type Source int

const (
	SourceLoaded Source = iota
	SourceGenerated
)

func (s Source) String() string {
	if s == SourceLoaded {
		return "loaded"
	}
	return "generated"
}

// Options configure a Scheduler.
type Options struct {
	ViewDistance    int // Chebyshev radius in chunks
	WorldSize       int // chunks per side; negative disables the bound
	MaxConcurrent   int // load/generate tasks in flight
	MeshConcurrency int // mesh tasks in flight
	// SaveGenerated marks freshly generated chunks dirty so they are saved
	// on eviction.
	SaveGenerated bool
	Atlas         *mesh.Atlas
}

func (o Options) withDefaults() Options {
	if o.ViewDistance <= 0 {
		o.ViewDistance = DefaultViewDistance
	}
	if o.WorldSize == 0 {
		o.WorldSize = DefaultWorldSize
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.MeshConcurrency <= 0 {
		o.MeshConcurrency = DefaultMeshConcurrency
	}
	if o.Atlas == nil {
		o.Atlas = mesh.DefaultAtlas()
	}
	return o
}

type loadResult struct {
	chunk  *chunk.Chunk
	source Source
}

// pending is a submitted task observed without blocking.
type pending[R any] struct {
	done <-chan struct{}
	wait func() (R, error)
}

// saveBatch is one background save of evicted dirty chunks.
type saveBatch struct {
	chunks []*chunk.Chunk
	done   <-chan struct{}
	wait   func() error
}

// Scheduler drives chunk residency. Tick, Remesh and Close must be called
// from a single goroutine; only task bodies run on the pools.
type Scheduler struct {
	opts  Options
	log   *slog.Logger
	world *world.World
	gen   gen.Generator
	store persist.Adapter // may be nil
	sink  render.Sink

	ctx    context.Context
	cancel context.CancelFunc

	loads  pond.ResultPool[loadResult]
	meshes pond.ResultPool[[]mesh.SectionMesh]
	saves  pond.Pool

	center chunk.Pos

	toLoad    *Queue[chunk.Pos]
	loaded    *Queue[*chunk.Chunk]
	generated *Queue[*chunk.Chunk]
	toRemesh  *Queue[chunk.Pos]

	loading     map[chunk.Pos]pending[loadResult]
	meshing     map[chunk.Pos]pending[[]mesh.SectionMesh]
	remeshAgain map[chunk.Pos]struct{}

	// saving holds evicted chunks whose save has not finished yet.
	saving  map[chunk.Pos]*chunk.Chunk
	batches []saveBatch
	saveErr []error
}

// New creates a Scheduler. store may be nil, in which case every chunk is
// generated.
func New(w *world.World, g gen.Generator, store persist.Adapter, sink render.Sink, opts Options, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		opts:        opts,
		log:         log,
		world:       w,
		gen:         g,
		store:       store,
		sink:        sink,
		ctx:         ctx,
		cancel:      cancel,
		loads:       pond.NewResultPool[loadResult](opts.MaxConcurrent, pond.WithContext(ctx)),
		meshes:      pond.NewResultPool[[]mesh.SectionMesh](opts.MeshConcurrency, pond.WithContext(ctx)),
		saves:       pond.NewPool(1),
		center:      chunk.Pos{X: math.MinInt, Z: math.MinInt},
		toLoad:      NewQueue[chunk.Pos](),
		loaded:      NewQueue[*chunk.Chunk](),
		generated:   NewQueue[*chunk.Chunk](),
		toRemesh:    NewQueue[chunk.Pos](),
		loading:     make(map[chunk.Pos]pending[loadResult]),
		meshing:     make(map[chunk.Pos]pending[[]mesh.SectionMesh]),
		remeshAgain: make(map[chunk.Pos]struct{}),
		saving:      make(map[chunk.Pos]*chunk.Chunk),
	}
}

// Tick runs one coordination step for a viewer at world position (x, z).
func (s *Scheduler) Tick(x, z float64) {
	if pos := chunk.PosFromWorld(x, z); pos != s.center {
		s.center = pos
		s.evict()
		s.scan()
	}
	s.pollSaves()
	s.dispatchLoads()
	s.pollLoads()
	s.applyChunks()
	s.pollMeshes()
	s.dispatchMeshes()
}

// Remesh requests new geometry for the given resident chunks.
func (s *Scheduler) Remesh(positions ...chunk.Pos) {
	for _, pos := range positions {
		if s.world.Has(pos) {
			s.toRemesh.Push(pos)
		}
	}
}

// Center returns the chunk the viewer was in at the last tick.
func (s *Scheduler) Center() chunk.Pos { return s.center }

// Queued returns the number of coordinates waiting for a load slot.
func (s *Scheduler) Queued() int { return s.toLoad.Len() }

// InFlight returns the number of running load/generate tasks.
func (s *Scheduler) InFlight() int { return len(s.loading) }

// MeshInFlight returns the number of running mesh tasks.
func (s *Scheduler) MeshInFlight() int { return len(s.meshing) }

// Idle reports whether no work is queued, running or awaiting application.
func (s *Scheduler) Idle() bool {
	return s.toLoad.Len() == 0 && len(s.loading) == 0 &&
		s.loaded.Len() == 0 && s.generated.Len() == 0 &&
		s.toRemesh.Len() == 0 && len(s.meshing) == 0 &&
		len(s.batches) == 0
}

// SavesInFlight returns the number of evicted chunks still being saved.
func (s *Scheduler) SavesInFlight() int { return len(s.saving) }

// WaitSaves blocks until every background save has finished and returns
// the errors of saves that failed since the last call.
func (s *Scheduler) WaitSaves() error {
	for _, b := range s.batches {
		<-b.done
	}
	s.pollSaves()
	err := errors.Join(s.saveErr...)
	s.saveErr = nil
	return err
}

// Close stops the pools. Loads and meshes are cancelled; pending saves
// still run to completion.
func (s *Scheduler) Close() {
	s.cancel()
	s.loads.StopAndWait()
	s.meshes.StopAndWait()
	s.saves.StopAndWait()
}

func (s *Scheduler) inRange(pos chunk.Pos) bool {
	return pos.Chebyshev(s.center) <= s.opts.ViewDistance
}

func (s *Scheduler) inWorld(pos chunk.Pos) bool {
	if s.opts.WorldSize < 0 {
		return true
	}
	half := s.opts.WorldSize / 2
	return pos.X >= -half && pos.X < s.opts.WorldSize-half &&
		pos.Z >= -half && pos.Z < s.opts.WorldSize-half
}

// scan enqueues every in-range coordinate that is not resident, queued or
// in flight, nearest rings first.
func (s *Scheduler) scan() {
	s.toLoad.Filter(s.inRange)

	r := s.opts.ViewDistance
	for d := 0; d <= r; d++ {
		for dx := -d; dx <= d; dx++ {
			for dz := -d; dz <= d; dz++ {
				if max(abs(dx), abs(dz)) != d {
					continue
				}
				pos := chunk.Pos{X: s.center.X + dx, Z: s.center.Z + dz}
				if !s.inWorld(pos) || s.world.Has(pos) {
					continue
				}
				if _, ok := s.loading[pos]; ok {
					continue
				}
				s.toLoad.Push(pos)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// evict drops resident chunks outside the view distance, hands their
// geometry back to the sink, saves dirty ones in the background and
// remeshes the resident chunks that bordered them.
func (s *Scheduler) evict() {
	var dirty []*chunk.Chunk
	var border []chunk.Pos
	for _, pos := range s.world.Positions() {
		if s.inRange(pos) {
			continue
		}
		if s.store != nil && s.world.IsDirty(pos) {
			if c, ok := s.world.Chunk(pos); ok {
				dirty = append(dirty, c)
			}
		}
		render.RemoveAll(s.sink, s.world.Remove(pos))
		border = append(border, neighbors(pos)...)
		s.log.Debug("evicted chunk", "x", pos.X, "z", pos.Z)
	}
	if len(dirty) > 0 {
		s.saveAsync(dirty)
	}
	s.Remesh(border...)
}

func neighbors(p chunk.Pos) []chunk.Pos {
	return []chunk.Pos{
		{X: p.X, Z: p.Z - 1},
		{X: p.X, Z: p.Z + 1},
		{X: p.X + 1, Z: p.Z},
		{X: p.X - 1, Z: p.Z},
	}
}

// saveAsync writes evicted chunks on the save pool. The chunks are no
// longer reachable from the world, so the task owns them.
func (s *Scheduler) saveAsync(cs []*chunk.Chunk) {
	ctx := context.WithoutCancel(s.ctx)
	task := s.saves.SubmitErr(func() error {
		return s.store.SaveAll(ctx, cs)
	})
	for _, c := range cs {
		s.saving[c.Pos] = c
	}
	s.batches = append(s.batches, saveBatch{chunks: cs, done: task.Done(), wait: task.Wait})
}

func (s *Scheduler) pollSaves() {
	kept := s.batches[:0]
	for _, b := range s.batches {
		select {
		case <-b.done:
		default:
			kept = append(kept, b)
			continue
		}
		if err := b.wait(); err != nil {
			s.log.Error("save evicted chunks", "chunks", len(b.chunks), "error", err)
			s.saveErr = append(s.saveErr, err)
		}
		for _, c := range b.chunks {
			if s.saving[c.Pos] == c {
				delete(s.saving, c.Pos)
			}
		}
	}
	clear(s.batches[len(kept):])
	s.batches = kept
}

func (s *Scheduler) dispatchLoads() {
	for len(s.loading) < s.opts.MaxConcurrent {
		pos, ok := s.toLoad.Pop()
		if !ok {
			return
		}
		if s.world.Has(pos) {
			continue
		}
		// Reading the store now could race the pending save.
		if c, ok := s.saving[pos]; ok {
			s.loaded.Push(c.Clone())
			continue
		}
		task := s.loads.SubmitErr(func() (loadResult, error) {
			return s.load(pos)
		})
		s.loading[pos] = pending[loadResult]{done: task.Done(), wait: task.Wait}
	}
}

// load runs on the pool. Any load failure falls back to generation.
func (s *Scheduler) load(pos chunk.Pos) (loadResult, error) {
	if s.store != nil {
		c, err := s.store.Load(s.ctx, pos)
		switch {
		case err == nil && !c.Empty():
			return loadResult{chunk: c, source: SourceLoaded}, nil
		case err == nil:
			s.log.Debug("saved chunk is empty, generating", "x", pos.X, "z", pos.Z)
		case errors.Is(err, persist.ErrNotFound):
		case errors.Is(err, context.Canceled):
			return loadResult{}, err
		default:
			s.log.Warn("load chunk failed, generating", "x", pos.X, "z", pos.Z, "error", err)
		}
	}
	if err := s.ctx.Err(); err != nil {
		return loadResult{}, err
	}
	return loadResult{chunk: s.gen.Generate(pos.X, pos.Z), source: SourceGenerated}, nil
}

func (s *Scheduler) pollLoads() {
	for pos, p := range s.loading {
		select {
		case <-p.done:
		default:
			continue
		}
		delete(s.loading, pos)

		res, err := p.wait()
		if err != nil {
			s.log.Error("chunk task failed", "x", pos.X, "z", pos.Z, "error", err)
			continue
		}
		if res.source == SourceLoaded {
			s.loaded.Push(res.chunk)
		} else {
			s.generated.Push(res.chunk)
		}
	}
}

func (s *Scheduler) applyChunks() {
	s.loaded.Drain(func(c *chunk.Chunk) { s.apply(c, SourceLoaded) })
	s.generated.Drain(func(c *chunk.Chunk) { s.apply(c, SourceGenerated) })
}

func (s *Scheduler) apply(c *chunk.Chunk, src Source) {
	s.world.Insert(c)
	if src == SourceGenerated && s.opts.SaveGenerated {
		s.world.MarkDirty(c.Pos)
	}
	// Restored while its save is pending; keep it dirty in case that fails.
	if _, ok := s.saving[c.Pos]; ok {
		s.world.MarkDirty(c.Pos)
	}
	s.log.Debug("chunk resident", "x", c.Pos.X, "z", c.Pos.Z, "source", src)

	s.Remesh(c.Pos)
	s.Remesh(neighbors(c.Pos)...)
}

func (s *Scheduler) pollMeshes() {
	for pos, p := range s.meshing {
		select {
		case <-p.done:
		default:
			continue
		}
		delete(s.meshing, pos)

		sections, err := p.wait()
		if err != nil {
			s.log.Error("mesh task failed", "x", pos.X, "z", pos.Z, "error", err)
		} else if s.world.Has(pos) {
			s.spawn(pos, sections)
		}

		if _, again := s.remeshAgain[pos]; again {
			delete(s.remeshAgain, pos)
			s.Remesh(pos)
		}
	}
}

func (s *Scheduler) dispatchMeshes() {
	for len(s.meshing) < s.opts.MeshConcurrency {
		pos, ok := s.toRemesh.Pop()
		if !ok {
			return
		}
		if _, busy := s.meshing[pos]; busy {
			s.remeshAgain[pos] = struct{}{}
			continue
		}
		n, ok := s.world.Neighborhood(pos)
		if !ok {
			continue
		}
		atlas := s.opts.Atlas
		task := s.meshes.Submit(func() []mesh.SectionMesh {
			return mesh.BuildChunk(n, atlas)
		})
		s.meshing[pos] = pending[[]mesh.SectionMesh]{done: task.Done(), wait: task.Wait}
	}
}

// spawn replaces the geometry of pos with freshly built section meshes.
func (s *Scheduler) spawn(pos chunk.Pos, sections []mesh.SectionMesh) {
	render.RemoveAll(s.sink, s.world.SetSpawned(pos, nil))

	var spawned []render.Spawned
	for _, sm := range sections {
		key := render.KeyOf(pos, sm.Section)
		if sm.Opaque != nil {
			collider, err := mesh.Collider(sm.Opaque)
			if err != nil {
				s.log.Warn("no collider for section", "x", pos.X, "z", pos.Z, "section", sm.Section, "error", err)
			}
			spawned = append(spawned, render.Spawned{Key: key, Handle: s.sink.SpawnOpaque(key, sm.Opaque, collider)})
		}
		if sm.Water != nil {
			spawned = append(spawned, render.Spawned{Key: key, Handle: s.sink.SpawnWater(key, sm.Water)})
		}
	}
	s.world.SetSpawned(pos, spawned)
}
