// Package engine wires the world pipeline together: level storage, terrain
// generation, persistence, the resident world and the streaming scheduler.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/OCharnyshevich/voxelworld/internal/engine/config"
	"github.com/OCharnyshevich/voxelworld/internal/engine/persist"
	"github.com/OCharnyshevich/voxelworld/internal/engine/render"
	"github.com/OCharnyshevich/voxelworld/internal/engine/storage"
	"github.com/OCharnyshevich/voxelworld/internal/engine/stream"
	"github.com/OCharnyshevich/voxelworld/internal/engine/world"
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
	"github.com/OCharnyshevich/voxelworld/pkg/world/gen"
)

const editBuffer = 256

// ErrEditsFull is returned by Edit when the pending edit buffer is full.
var ErrEditsFull = errors.New("edit queue full")

// Edit sets one block at world coordinates.
type Edit struct {
	X, Y, Z int
	Block   block.Type
}

// Viewer reports the position the world streams around.
type Viewer interface {
	Position() (x, z float64)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSink sends geometry to sink instead of an in-memory Recorder.
func WithSink(sink render.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithAdapter replaces the configured persistence backend.
func WithAdapter(a persist.Adapter) Option {
	return func(e *Engine) { e.persist = a }
}

// Engine owns every long-lived piece of the pipeline.
type Engine struct {
	cfg   *config.Config
	log   *slog.Logger
	store *storage.Storage
	level *storage.Level

	biomes    *gen.BiomeMap
	generator gen.Generator
	persist   persist.Adapter
	world     *world.World
	sink      render.Sink
	stream    *stream.Scheduler

	edits   chan Edit
	viewerX float64
	viewerZ float64
}

// New opens the save at cfg.SaveDir and builds the pipeline.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		log:   log,
		world: world.New(),
		edits: make(chan Edit, editBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}

	store, err := storage.New(cfg.SaveDir, log)
	if err != nil {
		return nil, err
	}
	e.store = store

	e.level, err = store.OpenLevel(cfg)
	if err != nil {
		return nil, err
	}
	e.viewerX, e.viewerZ = e.level.ViewerX, e.level.ViewerZ

	noise, err := gen.NewNoise(e.level.Noise, e.level.Seed)
	if err != nil {
		return nil, err
	}
	if e.level.Generator != gen.TypeFlat {
		start := time.Now()
		e.biomes = gen.NewBiomeMap(e.level.Seed, cfg.AnchorCount, cfg.AnchorArea, noise)
		log.Info("biome map ready", "anchors", cfg.AnchorCount, "took", time.Since(start))
	}
	e.generator, err = gen.New(e.level.Generator, e.biomes, noise, gen.Options{
		SmoothingIterations: cfg.SmoothingIterations,
		MaxSlope:            cfg.MaxSlope,
	})
	if err != nil {
		return nil, err
	}

	if e.persist == nil {
		e.persist, err = persist.Open(ctx, persist.Options{
			Dir:     cfg.SaveDir,
			Storage: cfg.Storage,
			Index:   cfg.Index,
			Log:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("open persistence: %w", err)
		}
	}
	if e.sink == nil {
		e.sink = render.NewRecorder()
	}

	atlas, err := cfg.BuildAtlas()
	if err != nil {
		e.persist.Close()
		return nil, err
	}
	e.stream = stream.New(e.world, e.generator, e.persist, e.sink, stream.Options{
		ViewDistance:    cfg.ViewDistance,
		WorldSize:       cfg.WorldSize,
		MaxConcurrent:   cfg.MaxConcurrentTasks,
		MeshConcurrency: cfg.MeshConcurrency,
		SaveGenerated:   cfg.SaveGenerated,
		Atlas:           atlas,
	}, log)

	vx, vz := int(math.Floor(e.viewerX)), int(math.Floor(e.viewerZ))
	log.Info("engine ready",
		"level", e.level.ID,
		"seed", e.level.Seed,
		"generator", e.level.Generator,
		"noise", e.level.Noise,
		"viewDistance", cfg.ViewDistance,
		"storage", cfg.Storage,
		"spawnBiome", e.generator.BiomeAt(vx, vz),
		"spawnHeight", e.generator.HeightAt(vx, vz),
	)
	return e, nil
}

// World returns the resident chunk table.
func (e *Engine) World() *world.World { return e.world }

// Level returns the open level.
func (e *Engine) Level() *storage.Level { return e.level }

// Scheduler returns the streaming scheduler.
func (e *Engine) Scheduler() *stream.Scheduler { return e.stream }

// Sink returns the geometry sink.
func (e *Engine) Sink() render.Sink { return e.sink }

// Generator returns the terrain generator.
func (e *Engine) Generator() gen.Generator { return e.generator }

// Edit queues a block change for the next tick. It is safe to call from
// any goroutine.
func (e *Engine) Edit(ed Edit) error {
	select {
	case e.edits <- ed:
		return nil
	default:
		return ErrEditsFull
	}
}

// Tick applies pending edits and runs one scheduler step for a viewer at
// (x, z).
func (e *Engine) Tick(x, z float64) {
	e.viewerX, e.viewerZ = x, z
	for range len(e.edits) {
		e.applyEdit(<-e.edits)
	}
	e.stream.Tick(x, z)
}

func (e *Engine) applyEdit(ed Edit) {
	pos, ok := e.world.SetBlock(ed.X, ed.Y, ed.Z, ed.Block)
	if !ok {
		e.log.Warn("edit outside resident world dropped", "x", ed.X, "y", ed.Y, "z", ed.Z)
		return
	}

	remesh := []chunk.Pos{pos}
	lx, lz := ed.X-pos.X*chunk.Size, ed.Z-pos.Z*chunk.Size
	if lx == 0 {
		remesh = append(remesh, chunk.Pos{X: pos.X - 1, Z: pos.Z})
	}
	if lx == chunk.Size-1 {
		remesh = append(remesh, chunk.Pos{X: pos.X + 1, Z: pos.Z})
	}
	if lz == 0 {
		remesh = append(remesh, chunk.Pos{X: pos.X, Z: pos.Z - 1})
	}
	if lz == chunk.Size-1 {
		remesh = append(remesh, chunk.Pos{X: pos.X, Z: pos.Z + 1})
	}
	e.stream.Remesh(remesh...)
}

// Run ticks every tick_interval around viewer until ctx is done, then
// closes the engine.
func (e *Engine) Run(ctx context.Context, viewer Viewer) error {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine shutting down")
			return e.Close()
		case <-ticker.C:
			x, z := viewer.Position()
			e.Tick(x, z)
		}
	}
}

// Flush waits for background saves of evicted chunks, then saves every
// dirty resident chunk.
func (e *Engine) Flush(ctx context.Context) error {
	var evictErr error
	if err := e.stream.WaitSaves(); err != nil {
		evictErr = fmt.Errorf("save evicted chunks: %w", err)
	}
	dirty := e.world.Dirty()
	if len(dirty) == 0 {
		return evictErr
	}
	if err := e.persist.SaveAll(ctx, dirty); err != nil {
		return errors.Join(evictErr, fmt.Errorf("flush chunks: %w", err))
	}
	positions := make([]chunk.Pos, len(dirty))
	for i, c := range dirty {
		positions[i] = c.Pos
	}
	e.world.ClearDirty(positions...)
	e.log.Info("flushed chunks", "count", len(dirty))
	return evictErr
}

// Close stops the scheduler, flushes dirty chunks, records the viewer in
// the level and closes persistence.
func (e *Engine) Close() error {
	e.stream.Close()

	var errs []error
	if err := e.Flush(context.Background()); err != nil {
		errs = append(errs, err)
	}
	e.level.ViewerX, e.level.ViewerZ = e.viewerX, e.viewerZ
	if err := e.store.SaveLevel(e.level); err != nil {
		errs = append(errs, fmt.Errorf("save level: %w", err))
	}
	if err := e.persist.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close persistence: %w", err))
	}
	return errors.Join(errs...)
}
