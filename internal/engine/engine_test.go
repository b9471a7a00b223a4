package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/OCharnyshevich/voxelworld/internal/engine/config"
	"github.com/OCharnyshevich/voxelworld/internal/engine/render"
	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.SaveDir = dir
	cfg.Generator = "flat"
	cfg.ViewDistance = 1
	cfg.Index = true
	cfg.TickInterval = time.Millisecond
	return cfg
}

func settle(t *testing.T, e *Engine, x, z float64) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		e.Tick(x, z)
		if e.Scheduler().Idle() && len(e.edits) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("engine did not settle")
		}
		time.Sleep(time.Millisecond)
	}
}

type fixedViewer struct{ x, z float64 }

func (v fixedViewer) Position() (float64, float64) { return v.x, v.z }

func TestEngineEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	rec := render.NewRecorder()
	e, err := New(ctx, testConfig(dir), quiet, WithSink(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	settle(t, e, 8, 8)

	if e.World().Len() != 9 {
		t.Fatalf("resident = %d, want 9", e.World().Len())
	}
	if rec.Stats().Live != 9 {
		t.Fatalf("live geometry = %+v", rec.Stats())
	}

	if err := e.Edit(Edit{X: 1, Y: 10, Z: 1, Block: block.Brick}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := e.Edit(Edit{X: 500, Y: 10, Z: 500, Block: block.Brick}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	settle(t, e, 8, 8)

	if got := e.World().BlockAt(1, 10, 1); got != block.Brick {
		t.Fatalf("edit not applied: %v", got)
	}
	if !e.World().IsDirty(chunk.Pos{}) {
		t.Fatal("edited chunk not dirty")
	}
	id := e.Level().ID

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e2, err := New(ctx, testConfig(dir), quiet)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close()

	if e2.Level().ID != id {
		t.Fatalf("level id changed: %v -> %v", id, e2.Level().ID)
	}
	if e2.Level().ViewerX != 8 || e2.Level().ViewerZ != 8 {
		t.Fatalf("viewer not recorded: %+v", e2.Level())
	}

	settle(t, e2, 8, 8)
	if got := e2.World().BlockAt(1, 10, 1); got != block.Brick {
		t.Fatalf("edit lost across restart: %v", got)
	}
	if got := e2.World().BlockAt(1, 4, 1); got != block.Grass {
		t.Fatalf("loaded chunk lost terrain: %v", got)
	}
}

func TestEngineEditBorderRemeshesNeighbor(t *testing.T) {
	e, err := New(context.Background(), testConfig(t.TempDir()), quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()
	settle(t, e, 8, 8)

	before := e.World().Spawned(chunk.Pos{X: -1, Z: 0})
	if err := e.Edit(Edit{X: 0, Y: 4, Z: 5, Block: block.Air}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	settle(t, e, 8, 8)

	after := e.World().Spawned(chunk.Pos{X: -1, Z: 0})
	if len(before) == 0 || len(after) == 0 || before[0].Handle == after[0].Handle {
		t.Fatalf("west neighbor not remeshed: %v -> %v", before, after)
	}
}

func TestEngineEditQueueFull(t *testing.T) {
	e, err := New(context.Background(), testConfig(t.TempDir()), quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	for range editBuffer {
		if err := e.Edit(Edit{}); err != nil {
			t.Fatalf("Edit: %v", err)
		}
	}
	if err := e.Edit(Edit{}); !errors.Is(err, ErrEditsFull) {
		t.Fatalf("got %v, want ErrEditsFull", err)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e, err := New(context.Background(), testConfig(t.TempDir()), quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, fixedViewer{x: 40, z: -40}) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if e.Scheduler().Center() != (chunk.Pos{X: 2, Z: -3}) {
		t.Fatalf("Center = %+v", e.Scheduler().Center())
	}
}

func TestEngineBiomeGenerator(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Generator = "biome"
	cfg.AnchorCount = 40
	cfg.AnchorArea = 1000
	cfg.ViewDistance = 1

	e, err := New(context.Background(), cfg, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()
	settle(t, e, 0, 0)

	c, ok := e.World().Chunk(chunk.Pos{})
	if !ok || c.Empty() {
		t.Fatal("origin chunk missing or empty")
	}
	if c.Block(0, 0, 0) == block.Air {
		t.Fatal("expected solid ground at the bottom of the world")
	}

	g := e.Generator()
	if g.BiomeAt(0, 0).Aquatic() {
		return
	}
	h := g.HeightAt(0, 0)
	if !c.Block(0, h, 0).IsSolid() || c.Block(0, h+1, 0) != block.Air {
		t.Fatalf("surface at HeightAt = %d: %v below %v", h, c.Block(0, h, 0), c.Block(0, h+1, 0))
	}
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.ViewDistance = 0
	if _, err := New(context.Background(), cfg, quiet); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}
