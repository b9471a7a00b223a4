package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OCharnyshevich/voxelworld/internal/engine"
	"github.com/OCharnyshevich/voxelworld/internal/engine/config"
	"github.com/OCharnyshevich/voxelworld/internal/engine/render"
	"github.com/OCharnyshevich/voxelworld/internal/engine/storage"
)

// walker moves the viewer in a straight line, one step per tick.
type walker struct {
	x, z   float64
	dx, dz float64
}

func (w *walker) Position() (float64, float64) {
	w.x += w.dx
	w.z += w.dz
	return w.x, w.z
}

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "config file (default <dir>/config.yaml)")
	writeConfig := flag.Bool("write-config", false, "write the effective config to <dir>/config.yaml")
	duration := flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	speed := flag.Float64("speed", 0.5, "viewer speed in blocks per tick")
	heading := flag.Float64("heading", 0, "viewer heading in degrees, 0 = +X")

	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.IntVar(&cfg.ViewDistance, "view-distance", cfg.ViewDistance, "view distance in chunks")
	flag.IntVar(&cfg.WorldSize, "world-size", cfg.WorldSize, "world size in chunks per side (negative = unbounded)")
	flag.IntVar(&cfg.MaxConcurrentTasks, "max-tasks", cfg.MaxConcurrentTasks, "concurrent load/generate tasks")
	flag.IntVar(&cfg.MeshConcurrency, "mesh-tasks", cfg.MeshConcurrency, "concurrent mesh tasks")
	flag.IntVar(&cfg.AnchorCount, "anchors", cfg.AnchorCount, "number of climate anchors")
	flag.Float64Var(&cfg.AnchorArea, "anchor-area", cfg.AnchorArea, "side of the square anchors are scattered over, in blocks")
	flag.StringVar(&cfg.Noise, "noise", cfg.Noise, "noise source: perlin, simplex or opensimplex")
	flag.StringVar(&cfg.Generator, "generator", cfg.Generator, "generator: biome or flat")
	flag.IntVar(&cfg.SmoothingIterations, "smoothing", cfg.SmoothingIterations, "slope smoothing passes")
	flag.IntVar(&cfg.MaxSlope, "max-slope", cfg.MaxSlope, "largest height step between neighbors")
	flag.StringVar(&cfg.SaveDir, "dir", cfg.SaveDir, "world save directory")
	flag.StringVar(&cfg.Storage, "storage", cfg.Storage, "chunk storage: region or bolt")
	flag.BoolVar(&cfg.Index, "index", cfg.Index, "keep a sqlite index of saved chunks")
	flag.BoolVar(&cfg.SaveGenerated, "save-generated", cfg.SaveGenerated, "save generated chunks on eviction")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "scheduler tick interval")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fromFile, err := loadConfig(*configPath, cfg.SaveDir)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if fromFile != nil {
		config.Merge(cfg, fromFile, explicit)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("parse log level", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *duration)
		defer stop()
	}

	rec := render.NewRecorder()
	e, err := engine.New(ctx, cfg, log, engine.WithSink(rec))
	if err != nil {
		log.Error("start engine", "error", err)
		os.Exit(1)
	}

	if *writeConfig {
		store, err := storage.New(cfg.SaveDir, log)
		if err == nil {
			err = store.SaveConfig(cfg)
		}
		if err != nil {
			log.Error("write config", "error", err)
		}
	}

	rad := *heading * math.Pi / 180
	viewer := &walker{
		x:  e.Level().ViewerX,
		z:  e.Level().ViewerZ,
		dx: *speed * math.Cos(rad),
		dz: *speed * math.Sin(rad),
	}

	start := time.Now()
	if err := e.Run(ctx, viewer); err != nil {
		log.Error("engine error", "error", err)
		os.Exit(1)
	}

	stats := rec.Stats()
	bx, bz := int(math.Floor(viewer.x)), int(math.Floor(viewer.z))
	log.Info("engine stopped",
		"ran", time.Since(start).Round(time.Millisecond),
		"viewerX", viewer.x,
		"viewerZ", viewer.z,
		"biome", e.Generator().BiomeAt(bx, bz),
		"surface", e.Generator().HeightAt(bx, bz),
		"opaqueMeshes", stats.Opaque,
		"waterMeshes", stats.Water,
		"liveVertices", stats.Vertices,
	)
}

// loadConfig reads an explicit config file, or the save's own config.yaml
// when path is empty. A save without one yields nil.
func loadConfig(path, saveDir string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	store, err := storage.New(saveDir, slog.Default())
	if err != nil {
		return nil, err
	}
	return store.LoadConfig()
}
