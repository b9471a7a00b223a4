package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxelworld/internal/engine/persist"
	"github.com/OCharnyshevich/voxelworld/internal/engine/storage"
)

func main() {
	var (
		src   = flag.String("src", "", "world save or atlas source (any go-getter URL)")
		out   = flag.String("o", "./world", "output dir path")
		clean = flag.Bool("clean", false, "remove the output dir before downloading")
		index = flag.Bool("index", true, "build the chunk index for downloaded region files")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *src == "" {
		log.Error("source url required")
		os.Exit(2)
	}
	if *out == "" {
		log.Error("output dir path required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *clean {
		if err := os.RemoveAll(*out); err != nil {
			log.Error("clean output dir", "error", err)
			os.Exit(1)
		}
	}

	log.Info("start downloading", "src", *src, "dst", *out)

	pwd, _ := os.Getwd()
	client := &get.Client{
		Ctx:  ctx,
		Src:  *src,
		Dst:  *out,
		Pwd:  pwd,
		Mode: get.ClientModeAny,
	}
	if err := client.Get(); err != nil {
		log.Error("download", "error", err)
		os.Exit(1)
	}

	log.Info("done downloading", "dst", *out)

	store, err := storage.New(*out, log)
	if err != nil {
		log.Error("open save", "error", err)
		os.Exit(1)
	}
	lvl, err := store.LoadLevel()
	if err != nil {
		log.Error("read level", "error", err)
		os.Exit(1)
	}
	if lvl == nil {
		log.Info("no level.json found, assuming atlas or partial save")
		return
	}
	log.Info("fetched level", "id", lvl.ID, "seed", lvl.Seed, "generator", lvl.Generator)

	if !*index {
		return
	}
	ix, err := persist.OpenIndex(filepath.Join(*out, "index.db"))
	if err != nil {
		log.Error("open index", "error", err)
		os.Exit(1)
	}
	defer ix.Close()

	n, err := ix.Rebuild(ctx, filepath.Join(*out, "region"))
	if err != nil {
		log.Error("index region files", "error", err)
		os.Exit(1)
	}
	log.Info("indexed chunks", "count", n)
}
