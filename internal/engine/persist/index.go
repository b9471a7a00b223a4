package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/voxelworld/pkg/world/anvil"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

// Index is a sqlite table of the chunks saved to region files, used to
// answer misses without opening region files.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chunk index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS chunks (
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			region TEXT NOT NULL,
			saved_at INTEGER NOT NULL,
			sections INTEGER NOT NULL,
			PRIMARY KEY (x, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_region ON chunks(region);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init chunk index: %w", err)
		}
	}
	return &Index{db: db}, nil
}

func sectionCount(c *chunk.Chunk) int {
	n := 0
	for _, sec := range c.Sections {
		if sec != nil {
			n++
		}
	}
	return n
}

// Record marks chunks as saved now.
func (ix *Index) Record(ctx context.Context, cs ...*chunk.Chunk) error {
	return ix.record(ctx, time.Now().Unix(), cs)
}

func (ix *Index) record(ctx context.Context, savedAt int64, cs []*chunk.Chunk) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (x, z, region, saved_at, sections)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(x, z) DO UPDATE SET region = excluded.region, saved_at = excluded.saved_at, sections = excluded.sections`)
	if err != nil {
		return fmt.Errorf("prepare index update: %w", err)
	}
	defer stmt.Close()

	for _, c := range cs {
		rx, rz := c.Pos.Region()
		if _, err := stmt.ExecContext(ctx, c.Pos.X, c.Pos.Z, anvil.FileName(rx, rz), savedAt, sectionCount(c)); err != nil {
			return fmt.Errorf("index chunk (%d,%d): %w", c.Pos.X, c.Pos.Z, err)
		}
	}
	return tx.Commit()
}

// Has reports whether pos has been saved.
func (ix *Index) Has(ctx context.Context, pos chunk.Pos) (bool, error) {
	var one int
	err := ix.db.QueryRowContext(ctx, "SELECT 1 FROM chunks WHERE x = ? AND z = ?", pos.X, pos.Z).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query chunk index: %w", err)
	}
	return true, nil
}

// Count returns the number of indexed chunks.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunk index: %w", err)
	}
	return n, nil
}

// Rebuild indexes every chunk found in the region files under dir and
// returns how many were added. Unreadable entries are skipped.
func (ix *Index) Rebuild(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "r.*.*.mca"))
	if err != nil {
		return 0, err
	}

	total := 0
	for _, path := range files {
		var rx, rz int
		if _, err := fmt.Sscanf(filepath.Base(path), "r.%d.%d.mca", &rx, &rz); err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return total, err
		}
		r, err := anvil.ReadRegion(path, rx, rz)
		if err != nil {
			continue
		}

		var cs []*chunk.Chunk
		for _, pos := range r.Positions() {
			data, err := r.Chunk(pos)
			if err != nil {
				continue
			}
			c, err := anvil.DecodeChunk(data)
			if err != nil {
				continue
			}
			cs = append(cs, c)
		}
		if len(cs) == 0 {
			continue
		}
		if err := ix.record(ctx, info.ModTime().Unix(), cs); err != nil {
			return total, err
		}
		total += len(cs)
	}
	return total, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
