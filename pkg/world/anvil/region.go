// Package anvil reads and writes region files: 32×32 chunk grids packed into
// 4096-byte sectors, each chunk stored as compressed NBT.
package anvil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

const (
	sectorSize    = 4096
	headerSectors = 2 // location table + timestamp table
	entryCount    = chunk.RegionSize * chunk.RegionSize
	maxSectors    = 255
)

// ErrChunkNotFound is returned when a region has no entry for a chunk.
var ErrChunkNotFound = errors.New("chunk not present in region")

// Region is an in-memory region file. Payloads are kept compressed exactly
// as stored so unchanged chunks are rewritten without recompression.
type Region struct {
	X, Z       int
	payloads   [entryCount][]byte // compression byte + compressed data
	timestamps [entryCount]uint32
}

// NewRegion returns an empty region at (rx, rz).
func NewRegion(rx, rz int) *Region {
	return &Region{X: rx, Z: rz}
}

// FileName returns the file name of region (rx, rz).
func FileName(rx, rz int) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

// Path returns the region file path holding pos under dir.
func Path(dir string, pos chunk.Pos) string {
	rx, rz := pos.Region()
	return filepath.Join(dir, FileName(rx, rz))
}

// ReadRegion loads the whole region file at path.
func ReadRegion(path string, rx, rz int) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, headerSectors*sectorSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("read region header %s: %w", path, err)
	}

	r := NewRegion(rx, rz)
	for i := range entryCount {
		loc := binary.BigEndian.Uint32(header[i*4:])
		if loc == 0 {
			continue
		}
		payload, err := readPayload(f, loc)
		if err != nil {
			return nil, fmt.Errorf("read region %s entry %d: %w", path, i, err)
		}
		r.payloads[i] = payload
		r.timestamps[i] = binary.BigEndian.Uint32(header[sectorSize+i*4:])
	}
	return r, nil
}

// ReadChunk reads one chunk's decompressed NBT from the region file under
// dir, touching only its location entry and sectors. A missing file is
// reported as fs.ErrNotExist; a missing entry as ErrChunkNotFound.
func ReadChunk(dir string, pos chunk.Pos) ([]byte, error) {
	f, err := os.Open(Path(dir, pos))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entry [4]byte
	if _, err := f.ReadAt(entry[:], int64(pos.RegionIndex()*4)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrChunkNotFound
		}
		return nil, fmt.Errorf("read location entry: %w", err)
	}
	loc := binary.BigEndian.Uint32(entry[:])
	if loc == 0 {
		return nil, ErrChunkNotFound
	}

	payload, err := readPayload(f, loc)
	if err != nil {
		return nil, err
	}
	return decompress(payload[0], payload[1:])
}

// readPayload returns the compression byte followed by the compressed data.
func readPayload(r io.ReaderAt, loc uint32) ([]byte, error) {
	offset := int64(loc>>8) * sectorSize
	sectors := int64(loc & 0xFF)
	if offset < headerSectors*sectorSize || sectors == 0 {
		return nil, fmt.Errorf("invalid location entry 0x%08X", loc)
	}

	var lenBuf [4]byte
	if _, err := r.ReadAt(lenBuf[:], offset); err != nil {
		return nil, fmt.Errorf("read chunk length: %w", err)
	}
	length := int64(binary.BigEndian.Uint32(lenBuf[:]))
	if length < 1 || length+4 > sectors*sectorSize {
		return nil, fmt.Errorf("chunk length %d does not fit %d sectors", length, sectors)
	}

	payload := make([]byte, length)
	if _, err := r.ReadAt(payload, offset+4); err != nil {
		return nil, fmt.Errorf("read chunk payload: %w", err)
	}
	return payload, nil
}

// Chunk returns the decompressed NBT stored for pos.
func (r *Region) Chunk(pos chunk.Pos) ([]byte, error) {
	payload := r.payloads[pos.RegionIndex()]
	if payload == nil {
		return nil, ErrChunkNotFound
	}
	return decompress(payload[0], payload[1:])
}

// Has reports whether the region holds an entry for pos.
func (r *Region) Has(pos chunk.Pos) bool {
	return r.payloads[pos.RegionIndex()] != nil
}

// Positions returns the chunk positions present in the region.
func (r *Region) Positions() []chunk.Pos {
	var out []chunk.Pos
	for i, p := range r.payloads {
		if p == nil {
			continue
		}
		out = append(out, chunk.Pos{
			X: r.X*chunk.RegionSize + i%chunk.RegionSize,
			Z: r.Z*chunk.RegionSize + i/chunk.RegionSize,
		})
	}
	return out
}

// SetChunk compresses nbtData with zlib and stores it for pos.
func (r *Region) SetChunk(pos chunk.Pos, nbtData []byte) error {
	compressed, err := compress(CompressionZlib, nbtData)
	if err != nil {
		return fmt.Errorf("compress chunk (%d,%d): %w", pos.X, pos.Z, err)
	}
	if (len(compressed)+5+sectorSize-1)/sectorSize > maxSectors {
		return fmt.Errorf("chunk (%d,%d) exceeds %d sectors", pos.X, pos.Z, maxSectors)
	}

	payload := make([]byte, 1+len(compressed))
	payload[0] = CompressionZlib
	copy(payload[1:], compressed)

	idx := pos.RegionIndex()
	r.payloads[idx] = payload
	r.timestamps[idx] = uint32(time.Now().Unix())
	return nil
}

// WriteFile writes the region into dir atomically via a temp file and rename.
func (r *Region) WriteFile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create region dir: %w", err)
	}

	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)

	// Each chunk's data: 4 bytes length + payload, padded to sector boundary.
	var data []byte
	currentSector := uint32(headerSectors)

	for i, payload := range r.payloads {
		if payload == nil {
			continue
		}
		totalLen := uint32(4 + len(payload))
		sectorCount := (totalLen + sectorSize - 1) / sectorSize

		off := i * 4
		binary.BigEndian.PutUint32(locations[off:off+4], (currentSector<<8)|(sectorCount&0xFF))
		binary.BigEndian.PutUint32(timestamps[off:off+4], r.timestamps[i])

		var header [4]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
		data = append(data, header[:]...)
		data = append(data, payload...)

		if pad := int(sectorCount)*sectorSize - int(totalLen); pad > 0 {
			data = append(data, make([]byte, pad)...)
		}
		currentSector += sectorCount
	}

	path := filepath.Join(dir, FileName(r.X, r.Z))
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp region file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(locations); err != nil {
		return fmt.Errorf("write locations: %w", err)
	}
	if _, err := f.Write(timestamps); err != nil {
		return fmt.Errorf("write timestamps: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write chunk data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close region file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename region file: %w", err)
	}
	return nil
}

// SaveRegion merges chunks (uncompressed NBT keyed by position) into the
// region file (rx, rz) under dir, creating it if needed.
func SaveRegion(dir string, rx, rz int, chunks map[chunk.Pos][]byte) error {
	r, err := ReadRegion(filepath.Join(dir, FileName(rx, rz)), rx, rz)
	if errors.Is(err, os.ErrNotExist) {
		r = NewRegion(rx, rz)
	} else if err != nil {
		return err
	}

	for pos, nbtData := range chunks {
		if px, pz := pos.Region(); px != rx || pz != rz {
			return fmt.Errorf("chunk (%d,%d) does not belong to region (%d,%d)", pos.X, pos.Z, rx, rz)
		}
		if err := r.SetChunk(pos, nbtData); err != nil {
			return err
		}
	}
	return r.WriteFile(dir)
}
