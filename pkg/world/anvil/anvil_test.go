package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/OCharnyshevich/voxelworld/pkg/world/block"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

func testChunk(pos chunk.Pos) *chunk.Chunk {
	c := chunk.New(pos)
	c.SetBlock(0, 0, 0, block.Rock)
	c.SetBlock(1, 64, 1, block.Grass)
	c.SetBlock(15, 255, 15, block.Water)
	c.SetBlock(7, 40, 3, block.Sand)
	return c
}

func assertSameBlocks(t *testing.T, want, got *chunk.Chunk) {
	t.Helper()
	for x := 0; x < chunk.Size; x++ {
		for y := 0; y < chunk.WorldHeight; y++ {
			for z := 0; z < chunk.Size; z++ {
				if w, g := want.Block(x, y, z), got.Block(x, y, z); w != g {
					t.Fatalf("block (%d,%d,%d) = %v, want %v", x, y, z, g, w)
				}
			}
		}
	}
}

func TestEncodeDecodeChunk(t *testing.T) {
	c := testChunk(chunk.Pos{X: -3, Z: 17})

	data, err := EncodeChunk(c)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	if len(data) == 0 || data[0] != 10 {
		t.Fatalf("expected root compound tag (10), got %v", data[:1])
	}

	got, err := DecodeChunk(data)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if got.Pos != c.Pos {
		t.Fatalf("decoded pos = %+v, want %+v", got.Pos, c.Pos)
	}
	assertSameBlocks(t, c, got)

	for i := range c.Sections {
		if (c.Sections[i] == nil) != (got.Sections[i] == nil) {
			t.Fatalf("section %d presence mismatch", i)
		}
	}
}

func TestEncodeUsesBlockNames(t *testing.T) {
	data, err := EncodeChunk(testChunk(chunk.Pos{}))
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	for _, name := range []string{"minecraft:rock", "minecraft:grass", "minecraft:air", "palette", "blocks"} {
		if !bytes.Contains(data, []byte(name)) {
			t.Errorf("encoded chunk does not contain %q", name)
		}
	}
}

func TestDecodeChunkRejectsGarbage(t *testing.T) {
	if _, err := DecodeChunk([]byte{0xFF, 0x00, 0x13}); err == nil {
		t.Fatal("expected error decoding garbage")
	}
}

func TestSaveRegionLayout(t *testing.T) {
	dir := t.TempDir()

	nbtData, err := EncodeChunk(testChunk(chunk.Pos{}))
	if err != nil {
		t.Fatalf("encode chunk: %v", err)
	}
	if err := SaveRegion(dir, 0, 0, map[chunk.Pos][]byte{{X: 0, Z: 0}: nbtData}); err != nil {
		t.Fatalf("SaveRegion failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "r.0.0.mca"))
	if err != nil {
		t.Fatalf("open region file: %v", err)
	}
	defer f.Close()

	var locations [4096]byte
	if _, err := io.ReadFull(f, locations[:]); err != nil {
		t.Fatalf("read locations: %v", err)
	}

	entry := binary.BigEndian.Uint32(locations[0:4])
	offset := entry >> 8
	if offset != 2 { // first data sector starts after location + timestamp tables
		t.Fatalf("expected offset 2, got %d", offset)
	}
	if entry&0xFF == 0 {
		t.Fatal("expected non-zero sector count")
	}

	if _, err := f.Seek(int64(offset)*sectorSize, io.SeekStart); err != nil {
		t.Fatalf("seek to chunk data: %v", err)
	}
	var chunkHeader [5]byte
	if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
		t.Fatalf("read chunk header: %v", err)
	}
	if chunkHeader[4] != CompressionZlib {
		t.Fatalf("expected zlib compression (2), got %d", chunkHeader[4])
	}

	compressed := make([]byte, binary.BigEndian.Uint32(chunkHeader[0:4])-1)
	if _, err := io.ReadFull(f, compressed); err != nil {
		t.Fatalf("read compressed data: %v", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("create zlib reader: %v", err)
	}
	defer zr.Close()

	decompressed, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(decompressed, nbtData) {
		t.Fatal("decompressed payload differs from encoded chunk")
	}
}

func TestReadChunkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	positions := []chunk.Pos{{X: -1, Z: -1}, {X: -32, Z: -5}, {X: -10, Z: -32}}

	chunks := make(map[chunk.Pos][]byte)
	for _, pos := range positions {
		data, err := EncodeChunk(testChunk(pos))
		if err != nil {
			t.Fatalf("encode %+v: %v", pos, err)
		}
		chunks[pos] = data
	}
	if err := SaveRegion(dir, -1, -1, chunks); err != nil {
		t.Fatalf("SaveRegion: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "r.-1.-1.mca")); err != nil {
		t.Fatalf("expected r.-1.-1.mca: %v", err)
	}

	for _, pos := range positions {
		data, err := ReadChunk(dir, pos)
		if err != nil {
			t.Fatalf("ReadChunk(%+v): %v", pos, err)
		}
		got, err := DecodeChunk(data)
		if err != nil {
			t.Fatalf("DecodeChunk(%+v): %v", pos, err)
		}
		assertSameBlocks(t, testChunk(pos), got)
	}
}

func TestReadChunkMissing(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadChunk(dir, chunk.Pos{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: got %v, want ErrNotExist", err)
	}

	data, _ := EncodeChunk(testChunk(chunk.Pos{}))
	if err := SaveRegion(dir, 0, 0, map[chunk.Pos][]byte{{}: data}); err != nil {
		t.Fatalf("SaveRegion: %v", err)
	}
	if _, err := ReadChunk(dir, chunk.Pos{X: 5, Z: 5}); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("missing entry: got %v, want ErrChunkNotFound", err)
	}
}

func TestSaveRegionPreservesOtherChunks(t *testing.T) {
	dir := t.TempDir()

	a := testChunk(chunk.Pos{X: 1, Z: 1})
	b := testChunk(chunk.Pos{X: 2, Z: 1})
	b.SetBlock(3, 3, 3, block.Brick)

	dataA, _ := EncodeChunk(a)
	dataB, _ := EncodeChunk(b)

	if err := SaveRegion(dir, 0, 0, map[chunk.Pos][]byte{a.Pos: dataA}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := SaveRegion(dir, 0, 0, map[chunk.Pos][]byte{b.Pos: dataB}); err != nil {
		t.Fatalf("save b: %v", err)
	}

	r, err := ReadRegion(filepath.Join(dir, FileName(0, 0)), 0, 0)
	if err != nil {
		t.Fatalf("ReadRegion: %v", err)
	}
	if len(r.Positions()) != 2 || !r.Has(a.Pos) || !r.Has(b.Pos) {
		t.Fatalf("region positions = %+v, want a and b", r.Positions())
	}

	raw, err := r.Chunk(b.Pos)
	if err != nil {
		t.Fatalf("Chunk(b): %v", err)
	}
	got, err := DecodeChunk(raw)
	if err != nil {
		t.Fatalf("DecodeChunk(b): %v", err)
	}
	if got.Block(3, 3, 3) != block.Brick {
		t.Fatal("brick lost after update")
	}
}

func TestSaveRegionRejectsForeignChunk(t *testing.T) {
	err := SaveRegion(t.TempDir(), 0, 0, map[chunk.Pos][]byte{{X: 40, Z: 0}: {10, 0, 0, 0}})
	if err == nil {
		t.Fatal("expected error for chunk outside region")
	}
}

func TestReadChunkCorruptPayload(t *testing.T) {
	dir := t.TempDir()
	r := NewRegion(0, 0)
	r.payloads[0] = []byte{CompressionZlib, 1, 2, 3, 4}
	if err := r.WriteFile(dir); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadChunk(dir, chunk.Pos{}); err == nil {
		t.Fatal("expected decompression error")
	}
}

func TestDecompressSchemes(t *testing.T) {
	payload := []byte("section palette data")
	for _, scheme := range []byte{CompressionGzip, CompressionZlib, CompressionNone} {
		packed, err := compress(scheme, payload)
		if err != nil {
			t.Fatalf("compress(%d): %v", scheme, err)
		}
		got, err := decompress(scheme, packed)
		if err != nil {
			t.Fatalf("decompress(%d): %v", scheme, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("scheme %d round trip = %q", scheme, got)
		}
	}
	if _, err := decompress(9, payload); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}
