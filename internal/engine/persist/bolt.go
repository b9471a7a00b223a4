package persist

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/klauspost/compress/zstd"

	"github.com/OCharnyshevich/voxelworld/pkg/world/anvil"
	"github.com/OCharnyshevich/voxelworld/pkg/world/chunk"
)

var chunkBucket = []byte("chunks")

// BoltStore keeps zstd-compressed chunk NBT in a single bolt database.
type BoltStore struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewBoltStore opens or creates the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o666, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chunkBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create chunk bucket: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, enc: enc, dec: dec}, nil
}

func chunkKey(pos chunk.Pos) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint32(key[0:4], uint32(int32(pos.X)))
	binary.BigEndian.PutUint32(key[4:8], uint32(int32(pos.Z)))
	return key
}

// Load reads the chunk at pos.
func (s *BoltStore) Load(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(chunkBucket).Get(chunkKey(pos))
		if v == nil {
			return ErrNotFound
		}
		var err error
		data, err = s.dec.DecodeAll(v, nil)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read chunk (%d,%d): %w", pos.X, pos.Z, err)
	}

	c, err := anvil.DecodeChunk(data)
	if err != nil {
		return nil, fmt.Errorf("decode chunk (%d,%d): %w", pos.X, pos.Z, err)
	}
	return c, nil
}

// Save writes one chunk.
func (s *BoltStore) Save(ctx context.Context, c *chunk.Chunk) error {
	return s.SaveAll(ctx, []*chunk.Chunk{c})
}

// SaveAll writes every chunk in a single transaction.
func (s *BoltStore) SaveAll(ctx context.Context, cs []*chunk.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	values := make([][]byte, len(cs))
	for i, c := range cs {
		data, err := anvil.EncodeChunk(c)
		if err != nil {
			return fmt.Errorf("encode chunk (%d,%d): %w", c.Pos.X, c.Pos.Z, err)
		}
		values[i] = s.enc.EncodeAll(data, nil)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(chunkBucket)
		for i, c := range cs {
			if err := bkt.Put(chunkKey(c.Pos), values[i]); err != nil {
				return fmt.Errorf("put chunk (%d,%d): %w", c.Pos.X, c.Pos.Z, err)
			}
		}
		return nil
	})
}

// Close releases the codecs and closes the database.
func (s *BoltStore) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
