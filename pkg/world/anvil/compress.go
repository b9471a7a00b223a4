package anvil

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression schemes for chunk payloads.
const (
	CompressionGzip = 1
	CompressionZlib = 2
	CompressionNone = 3
)

func compress(scheme byte, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch scheme {
	case CompressionZlib:
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("create zlib writer: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("close zlib writer: %w", err)
		}
	case CompressionGzip:
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(data); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, fmt.Errorf("close gzip writer: %w", err)
		}
	case CompressionNone:
		buf.Write(data)
	default:
		return nil, fmt.Errorf("unknown compression scheme %d", scheme)
	}
	return buf.Bytes(), nil
}

func decompress(scheme byte, data []byte) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch scheme {
	case CompressionZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	case CompressionGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case CompressionNone:
		return bytes.Clone(data), nil
	default:
		return nil, fmt.Errorf("unknown compression scheme %d", scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("open decompressor: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk: %w", err)
	}
	return out, nil
}
