package compressor

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrTooLarge is returned when a payload decompresses to more than the allowed size.
var ErrTooLarge = errors.New("decompressed payload exceeds the size limit")

// ICompressor compresses and decompresses frame payloads.
// Implementations are safe for concurrent use.
type ICompressor interface {
	// Name returns the configuration name of the codec.
	Name() string
	// Compress returns the compressed form of src.
	Compress(src []byte) ([]byte, error)
	// Decompress returns the decompressed form of src. It fails with ErrTooLarge if the
	// result would be larger than maxSize bytes.
	Decompress(src []byte, maxSize int) ([]byte, error)
}

// Names lists all supported codec names.
var Names = []string{"none", "snappy", "lz4", "zstd"}

// New returns the codec with the given name. The "none" codec (and the empty name) yields nil,
// which the protocol treats as "never compress".
func New(name string) (ICompressor, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "snappy":
		return &snappyCompressor{}, nil
	case "lz4":
		return &lz4Compressor{}, nil
	case "zstd":
		return newZstdCompressor()
	default:
		return nil, errors.Newf("invalid compression %q (expected one of none, snappy, lz4, zstd)", name)
	}
}

// --------------------------------------------------------------------------
// Snappy
// --------------------------------------------------------------------------

type snappyCompressor struct{}

func (c *snappyCompressor) Name() string { return "snappy" }

func (c *snappyCompressor) Compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (c *snappyCompressor) Decompress(src []byte, maxSize int) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, errors.Wrap(err, "invalid snappy payload")
	}
	if n > maxSize {
		return nil, ErrTooLarge
	}
	return snappy.Decode(nil, src)
}

// --------------------------------------------------------------------------
// LZ4
// --------------------------------------------------------------------------

type lz4Compressor struct{}

func (c *lz4Compressor) Name() string { return "lz4" }

func (c *lz4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	if _, err := writer.Write(src); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *lz4Compressor) Decompress(src []byte, maxSize int) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(src))
	out, err := io.ReadAll(io.LimitReader(reader, int64(maxSize)+1))
	if err != nil {
		return nil, errors.Wrap(err, "invalid lz4 payload")
	}
	if len(out) > maxSize {
		return nil, ErrTooLarge
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Zstandard
// --------------------------------------------------------------------------

// zstdCompressor shares one encoder, EncodeAll is safe for concurrent use. Decoding
// uses a fresh synchronous decoder per call so the output can be bounded while streaming.
type zstdCompressor struct {
	encoder *zstd.Encoder
}

func newZstdCompressor() (*zstdCompressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	return &zstdCompressor{encoder: encoder}, nil
}

func (c *zstdCompressor) Name() string { return "zstd" }

func (c *zstdCompressor) Compress(src []byte) ([]byte, error) {
	return c.encoder.EncodeAll(src, nil), nil
}

func (c *zstdCompressor) Decompress(src []byte, maxSize int) ([]byte, error) {
	// the frame header usually carries the content size, reject early if it does
	var header zstd.Header
	if err := header.Decode(src); err == nil && header.HasFCS && header.FrameContentSize > uint64(maxSize) {
		return nil, ErrTooLarge
	}

	decoder, err := zstd.NewReader(bytes.NewReader(src),
		zstd.WithDecoderConcurrency(1),
		// frames always reserve at least the minimum window
		zstd.WithDecoderMaxMemory(uint64(max(maxSize, zstd.MinWindowSize))),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create zstd decoder")
	}
	defer decoder.Close()

	// input may hold any number of frames, so only read one byte past the limit
	out, err := io.ReadAll(io.LimitReader(decoder, int64(maxSize)+1))
	switch {
	case errors.Is(err, zstd.ErrDecoderSizeExceeded),
		errors.Is(err, zstd.ErrWindowSizeExceeded):
		return nil, ErrTooLarge
	case err != nil:
		return nil, errors.Wrap(err, "invalid zstd payload")
	}
	if len(out) > maxSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
