package persistence

import "errors"

const (
	// MagicNumber identifies matrix snapshot files (ASCII "EMD1").
	MagicNumber = 0x454D4431
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000

	// headerSize is the fixed byte length of the snapshot header.
	headerSize = 48
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, lower ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd compression (default, better ratio).
	CompressionZSTD Compression = 2
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrInvalidCompression = errors.New("unknown compression type")
	ErrTruncated          = errors.New("snapshot truncated")
)
