// Package persistence serializes pairwise distance matrices to a
// blobstore.BlobStore so expensive batches can be computed once and shared.
//
// Snapshots use a fixed 48-byte little-endian header (magic, version,
// storage mode, pair counts, checksum) followed by a zstd or lz4 compressed
// float64 payload. The CRC32 of the compressed payload is verified on load.
package persistence
