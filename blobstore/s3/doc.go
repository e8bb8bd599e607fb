// Package s3 provides an AWS S3 backed blobstore.BlobStore for sharing
// precomputed distance matrices across machines, plus an optional
// DynamoDB-backed commit store for atomically publishing a CURRENT pointer
// when multiple writers refresh the same matrix.
package s3
