// Package minio provides a blobstore.BlobStore for MinIO and other
// S3-compatible object storage, used to publish distance matrix snapshots
// without an AWS dependency.
package minio
