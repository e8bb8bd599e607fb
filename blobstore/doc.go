// Package blobstore abstracts where persisted EMD matrices live.
//
// The in-memory store backs tests, the local store serves single-machine
// workflows with memory-mapped reads, and the s3 and minio subpackages
// target object storage for sharing precomputed matrices across machines.
package blobstore
