package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "matrices/a", []byte("hello")))

	blob, err := s.Open(ctx, "matrices/a")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(5), blob.Size())

	data, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a", []byte("one")))
	require.NoError(t, s.Put(ctx, "a", []byte("two")))

	blob, err := s.Open(ctx, "a")
	require.NoError(t, err)
	defer blob.Close()

	data, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

func TestMemoryStoreOpenIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a", []byte("one")))
	blob, err := s.Open(ctx, "a")
	require.NoError(t, err)
	defer blob.Close()

	// A later Put must not mutate an already open handle.
	require.NoError(t, s.Put(ctx, "a", []byte("two")))

	data, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a", []byte("x")))
	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a")) // deleting missing is fine

	_, err := s.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "m/2", nil))
	require.NoError(t, s.Put(ctx, "m/1", nil))
	require.NoError(t, s.Put(ctx, "other", nil))

	names, err := s.List(ctx, "m/")
	require.NoError(t, err)
	assert.Equal(t, []string{"m/1", "m/2"}, names)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStoreReadAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "a", []byte("hello world")))

	blob, err := s.Open(ctx, "a")
	require.NoError(t, err)
	defer blob.Close()

	p := make([]byte, 5)
	n, err := blob.ReadAt(ctx, p, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("world"), p)
}
