package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/emdgo/blobstore"
	"github.com/hupe1980/emdgo/resource"
)

// CurrentKey is the blob name of the pointer to the latest published
// snapshot. Stores with atomic commit support (s3.CommitStore) intercept it.
const CurrentKey = "CURRENT"

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCompression sets the payload compression used by Save and Publish.
func WithCompression(c Compression) ManagerOption {
	return func(m *Manager) { m.compression = c }
}

// WithController bounds manager jobs with a resource controller.
func WithController(rc *resource.Controller) ManagerOption {
	return func(m *Manager) { m.rc = rc }
}

// WithLogger sets the logger for save/load events.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// Manager saves and loads matrix snapshots against a blob store, bounded by
// an optional resource controller.
type Manager struct {
	store       blobstore.BlobStore
	rc          *resource.Controller
	compression Compression
	logger      *slog.Logger
}

// NewManager creates a snapshot manager over the given store.
func NewManager(store blobstore.BlobStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:       store,
		compression: CompressionZSTD,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save encodes and writes a snapshot under the given name.
func (m *Manager) Save(ctx context.Context, name string, snap *Snapshot) error {
	if err := m.rc.AcquireJob(ctx); err != nil {
		return err
	}
	defer m.rc.ReleaseJob()

	bufSize := int64(headerSize + 8*len(snap.Values))
	if err := m.rc.AcquireMemory(ctx, bufSize); err != nil {
		return err
	}
	defer m.rc.ReleaseMemory(bufSize)

	data, err := snap.Encode(m.compression)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}

	if err := m.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := m.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("put snapshot %q: %w", name, err)
	}

	m.logger.InfoContext(ctx, "snapshot saved", slog.String("name", name), slog.Int("bytes", len(data)), slog.Uint64("values", uint64(len(snap.Values))))
	return nil
}

// Load reads and decodes the snapshot stored under the given name.
func (m *Manager) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := m.rc.AcquireJob(ctx); err != nil {
		return nil, err
	}
	defer m.rc.ReleaseJob()

	blob, err := m.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %q: %w", name, err)
	}
	defer blob.Close()

	size := blob.Size()
	if err := m.rc.AcquireMemory(ctx, size); err != nil {
		return nil, err
	}
	defer m.rc.ReleaseMemory(size)

	if err := m.rc.AcquireIO(ctx, int(size)); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", name, err)
	}

	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", name, err)
	}

	m.logger.InfoContext(ctx, "snapshot loaded", slog.String("name", name), slog.Uint64("values", uint64(len(snap.Values))))
	return snap, nil
}

// Publish saves the snapshot under name and then advances the CURRENT
// pointer to it. On stores with commit support the pointer update is atomic.
func (m *Manager) Publish(ctx context.Context, name string, snap *Snapshot) error {
	if err := m.Save(ctx, name, snap); err != nil {
		return err
	}
	if err := m.store.Put(ctx, CurrentKey, []byte(name)); err != nil {
		return fmt.Errorf("update current pointer: %w", err)
	}
	return nil
}

// LoadCurrent resolves the CURRENT pointer and loads the snapshot it names.
func (m *Manager) LoadCurrent(ctx context.Context) (*Snapshot, error) {
	blob, err := m.store.Open(ctx, CurrentKey)
	if err != nil {
		return nil, fmt.Errorf("open current pointer: %w", err)
	}
	data, err := blobstore.ReadAll(ctx, blob)
	blob.Close()
	if err != nil {
		return nil, fmt.Errorf("read current pointer: %w", err)
	}

	name := strings.TrimSpace(string(data))
	if name == "" {
		return nil, blobstore.ErrNotFound
	}
	return m.Load(ctx, name)
}
