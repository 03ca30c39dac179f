package merkon

import (
	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/config"
	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/internal/storage"
)

// PersistMode selects what a mutation reports when its snapshot write fails.
type PersistMode = storage.PersistMode

// Compression selects the snapshot framing on disk.
type Compression = storage.Compression

const (
	PersistBestEffort = storage.PersistBestEffort
	PersistStrict     = storage.PersistStrict

	CompressionNone = storage.CompressionNone
	CompressionZstd = storage.CompressionZstd
)

const defaultBatchConcurrency = 8

// Option configures a Store.
type Option func(*options)

type options struct {
	logger           *zap.Logger
	persistMode      PersistMode
	compression      Compression
	readOnly         bool
	lock             bool
	persister        storage.Persister
	embedder         embedding.Embedder
	search           config.SearchConfig
	batchConcurrency int
}

func defaultOptions() options {
	return options{
		logger:           zap.NewNop(),
		persistMode:      PersistBestEffort,
		compression:      CompressionNone,
		lock:             true,
		search:           config.SearchConfig{DefaultLimit: 10, MaxLimit: 100},
		batchConcurrency: defaultBatchConcurrency,
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPersistMode selects how snapshot write failures are reported.
// The default is PersistBestEffort.
func WithPersistMode(m PersistMode) Option {
	return func(o *options) { o.persistMode = m }
}

// WithCompression selects the framing of written snapshots. Either framing loads.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithReadOnly opens the store without the file lock; every mutation fails with
// ErrReadOnly and Reload picks up changes written by the owning process.
func WithReadOnly(ro bool) Option {
	return func(o *options) { o.readOnly = ro }
}

// WithLock enables or disables the advisory lock on "<path>.lock". Enabled by default.
func WithLock(enabled bool) Option {
	return func(o *options) { o.lock = enabled }
}

// WithPersister replaces the file persister, e.g. with storage.NewMemoryPersister.
// No file lock is taken when a persister is supplied.
func WithPersister(p storage.Persister) Option {
	return func(o *options) { o.persister = p }
}

// WithEmbedder enables text queries in Search.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithSearchDefaults sets the limit defaults and minimum score applied by Search.
func WithSearchDefaults(cfg config.SearchConfig) Option {
	return func(o *options) { o.search = cfg }
}

// WithBatchConcurrency bounds the number of concurrent removals in RemoveBatch.
func WithBatchConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchConcurrency = n
		}
	}
}
