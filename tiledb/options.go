package tiledb

import (
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a StorageManager.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	registerer    prometheus.Registerer
	workers       int
	tileCacheSize int
}

func defaultOptions() *options {
	return &options{
		logger:        slog.Default(),
		workers:       runtime.NumCPU(),
		tileCacheSize: 256,
	}
}

// WithLogger sets the logger. Validation failures are logged at error level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer registers the storage manager's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithWorkers sets the size of the worker pool used for tile I/O.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTileCacheSize sets how many decoded tiles are cached. Zero disables
// the cache.
func WithTileCacheSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.tileCacheSize = n
		}
	}
}
