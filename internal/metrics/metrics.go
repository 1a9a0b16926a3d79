// Package metrics defines the Prometheus collectors of the query engine.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tiledb"

// Metrics holds the collectors of one storage manager.
type Metrics struct {
	// QueriesTotal counts process calls by query type and resulting status.
	QueriesTotal *prometheus.CounterVec
	// ProcessDuration is the latency of process calls by query type.
	ProcessDuration *prometheus.HistogramVec
	// BytesRead counts decoded tile bytes loaded from storage.
	BytesRead prometheus.Counter
	// BytesWritten counts encoded tile bytes written to storage.
	BytesWritten prometheus.Counter
	// FragmentsWritten counts committed fragments.
	FragmentsWritten prometheus.Counter
	// BufferMerges counts attribute buffers merged by mode (adopt or copy).
	BufferMerges *prometheus.CounterVec
	// TileCacheHits and TileCacheMisses count decoded tile cache lookups.
	TileCacheHits   prometheus.Counter
	TileCacheMisses prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of query process calls",
			},
			[]string{"type", "status"},
		),
		ProcessDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_process_duration_seconds",
				Help:      "Query process latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		BytesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_bytes_read_total",
			Help:      "Total decoded tile bytes loaded from storage",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_bytes_written_total",
			Help:      "Total encoded tile bytes written to storage",
		}),
		FragmentsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_written_total",
			Help:      "Total number of committed fragments",
		}),
		BufferMerges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "buffer_merges_total",
				Help:      "Total attribute buffers merged between queries",
			},
			[]string{"mode"},
		),
		TileCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_hits_total",
			Help:      "Total decoded tile cache hits",
		}),
		TileCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_misses_total",
			Help:      "Total decoded tile cache misses",
		}),
	}
}

// ObserveProcess records one process call.
func (m *Metrics) ObserveProcess(queryType, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(queryType, status).Inc()
	m.ProcessDuration.WithLabelValues(queryType).Observe(d.Seconds())
}

// AddBytesRead records decoded tile bytes.
func (m *Metrics) AddBytesRead(n int) {
	if m == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

// AddBytesWritten records encoded tile bytes.
func (m *Metrics) AddBytesWritten(n int) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}

// FragmentCommitted records one committed fragment.
func (m *Metrics) FragmentCommitted() {
	if m == nil {
		return
	}
	m.FragmentsWritten.Inc()
}

// BufferMerged records one merged attribute buffer.
func (m *Metrics) BufferMerged(mode string) {
	if m == nil {
		return
	}
	m.BufferMerges.WithLabelValues(mode).Inc()
}

// CacheLookup records a tile cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.TileCacheHits.Inc()
	} else {
		m.TileCacheMisses.Inc()
	}
}
