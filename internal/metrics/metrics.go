// Package metrics wires the paging core's counters/gauges into
// prometheus/client_golang. This is ambient observability carried from the
// rest of the pack (SPEC_FULL.md DOMAIN STACK) — spec.md is silent on
// metrics, but the instructions call for ambient concerns regardless.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector the paging core touches. Construct once
// per process with New and register it with a *prometheus.Registry in
// cmd/swapcore.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	RingAppends    prometheus.Counter
	RingOverflows  prometheus.Counter
	WorkerQueueLen *prometheus.GaugeVec
	Migrations     prometheus.Counter
	CompressErrors prometheus.Counter
	CorruptSlots   prometheus.Counter
}

// New constructs all collectors, unregistered.
func New() *Metrics {
	return &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_cache_hits_total",
			Help: "Page cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_cache_misses_total",
			Help: "Page cache misses.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_cache_evictions_total",
			Help: "Pages evicted from the LRU tail.",
		}),
		RingAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_ringlog_appends_total",
			Help: "Pages appended to the ring log.",
		}),
		RingOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_ringlog_overflows_total",
			Help: "Ring log appends dropped for lack of contiguous room.",
		}),
		WorkerQueueLen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swapcore_worker_queue_length",
			Help: "Logical length of each worker's access-scheduler queue.",
		}, []string{"worker"}),
		Migrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_migrations_total",
			Help: "Hot blocks migrated between worker queues.",
		}),
		CompressErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_compress_errors_total",
			Help: "Compressor failures.",
		}),
		CorruptSlots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapcore_corrupt_slots_total",
			Help: "Page slots whose stored CRC64 didn't match on load.",
		}),
	}
}

// MustRegister registers every collector with reg, panicking on a
// duplicate-registration bug (a programmer error, not a runtime condition).
func (m *Metrics) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		m.CacheHits, m.CacheMisses, m.CacheEvictions,
		m.RingAppends, m.RingOverflows,
		m.WorkerQueueLen, m.Migrations,
		m.CompressErrors, m.CorruptSlots,
	)
}
