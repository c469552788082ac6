package store

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Inspector is implemented by stores that can report their size and health.
type Inspector interface {
	Len() (int, error)
	Available() bool
}

// Metrics holds timing statistics for store operations.
// Uses atomic operations for thread-safe updates without locks.
type Metrics struct {
	GetCount atomic.Uint64
	SetCount atomic.Uint64

	GetHits     atomic.Uint64
	GetMisses   atomic.Uint64
	Unavailable atomic.Uint64

	// Cumulative latencies in nanoseconds
	GetLatencyNs atomic.Uint64
	SetLatencyNs atomic.Uint64
}

// InstrumentedStore wraps any kv.Store implementation with timing metrics.
// Counters are kept locally for GetMetrics and mirrored into Prometheus.
type InstrumentedStore struct {
	store   kv.Store
	metrics *Metrics

	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Compile-time checks.
var (
	_ kv.Store  = (*InstrumentedStore)(nil)
	_ Inspector = (*InstrumentedStore)(nil)
	_ Inspector = (*MemStore)(nil)
)

// NewInstrumentedStore wraps a store with instrumentation. Collectors are
// registered on reg; a nil reg leaves them unregistered.
func NewInstrumentedStore(store kv.Store, reg prometheus.Registerer) *InstrumentedStore {
	factory := promauto.With(reg)
	return &InstrumentedStore{
		store:   store,
		metrics: &Metrics{},
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyazkv",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation and result.",
		}, []string{"op", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pyazkv",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Time spent inside store operations.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}, []string{"op"}),
	}
}

// Get delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Get(key string) (string, error) {
	start := time.Now()
	value, err := s.store.Get(key)
	elapsed := time.Since(start)

	s.metrics.GetCount.Add(1)
	s.metrics.GetLatencyNs.Add(uint64(elapsed.Nanoseconds()))
	s.duration.WithLabelValues("get").Observe(elapsed.Seconds())

	var result string
	switch {
	case err == nil:
		s.metrics.GetHits.Add(1)
		result = "hit"
	case errors.Is(err, kv.ErrNotFound):
		s.metrics.GetMisses.Add(1)
		result = "miss"
	default:
		result = s.failure(err)
	}
	s.ops.WithLabelValues("get", result).Inc()

	return value, err
}

// Set delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Set(key, value string) error {
	start := time.Now()
	err := s.store.Set(key, value)
	elapsed := time.Since(start)

	s.metrics.SetCount.Add(1)
	s.metrics.SetLatencyNs.Add(uint64(elapsed.Nanoseconds()))
	s.duration.WithLabelValues("set").Observe(elapsed.Seconds())

	result := "ok"
	if err != nil {
		result = s.failure(err)
	}
	s.ops.WithLabelValues("set", result).Inc()

	return err
}

func (s *InstrumentedStore) failure(err error) string {
	if errors.Is(err, kv.ErrStoreUnavailable) {
		s.metrics.Unavailable.Add(1)
		return "unavailable"
	}
	return "error"
}

// Len reports the size of the wrapped store. Stores that do not implement
// Inspector return errors.ErrUnsupported.
func (s *InstrumentedStore) Len() (int, error) {
	if in, ok := s.store.(Inspector); ok {
		return in.Len()
	}
	return 0, errors.ErrUnsupported
}

// Available reports the health of the wrapped store. Stores that do not
// implement Inspector are assumed available.
func (s *InstrumentedStore) Available() bool {
	if in, ok := s.store.(Inspector); ok {
		return in.Available()
	}
	return true
}

// GetMetrics returns a snapshot of current metrics.
func (s *InstrumentedStore) GetMetrics() MetricsSnapshot {
	getCount := s.metrics.GetCount.Load()
	setCount := s.metrics.SetCount.Load()

	return MetricsSnapshot{
		GetCount:      getCount,
		SetCount:      setCount,
		GetHits:       s.metrics.GetHits.Load(),
		GetMisses:     s.metrics.GetMisses.Load(),
		Unavailable:   s.metrics.Unavailable.Load(),
		GetAvgLatency: s.avgLatency(s.metrics.GetLatencyNs.Load(), getCount),
		SetAvgLatency: s.avgLatency(s.metrics.SetLatencyNs.Load(), setCount),
	}
}

// ResetMetrics clears the local counters. Prometheus counters are monotonic
// and are left untouched.
func (s *InstrumentedStore) ResetMetrics() {
	s.metrics.GetCount.Store(0)
	s.metrics.SetCount.Store(0)
	s.metrics.GetHits.Store(0)
	s.metrics.GetMisses.Store(0)
	s.metrics.Unavailable.Store(0)
	s.metrics.GetLatencyNs.Store(0)
	s.metrics.SetLatencyNs.Store(0)
}

func (s *InstrumentedStore) avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	GetCount      uint64
	SetCount      uint64
	GetHits       uint64
	GetMisses     uint64
	Unavailable   uint64
	GetAvgLatency time.Duration
	SetAvgLatency time.Duration
}
