// Package metrics exposes explorer counters to Prometheus.
//
// All methods are safe on a nil *Explorer so services can run without a
// registry (tests, folioctl).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Explorer holds the explorer's collectors.
type Explorer struct {
	uploadsTotal       *prometheus.CounterVec
	uploadBytesTotal   prometheus.Counter
	compensationsTotal *prometheus.CounterVec
	orphanedBlobsTotal prometheus.Counter
	mutationsTotal     *prometheus.CounterVec
	mutationDuration   *prometheus.HistogramVec
	scopeCacheTotal    *prometheus.CounterVec
}

// NewRegistry returns a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers the explorer collectors with reg.
func New(reg prometheus.Registerer) *Explorer {
	return &Explorer{
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_uploads_total",
				Help: "Uploads by outcome (ok, size_exceeded, type_rejected, ...)",
			},
			[]string{"result"},
		),
		uploadBytesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "folio_upload_bytes_total",
				Help: "Bytes accepted by successful uploads",
			},
		),
		compensationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_compensations_total",
				Help: "Blob removals after a failed metadata insert, by outcome",
			},
			[]string{"result"},
		),
		orphanedBlobsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "folio_orphaned_blobs_total",
				Help: "Blobs left without a metadata record",
			},
		),
		mutationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_mutations_total",
				Help: "Tree mutations by operation and outcome",
			},
			[]string{"op", "result"},
		),
		mutationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "folio_mutation_duration_milliseconds",
				Help: "Duration of tree mutations in milliseconds",
				Buckets: []float64{
					5,    // 5ms
					25,   // 25ms
					100,  // 100ms
					500,  // 500ms
					2500, // 2.5s
				},
			},
			[]string{"op"},
		),
		scopeCacheTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_scope_cache_total",
				Help: "Scope cache lookups by result (hit, miss, invalidate)",
			},
			[]string{"result"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// RecordUpload counts one upload outcome.
func (m *Explorer) RecordUpload(result string, bytes int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
	if result == ResultOK && bytes > 0 {
		m.uploadBytesTotal.Add(float64(bytes))
	}
}

// RecordCompensation counts one compensating blob removal.
func (m *Explorer) RecordCompensation(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.compensationsTotal.WithLabelValues(ResultError).Inc()
		m.orphanedBlobsTotal.Inc()
		return
	}
	m.compensationsTotal.WithLabelValues(ResultOK).Inc()
}

// RecordMutation counts one mutation and observes its duration.
func (m *Explorer) RecordMutation(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.mutationsTotal.WithLabelValues(op, result).Inc()
	m.mutationDuration.WithLabelValues(op).Observe(float64(time.Since(started).Milliseconds()))
}

// RecordCache counts a scope cache hit, miss or invalidation.
func (m *Explorer) RecordCache(result string) {
	if m == nil {
		return
	}
	m.scopeCacheTotal.WithLabelValues(result).Inc()
}
