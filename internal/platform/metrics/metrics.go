// Package metrics holds the prometheus collectors for the extraction
// pipeline. All recording methods are safe to call on a nil *Registry so
// components can be constructed without metrics in tests and CLI runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	ExtractionAttempts  prometheus.Counter
	ExtractionRetries   prometheus.Counter
	ExtractionFailures  *prometheus.CounterVec
	ExtractionLatency   prometheus.Histogram
	ObservationsKept    prometheus.Counter
	ObservationsDropped prometheus.Counter
	ClaimsAssembled     *prometheus.CounterVec
	DocumentsUploaded   prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	attempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claims_extraction_attempts_total",
		Help: "Calls made to the extraction model, including retries.",
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claims_extraction_retries_total",
		Help: "Extraction calls retried after a transient upstream failure.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claims_extraction_failures_total",
		Help: "Extraction runs that surfaced an error, by upstream class.",
	}, []string{"reason"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "claims_extraction_duration_seconds",
		Help:    "Wall time of an extraction run including backoff.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	})
	kept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claims_observations_kept_total",
		Help: "Observations that passed the confidence filter.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claims_observations_dropped_total",
		Help: "Observations removed by the confidence filter.",
	})
	assembled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claims_assembled_total",
		Help: "Claims persisted, by processing status.",
	}, []string{"status"})
	uploaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claims_documents_uploaded_total",
		Help: "Documents written to blob storage.",
	})

	r.MustRegister(attempts, retries, failures, latency, kept, dropped, assembled, uploaded)
	return &Registry{
		reg:                 r,
		ExtractionAttempts:  attempts,
		ExtractionRetries:   retries,
		ExtractionFailures:  failures,
		ExtractionLatency:   latency,
		ObservationsKept:    kept,
		ObservationsDropped: dropped,
		ClaimsAssembled:     assembled,
		DocumentsUploaded:   uploaded,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) RecordAttempt() {
	if r == nil {
		return
	}
	r.ExtractionAttempts.Inc()
}

func (r *Registry) RecordRetry() {
	if r == nil {
		return
	}
	r.ExtractionRetries.Inc()
}

// RecordExtraction observes the duration of one extraction run. reason is
// empty on success.
func (r *Registry) RecordExtraction(d time.Duration, reason string) {
	if r == nil {
		return
	}
	r.ExtractionLatency.Observe(d.Seconds())
	if reason != "" {
		r.ExtractionFailures.WithLabelValues(reason).Inc()
	}
}

func (r *Registry) RecordFilter(kept, dropped int) {
	if r == nil {
		return
	}
	r.ObservationsKept.Add(float64(kept))
	r.ObservationsDropped.Add(float64(dropped))
}

func (r *Registry) RecordClaim(status string) {
	if r == nil {
		return
	}
	r.ClaimsAssembled.WithLabelValues(status).Inc()
}

func (r *Registry) RecordUpload() {
	if r == nil {
		return
	}
	r.DocumentsUploaded.Inc()
}
