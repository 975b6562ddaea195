package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal     *prometheus.CounterVec
	authRefreshTotal *prometheus.CounterVec
	cacheTotal       *prometheus.CounterVec
	spikesTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volspike_upstream_fetches_total",
				Help: "Total upstream fetches by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		authRefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volspike_auth_refresh_total",
				Help: "Total session authentications by result",
			},
			[]string{"result"},
		),
		cacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volspike_report_cache_total",
				Help: "Broker report cache lookups by result",
			},
			[]string{"result"},
		),
		spikesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volspike_spikes_detected_total",
				Help: "Spike candidates detected by mode",
			},
			[]string{"mode"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volspike_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records an upstream fetch attempt outcome.
func (r *Recorder) RecordFetch(endpoint, outcome string) {
	r.fetchesTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordAuthRefresh records a session authentication.
func (r *Recorder) RecordAuthRefresh(result string) {
	r.authRefreshTotal.WithLabelValues(result).Inc()
}

// RecordCacheLookup records a broker report cache hit or miss.
func (r *Recorder) RecordCacheLookup(result string) {
	r.cacheTotal.WithLabelValues(result).Inc()
}

// RecordSpikes records detected spike candidates for a mode.
func (r *Recorder) RecordSpikes(mode string, count int) {
	r.spikesTotal.WithLabelValues(mode).Add(float64(count))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
