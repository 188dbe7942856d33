// Package metrics exports pipeline and provider observations to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/ports"
)

const namespace = "linkedlens"

// Recorder implements ports.Metrics on its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	providerCalls *prometheus.CounterVec
	posts         *prometheus.GaugeVec
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder registers all collectors, including Go runtime and process metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of analysis runs, skipped runs excluded.",
			Buckets:   []float64{0.05, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Classification service attempts by provider and HTTP status (0 for transport errors).",
		}, []string{"provider", "status"}),
		posts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "posts",
			Help:      "Posts of the last successful run by classification.",
		}, []string{"classification"}),
	}

	r.registry.MustRegister(
		r.runs,
		r.runDuration,
		r.providerCalls,
		r.posts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RunFinished counts a run; skipped runs do not contribute to the duration histogram.
func (r *Recorder) RunFinished(outcome string, d time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		r.runDuration.Observe(d.Seconds())
	}
}

// PostsClassified publishes the stats of the latest successful run.
func (r *Recorder) PostsClassified(stats domain.Stats) {
	r.posts.WithLabelValues("total").Set(float64(stats.Total))
	r.posts.WithLabelValues(string(domain.ClassificationEngagementBait)).Set(float64(stats.Bait))
	r.posts.WithLabelValues(string(domain.ClassificationGenuineValue)).Set(float64(stats.Genuine))
	r.posts.WithLabelValues("unclassified").Set(float64(stats.Total - stats.Bait - stats.Genuine))
}

// ProviderCall counts one network attempt.
func (r *Recorder) ProviderCall(provider string, status int, err error) {
	if err != nil {
		status = 0
	}
	r.providerCalls.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
