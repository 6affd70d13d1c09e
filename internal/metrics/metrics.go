// Package metrics records stage timings and run outcomes as Prometheus
// collectors. A one-shot CLI has no scrape endpoint, so the registry is
// exported through the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the sink the stage executor and router report to.
type Recorder interface {
	ObserveStage(stage string, elapsed time.Duration, failed bool)
	ObserveRun(route string, outcome string)
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveStage(string, time.Duration, bool) {}

func (Nop) ObserveRun(string, string) {}

// Registry is a Recorder backed by a private Prometheus registry.
type Registry struct {
	reg           *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

// New constructs a registry with the hlsenc collectors registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hlsenc",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage invocation.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlsenc",
			Name:      "stage_failures_total",
			Help:      "Stage invocations that reported diagnostics or failed to run.",
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlsenc",
			Name:      "runs_total",
			Help:      "Encode runs by selected route and outcome.",
		}, []string{"route", "outcome"}),
	}
	r.reg.MustRegister(r.stageDuration, r.stageFailures, r.runs)
	return r
}

func (r *Registry) ObserveStage(stage string, elapsed time.Duration, failed bool) {
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if failed {
		r.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (r *Registry) ObserveRun(route string, outcome string) {
	if route == "" {
		route = "none"
	}
	r.runs.WithLabelValues(route, outcome).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile atomically writes the current metric values to path.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
