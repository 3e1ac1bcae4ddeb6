// Package metrics exposes Prometheus counters for scan and tool activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vulnhawk/pkg/scan"
)

// Recorder implements the orchestrator's Metrics interface on a Prometheus
// registry.
type Recorder struct {
	scansTotal    *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	toolRuns      *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
}

// NewRecorder registers the vulnhawk metrics on the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vulnhawk_scans_total",
			Help: "Completed scans by final status.",
		}, []string{"status"}),
		findingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vulnhawk_findings_total",
			Help: "Aggregated findings by severity.",
		}, []string{"severity"}),
		toolRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vulnhawk_tool_runs_total",
			Help: "Tool invocations by tool and terminal status.",
		}, []string{"tool", "status"}),
		toolDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vulnhawk_tool_duration_seconds",
			Help:    "Wall-clock duration of tool invocations.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"tool"}),
	}
}

func (r *Recorder) ObserveTool(tool string, status scan.InvocationStatus, duration time.Duration) {
	r.toolRuns.WithLabelValues(tool, string(status)).Inc()
	if duration > 0 {
		r.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
	}
}

func (r *Recorder) ObserveScan(result *scan.Result) {
	r.scansTotal.WithLabelValues(string(result.Status)).Inc()
	for _, sev := range scan.Severities {
		if n := result.Summary.Count(sev); n > 0 {
			r.findingsTotal.WithLabelValues(sev.String()).Add(float64(n))
		}
	}
}
