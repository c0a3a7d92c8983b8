package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder tracks invocation outcomes for Prometheus scraping. It owns its
// registry so multiple recorders can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry
	started  time.Time

	invocationsTotal   *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	outputBytes        prometheus.Histogram
	truncationsTotal   prometheus.Counter
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wasmact_invocations_total",
				Help: "Total component invocations by outcome",
			},
			[]string{"outcome"},
		),
		invocationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wasmact_invocation_duration_seconds",
				Help:    "Wall-clock duration of component invocations",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		outputBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wasmact_invocation_output_bytes",
				Help:    "Size of captured component output",
				Buckets: prometheus.ExponentialBuckets(64, 4, 10),
			},
		),
		truncationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wasmact_output_truncations_total",
				Help: "Invocations whose output exceeded the capture limit",
			},
		),
	}

	r.registry.MustRegister(r.invocationsTotal)
	r.registry.MustRegister(r.invocationDuration)
	r.registry.MustRegister(r.outputBytes)
	r.registry.MustRegister(r.truncationsTotal)

	return r
}

// RecordInvocation records one finished invocation
func (r *Recorder) RecordInvocation(outcome string, seconds float64, outputBytes int) {
	r.invocationsTotal.WithLabelValues(outcome).Inc()
	r.invocationDuration.Observe(seconds)
	r.outputBytes.Observe(float64(outputBytes))
}

// RecordTruncation counts an invocation whose output was cut at the cap
func (r *Recorder) RecordTruncation() {
	r.truncationsTotal.Inc()
}

// Handler exposes the metrics in Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Uptime is derived on the fly rather than kept as a gauge
		fmt.Fprintf(w, "# HELP wasmact_uptime_seconds Time since the process started\n")
		fmt.Fprintf(w, "# TYPE wasmact_uptime_seconds gauge\n")
		fmt.Fprintf(w, "wasmact_uptime_seconds %.0f\n\n", time.Since(r.started).Seconds())

		metricFamilies, err := r.registry.Gather()
		if err != nil {
			fmt.Fprintf(w, "# Error gathering metrics: %v\n", err)
			return
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range metricFamilies {
			if err := encoder.Encode(mf); err != nil {
				fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
			}
		}

		w.Write(buf.Bytes())
	})
}
