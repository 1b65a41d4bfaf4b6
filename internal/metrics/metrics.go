// Package metrics records characterization statistics in a Prometheus
// registry. A Recorder is handed to the framework as its observer and can
// be written out in the node_exporter textfile format after a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jhove2/internal/format"
	"jhove2/internal/source"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// Recorder implements framework.Observer.
type Recorder struct {
	registry *prometheus.Registry

	// Sources characterized by kind
	Sources *prometheus.CounterVec

	// Messages attached to characterized sources by severity
	Messages *prometheus.CounterVec

	// Sources whose validity came out Invalid
	InvalidSources prometheus.Counter

	// Time spent inside each module
	ModuleLatency *prometheus.HistogramVec

	// Time spent inside each clump recognizer
	RecognizerLatency *prometheus.HistogramVec

	// Aggrefier identify/apply rounds and the candidates they produced
	Rounds     prometheus.Counter
	Candidates prometheus.Counter

	// Clumps formed by format
	Clumps *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		Sources: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jhove2_sources_total",
			Help: "Sources characterized by kind",
		}, []string{"kind"}),

		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jhove2_messages_total",
			Help: "Messages attached to characterized sources by severity",
		}, []string{"severity"}),

		InvalidSources: factory.NewCounter(prometheus.CounterOpts{
			Name: "jhove2_invalid_sources_total",
			Help: "Sources found invalid against their format",
		}),

		ModuleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jhove2_module_duration_seconds",
			Help:    "Duration of module invocations by module name",
			Buckets: durationBuckets,
		}, []string{"module"}),

		RecognizerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jhove2_recognizer_duration_seconds",
			Help:    "Duration of clump recognizer passes by recognizer name",
			Buckets: durationBuckets,
		}, []string{"recognizer"}),

		Rounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "jhove2_aggrefier_rounds_total",
			Help: "Clump discovery rounds run",
		}),

		Candidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "jhove2_aggrefier_candidates_total",
			Help: "Clump candidates proposed across all rounds",
		}),

		Clumps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jhove2_clumps_total",
			Help: "Clumps formed by format",
		}, []string{"format"}),
	}
}

// Registry returns the registry backing r.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// SourceCharacterized counts src, its messages, and its validity.
func (r *Recorder) SourceCharacterized(src source.Source, _ time.Duration) {
	if r == nil {
		return
	}
	r.Sources.WithLabelValues(src.Kind().String()).Inc()
	for _, m := range src.Messages() {
		r.Messages.WithLabelValues(m.Severity.String()).Inc()
	}
	if src.Validity() == source.Invalid {
		r.InvalidSources.Inc()
	}
}

// ModuleFinished records one module invocation.
func (r *Recorder) ModuleFinished(name string, elapsed time.Duration) {
	if r != nil {
		r.ModuleLatency.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

// RecognizerFinished records one recognizer pass.
func (r *Recorder) RecognizerFinished(name string, elapsed time.Duration) {
	if r != nil {
		r.RecognizerLatency.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

// RoundCompleted records one aggrefier round.
func (r *Recorder) RoundCompleted(candidates int) {
	if r != nil {
		r.Rounds.Inc()
		r.Candidates.Add(float64(candidates))
	}
}

// ClumpFormed counts a clump of format f.
func (r *Recorder) ClumpFormed(f format.Format) {
	if r != nil {
		r.Clumps.WithLabelValues(f.Name).Inc()
	}
}

// WriteTextfile writes every metric to path in the Prometheus text
// exposition format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
