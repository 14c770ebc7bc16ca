package orchestrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for analysis runs.
type Metrics struct {
	ChunksProcessedTotal *prometheus.CounterVec
	DimensionSeconds     *prometheus.HistogramVec
	PipelineRunsTotal    *prometheus.CounterVec
	PipelineSeconds      *prometheus.HistogramVec
	SegmentsTotal        prometheus.Counter
}

// DefaultMetrics creates metrics on the default registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of analysis metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChunksProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_chunks_processed_total",
				Help: "Chunk analyses per dimension and outcome",
			},
			[]string{"dimension", "status"},
		),
		DimensionSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_dimension_seconds",
				Help:    "Wall time per analysis dimension",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"dimension"},
		),
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "End-to-end pipeline runs by outcome",
			},
			[]string{"status"},
		),
		PipelineSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_run_seconds",
				Help:    "End-to-end pipeline latency",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"path"},
		),
		SegmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_segments_transcribed_total",
				Help: "Media segments sent for transcription",
			},
		),
	}
}
