package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder groups the analyzer's Prometheus collectors. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	uploads      *prometheus.CounterVec
	queries      *prometheus.CounterVec
	observations *prometheus.CounterVec
	ocrImages    *prometheus.CounterVec
	pipeline     prometheus.Histogram
}

func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tesis",
			Name:      "uploads_total",
			Help:      "Thesis uploads by outcome.",
		}, []string{"result"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tesis",
			Name:      "queries_total",
			Help:      "Answered questions by resolving strategy.",
		}, []string{"strategy"}),
		observations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tesis",
			Name:      "observations_total",
			Help:      "Review observations emitted by type.",
		}, []string{"type"}),
		ocrImages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tesis",
			Name:      "ocr_images_total",
			Help:      "Embedded images sent to OCR by outcome.",
		}, []string{"result"}),
		pipeline: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tesis",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a full document analysis.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
}

func (r *Recorder) Upload(result string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(result).Inc()
}

func (r *Recorder) Query(strategy string) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(strategy).Inc()
}

func (r *Recorder) Observation(typ string) {
	if r == nil {
		return
	}
	r.observations.WithLabelValues(typ).Inc()
}

func (r *Recorder) OCRImage(result string) {
	if r == nil {
		return
	}
	r.ocrImages.WithLabelValues(result).Inc()
}

func (r *Recorder) PipelineSeconds(s float64) {
	if r == nil {
		return
	}
	r.pipeline.Observe(s)
}
