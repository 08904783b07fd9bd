package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assessment_duration_seconds",
		Help:    "Time taken to produce a risk assessment",
		Buckets: prometheus.DefBuckets,
	})

	AssessmentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assessment_requests_total",
		Help: "Total number of risk assessment requests",
	}, []string{"status"})

	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assessment_fallback_total",
		Help: "Number of assessments that used the deterministic fallback",
	})

	RetrievalResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retrieval_results_count",
		Help:    "Number of context snippets returned per retrieval",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by outcome",
	}, []string{"result"})

	RecordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "records_ingested_total",
		Help: "Structured records ingested by category",
	}, []string{"category"})

	CorpusSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corpus_size",
		Help: "Number of text snippets in the active corpus",
	})

	IngestionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestion_duration_seconds",
		Help:    "Time taken for a full ingestion run",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Handler exposes the prometheus registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
