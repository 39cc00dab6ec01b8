package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	selectionReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesel",
			Name:      "selections_total",
			Help:      "Total selection requests by result (ok, syntax, semantic, error)",
		},
		[]string{"result"},
	)

	selectionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pagesel",
			Name:      "selection_duration_seconds",
			Help:      "Duration of expression parsing and evaluation",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pagesSelected = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pagesel",
			Name:      "pages_selected",
			Help:      "Number of pages selected per successful request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	skippedParts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pagesel",
			Name:      "skipped_parts_total",
			Help:      "Comma parts dropped in skip-invalid mode",
		},
	)

	factLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pagesel",
			Name:      "fact_extraction_duration_seconds",
			Help:      "Duration of page fact extraction by fact (text, images, size)",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"fact"},
	)

	factErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesel",
			Name:      "fact_extraction_errors_total",
			Help:      "Failed page fact extractions by fact",
		},
		[]string{"fact"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesel",
			Name:      "fact_cache_lookups_total",
			Help:      "Fact cache lookups by fact and result (hit, miss)",
		},
		[]string{"fact", "result"},
	)

	documentsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesel",
			Name:      "documents_fetched_total",
			Help:      "Documents resolved by scheme and result",
		},
		[]string{"scheme", "result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(selectionReqs, selectionLatency, pagesSelected, skippedParts, factLatency, factErrors, cacheLookups, documentsFetched)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveSelection(result string, dur time.Duration) {
	selectionReqs.WithLabelValues(result).Inc()
	selectionLatency.Observe(dur.Seconds())
}

func ObservePages(n int) { pagesSelected.Observe(float64(n)) }
func AddSkipped(n int)   { skippedParts.Add(float64(n)) }

func ObserveFact(fact string, dur time.Duration, err error) {
	factLatency.WithLabelValues(fact).Observe(dur.Seconds())
	if err != nil {
		factErrors.WithLabelValues(fact).Inc()
	}
}

func ObserveCache(fact string, hit bool) {
	cacheLookups.WithLabelValues(fact, hitToStr(hit)).Inc()
}

func ObserveFetch(scheme string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	documentsFetched.WithLabelValues(scheme, result).Inc()
}

func hitToStr(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
