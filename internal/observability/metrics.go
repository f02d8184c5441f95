package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cat_sightings"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Sheet fetch metrics.
	FetchAttempts prometheus.Counter
	FetchFailures prometheus.Counter
	FetchDuration prometheus.Histogram

	// Conversion metrics.
	RowsConverted   prometheus.Counter
	MalformedRows   prometheus.Counter
	FlagWarnings    prometheus.Counter
	SightingsCached prometheus.Gauge

	// View metrics.
	Renders      *prometheus.CounterVec // labels: kind={view,preview}
	StaleRenders prometheus.Counter
	CSVExports   prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward}
	GeocodeEnabled     prometheus.Gauge

	// Sighting feed metrics.
	FeedPublished prometheus.Counter
	FeedErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.FetchAttempts,
		m.FetchFailures,
		m.FetchDuration,
		m.RowsConverted,
		m.MalformedRows,
		m.FlagWarnings,
		m.SightingsCached,
		m.Renders,
		m.StaleRenders,
		m.CSVExports,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.FeedPublished,
		m.FeedErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		FetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      help("Sheet fetch attempts, including retries."),
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      help("Sheet loads that failed after all retries."),
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("Duration of a complete sheet load including retries."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_converted_total",
			Help:      help("Sheet rows converted into sightings."),
		}),
		MalformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_rows_total",
			Help:      help("Sheet rows with an unparseable id, timestamp or position."),
		}),
		FlagWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flag_warnings_total",
			Help:      help("Behavior cells that were neither TRUE nor FALSE."),
		}),
		SightingsCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sightings_cached",
			Help:      help("Number of sightings in the cached dataset."),
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      help("Projections computed, by kind."),
		}, []string{"kind"}),
		StaleRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_renders_total",
			Help:      help("Renders discarded because a newer one was already published."),
		}),
		CSVExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_exports_total",
			Help:      help("CSV downloads served."),
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by method and outcome."),
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by method and result."),
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when place-name region lookup is enabled, 0 otherwise."),
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_published_total",
			Help:      help("Sightings written to the Kafka feed."),
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_errors_total",
			Help:      help("Failed Kafka feed publishes."),
		}),
	}
}
