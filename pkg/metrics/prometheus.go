// Package metrics provides Prometheus metrics for the curator sampling runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a curation run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Fetch metrics - remote catalog ingestion
	pagesFetched   prometheus.Counter
	entriesFetched prometheus.Counter
	fetchRetries   prometheus.Counter
	malformedHits  prometheus.Counter
	fetchDuration  prometheus.Histogram

	// Population metrics
	populationSize  prometheus.Gauge
	groupSize       *prometheus.GaugeVec
	distinctAuthors prometheus.Gauge

	// Sampling metrics
	samplesProduced       prometheus.Counter
	sampleDuration        prometheus.Histogram
	sampleDeficitFills    prometheus.Counter
	sampleShortfalls      prometheus.Counter
	sampleDistinctAuthors *prometheus.GaugeVec

	// Manifest metrics
	manifestsWritten    *prometheus.CounterVec
	manifestWriteErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "curator",
		subsystem:        "sampling",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.pagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pages_fetched_total",
		Help:      "Total number of catalog pages fetched",
	})

	m.entriesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_fetched_total",
		Help:      "Total number of catalog entries fetched",
	})

	m.fetchRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_retries_total",
		Help:      "Total number of page fetches retried after transient failures",
	})

	m.malformedHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_hits_total",
		Help:      "Total number of raw hits rejected for missing identity fields",
	})

	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_duration_seconds",
		Help:      "Histogram of full population fetch duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.populationSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "population_size",
		Help:      "Number of records in the fetched population",
	})

	m.groupSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "population_group_size",
			Help:      "Number of records per stratification group",
		},
		[]string{"group"},
	)

	m.distinctAuthors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "population_distinct_authors",
		Help:      "Number of distinct author identities in the population",
	})

	m.samplesProduced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_produced_total",
		Help:      "Total number of samples produced",
	})

	m.sampleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sample_duration_seconds",
		Help:      "Histogram of per-sample selection duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.sampleDeficitFills = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sample_deficit_fill_records_total",
		Help:      "Total records added by the population-wide deficit fill",
	})

	m.sampleShortfalls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sample_shortfalls_total",
		Help:      "Total samples clamped to the population size",
	})

	m.sampleDistinctAuthors = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sample_distinct_authors",
			Help:      "Distinct author identities per produced sample",
		},
		[]string{"size"},
	)

	m.manifestsWritten = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "manifests_written_total",
			Help:      "Total manifest files written by format",
		},
		[]string{"format"},
	)

	m.manifestWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "manifest_write_errors_total",
		Help:      "Total manifest write failures",
	})
}

// Fetch metrics functions.

// RecordPageFetched increments the page counter and adds the page's entries.
func RecordPageFetched(entries int) {
	if globalManager.enabled {
		globalManager.pagesFetched.Inc()
		globalManager.entriesFetched.Add(float64(entries))
	}
}

// RecordFetchRetry increments the fetch retry counter.
func RecordFetchRetry() {
	if globalManager.enabled {
		globalManager.fetchRetries.Inc()
	}
}

// RecordMalformedHit increments the malformed hit counter.
func RecordMalformedHit() {
	if globalManager.enabled {
		globalManager.malformedHits.Inc()
	}
}

// ObserveFetchDuration records the full fetch duration in seconds.
func ObserveFetchDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.fetchDuration.Observe(seconds)
	}
}

// Population metrics functions.

// SetPopulationSize sets the fetched population size.
func SetPopulationSize(n int) {
	if globalManager.enabled {
		globalManager.populationSize.Set(float64(n))
	}
}

// SetGroupSize sets the record count for one stratification group.
func SetGroupSize(group string, n int) {
	if globalManager.enabled {
		globalManager.groupSize.WithLabelValues(group).Set(float64(n))
	}
}

// SetDistinctAuthors sets the population-wide distinct author count.
func SetDistinctAuthors(n int) {
	if globalManager.enabled {
		globalManager.distinctAuthors.Set(float64(n))
	}
}

// Sampling metrics functions.

// RecordSampleProduced increments the sample counter.
func RecordSampleProduced() {
	if globalManager.enabled {
		globalManager.samplesProduced.Inc()
	}
}

// ObserveSampleDuration records one sample's selection duration in seconds.
func ObserveSampleDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.sampleDuration.Observe(seconds)
	}
}

// AddDeficitFillRecords adds the number of records drawn by the deficit fill.
func AddDeficitFillRecords(n int) {
	if globalManager.enabled {
		globalManager.sampleDeficitFills.Add(float64(n))
	}
}

// RecordSampleShortfall increments the clamped-sample counter.
func RecordSampleShortfall() {
	if globalManager.enabled {
		globalManager.sampleShortfalls.Inc()
	}
}

// SetSampleDistinctAuthors sets the distinct author count for one sample size.
func SetSampleDistinctAuthors(size string, n int) {
	if globalManager.enabled {
		globalManager.sampleDistinctAuthors.WithLabelValues(size).Set(float64(n))
	}
}

// Manifest metrics functions.

// RecordManifestWritten increments the written-manifest counter for a format.
func RecordManifestWritten(format string) {
	if globalManager.enabled {
		globalManager.manifestsWritten.WithLabelValues(format).Inc()
	}
}

// RecordManifestWriteError increments the manifest write error counter.
func RecordManifestWriteError() {
	if globalManager.enabled {
		globalManager.manifestWriteErrors.Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
