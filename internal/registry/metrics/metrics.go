package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the institution registry index.
type Metrics struct {
	// Load latency and outcomes
	LoadDuration prometheus.Histogram
	Loads        *prometheus.CounterVec

	// Size of the current index and rows dropped while building it
	Records     prometheus.Gauge
	RowsSkipped *prometheus.CounterVec

	// Cache invalidations by origin (http, redis, cli)
	Invalidations *prometheus.CounterVec

	// Query latency and result sizes
	SearchDuration prometheus.Histogram
	SearchResults  prometheus.Histogram
}

// New creates the registry metrics and registers them on reg. A nil
// Registerer creates unregistered collectors, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_registry_load_duration_seconds",
			Help:    "Duration of full registry file loads",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Loads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_registry_loads_total",
			Help: "Registry loads by result",
		}, []string{"result"}), // result: "ok", "unavailable"

		Records: factory.NewGauge(prometheus.GaugeOpts{
			Name: "intake_registry_records",
			Help: "Number of institutions in the most recently loaded registry",
		}),
		RowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_registry_rows_skipped_total",
			Help: "Registry data rows dropped during loads, by reason",
		}, []string{"reason"}),

		Invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_registry_invalidations_total",
			Help: "Registry cache invalidations by origin",
		}, []string{"source"}),

		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_registry_search_duration_seconds",
			Help:    "Duration of institution searches including any lazy load",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_registry_search_results",
			Help:    "Number of records returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		}),
	}
}

// ObserveLoad records one registry load.
func (m *Metrics) ObserveLoad(d time.Duration, records int, ok bool) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(d.Seconds())
	result := "ok"
	if !ok {
		result = "unavailable"
	}
	m.Loads.WithLabelValues(result).Inc()
	m.Records.Set(float64(records))
}

// AddSkipped records rows dropped for reason during a load.
func (m *Metrics) AddSkipped(reason string, n int) {
	if m != nil && n > 0 {
		m.RowsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// IncrementInvalidation records a cache invalidation from source.
func (m *Metrics) IncrementInvalidation(source string) {
	if m != nil {
		m.Invalidations.WithLabelValues(source).Inc()
	}
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(d time.Duration, results int) {
	if m != nil {
		m.SearchDuration.Observe(d.Seconds())
		m.SearchResults.Observe(float64(results))
	}
}
