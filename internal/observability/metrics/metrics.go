package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "dashboard_"

	resultSuccess = "success"
	resultError   = "error"

	readHit  = "hit"
	readMiss = "miss"
)

var (
	registerOnce sync.Once

	regenerationsTotal  *prometheus.CounterVec
	regenerationLatency *prometheus.HistogramVec
	sourceFailures      *prometheus.CounterVec
	snapshotReads       *prometheus.CounterVec

	windowSamples prometheus.Gauge
	latestValue   prometheus.Gauge
	trendSlope    prometheus.Gauge
	currentTick   prometheus.Gauge

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	streamClients prometheus.Gauge
)

// Init registers dashboard metrics and, when db is set, source database gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		regenerationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_regenerations_total",
				Help: "Total feed regenerations by result",
			},
			[]string{"result"},
		)
		regenerationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "feed_regeneration_latency_seconds",
				Help:    "Feed regeneration latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		sourceFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_source_failures_total",
				Help: "Total sample source failures by reason",
			},
			[]string{"reason"},
		)
		snapshotReads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_snapshot_reads_total",
				Help: "Total snapshot reads by memo outcome",
			},
			[]string{"memo"},
		)

		windowSamples = newGauge("feed_window_samples", "Samples currently held in the window")
		latestValue = newGauge("feed_latest_value", "Latest sample value")
		trendSlope = newGauge("feed_trend_slope", "Slope of the fitted trend line per sample")
		currentTick = newGauge("feed_tick", "Tick number of the current snapshot")

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total readings exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Readings export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		streamClients = newGauge("stream_clients", "Connected snapshot stream clients")

		prometheus.MustRegister(
			regenerationsTotal,
			regenerationLatency,
			sourceFailures,
			snapshotReads,
			windowSamples,
			latestValue,
			trendSlope,
			currentTick,
			exportTotal,
			exportLatency,
			streamClients,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: metricPrefix + name, Help: help})
}

// ObserveRegeneration records a regeneration result and duration.
func ObserveRegeneration(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if regenerationsTotal != nil {
		regenerationsTotal.WithLabelValues(result).Inc()
	}
	if regenerationLatency != nil {
		regenerationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSourceFailure increments the source failure counter.
func IncSourceFailure(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if sourceFailures != nil {
		sourceFailures.WithLabelValues(reason).Inc()
	}
}

// IncSnapshotRead counts a snapshot read served from the memo (hit) or
// after a regeneration (miss).
func IncSnapshotRead(hit bool) {
	if snapshotReads == nil {
		return
	}
	if hit {
		snapshotReads.WithLabelValues(readHit).Inc()
		return
	}
	snapshotReads.WithLabelValues(readMiss).Inc()
}

// SetSnapshotGauges publishes the shape of the current snapshot.
func SetSnapshotGauges(tick uint64, samples int, latest float64, slope *float64) {
	if currentTick != nil {
		currentTick.Set(float64(tick))
	}
	if windowSamples != nil {
		windowSamples.Set(float64(samples))
	}
	if latestValue != nil && samples > 0 {
		latestValue.Set(latest)
	}
	if trendSlope != nil && slope != nil {
		trendSlope.Set(*slope)
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// AddStreamClients adjusts the connected stream client gauge.
func AddStreamClients(delta int) {
	if streamClients != nil {
		streamClients.Add(float64(delta))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
