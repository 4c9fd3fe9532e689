package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	prometheus.MustRegister(collectors.NewDBStatsCollector(db, "source"))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "source_newest_point_age_seconds",
			Help: "Age of the newest telemetry point in the source database",
		},
		func() float64 {
			return queryFloat(db, logger, "SELECT COALESCE(EXTRACT(EPOCH FROM (now() - MAX(ts))), 0) FROM telemetry_points")
		},
	))
}

func queryFloat(db *sql.DB, logger *zap.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var value float64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.Error(err))
		}
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}
