package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"antarctic-explorer/internal/auth"
	"antarctic-explorer/internal/observability/logging"
)

// RouterConfig wires the dashboard routes.
type RouterConfig struct {
	Feed    FeedController
	Broker  *SSEBroker
	Text    PageText
	Auth    *auth.Middleware
	Logger  *zap.Logger
	Metrics http.Handler
}

// NewRouter builds the dashboard HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := logging.OrNop(cfg.Logger)
	api := NewAPIHandler(cfg.Feed, logger)
	exports := NewExportHandler(cfg.Feed, cfg.Text.Title, logger)

	r := mux.NewRouter()
	r.Handle("/", NewPageHandler(cfg.Feed, cfg.Text, logger)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/latest", api.Latest).Methods(http.MethodGet)
	v1.HandleFunc("/readings", api.Readings).Methods(http.MethodGet)
	v1.HandleFunc("/chart", api.Chart).Methods(http.MethodGet)
	v1.HandleFunc("/snapshot", api.Snapshot).Methods(http.MethodGet)
	v1.HandleFunc("/feed/status", api.Status).Methods(http.MethodGet)
	v1.HandleFunc("/feed/refresh", api.Refresh).Methods(http.MethodPost)
	v1.Handle("/stream", NewStreamHandler(cfg.Broker, cfg.Feed)).Methods(http.MethodGet)
	v1.HandleFunc("/exports/readings.csv", exports.CSV).Methods(http.MethodGet)
	v1.HandleFunc("/exports/readings.xlsx", exports.XLSX).Methods(http.MethodGet)
	v1.HandleFunc("/exports/report.pdf", exports.PDF).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = cfg.Auth.Wrap(handler)
	handler = LoggingMiddleware(handler, logger)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(handler)
	return handler
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(values ...interface{}) {
	l.logger.Error("http handler panic", zap.Any("panic", values))
}
