package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"antarctic-explorer/internal/auth"
	"antarctic-explorer/internal/feed/application"
	feed "antarctic-explorer/internal/feed/domain"
	"antarctic-explorer/internal/observability/logging"
)

// FeedReader reads the current snapshot.
type FeedReader interface {
	Snapshot(ctx context.Context) *feed.Snapshot
}

// FeedController exposes the feed's operational surface.
type FeedController interface {
	FeedReader
	Status() application.Status
	Refresh(ctx context.Context) *feed.Snapshot
}

// APIHandler serves the JSON views of the feed.
type APIHandler struct {
	feed   FeedController
	logger *zap.Logger
}

// NewAPIHandler constructs an APIHandler.
func NewAPIHandler(controller FeedController, logger *zap.Logger) *APIHandler {
	return &APIHandler{feed: controller, logger: logging.OrNop(logger)}
}

// Latest handles GET /api/v1/latest.
func (h *APIHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	latest, err := h.feed.Snapshot(r.Context()).LatestSample()
	if errors.Is(err, feed.ErrNoDataYet) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, newLatestView(latest))
}

// Readings handles GET /api/v1/readings.
func (h *APIHandler) Readings(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, newReadingsView(h.feed.Snapshot(r.Context())))
}

// Chart handles GET /api/v1/chart.
func (h *APIHandler) Chart(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, newChartView(h.feed.Snapshot(r.Context())))
}

// Snapshot handles GET /api/v1/snapshot.
func (h *APIHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(h.feed.Snapshot(r.Context())))
}

// Status handles GET /api/v1/feed/status.
func (h *APIHandler) Status(w http.ResponseWriter, _ *http.Request) {
	if !h.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.feed.Status())
}

// Refresh handles POST /api/v1/feed/refresh.
func (h *APIHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	snap := h.feed.Refresh(r.Context())
	h.logger.Info("feed refresh requested",
		zap.Uint64("tick", snap.Tick),
		zap.String("subject", auth.SubjectFromContext(r.Context())),
	)
	writeJSON(w, http.StatusOK, newSnapshotView(snap))
}

func (h *APIHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.feed == nil {
		http.Error(w, "feed not ready", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
