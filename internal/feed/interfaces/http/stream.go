package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	feed "antarctic-explorer/internal/feed/domain"
	"antarctic-explorer/internal/observability/logging"
	"antarctic-explorer/internal/observability/metrics"
)

const clientBuffer = 16

// SSEBroker fans out snapshots to connected stream clients.
type SSEBroker struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	logger  *zap.Logger
}

// NewSSEBroker constructs a broker.
func NewSSEBroker(logger *zap.Logger) *SSEBroker {
	return &SSEBroker{clients: make(map[chan []byte]struct{}), logger: logging.OrNop(logger)}
}

// Notify implements application.Notifier.
func (b *SSEBroker) Notify(_ context.Context, snap *feed.Snapshot) {
	if b == nil || snap == nil {
		return
	}
	payload, err := json.Marshal(newSnapshotView(snap))
	if err != nil {
		b.logger.Warn("stream encode failed", zap.Uint64("tick", snap.Tick), zap.Error(err))
		return
	}
	b.broadcast(payload)
}

// Subscribe registers a new client channel.
func (b *SSEBroker) Subscribe() chan []byte {
	if b == nil {
		return nil
	}
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	metrics.AddStreamClients(1)
	return ch
}

// Unsubscribe removes and closes a client channel. Sends and closes both
// happen under b.mu, so a broadcast never hits a closed channel.
func (b *SSEBroker) Unsubscribe(ch chan []byte) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	_, ok := b.clients[ch]
	if ok {
		delete(b.clients, ch)
		close(ch)
	}
	b.mu.Unlock()
	if ok {
		metrics.AddStreamClients(-1)
	}
}

// Clients returns the number of connected clients.
func (b *SSEBroker) Clients() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *SSEBroker) broadcast(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			b.logger.Debug("stream client lagging, snapshot dropped")
		}
	}
}

// StreamHandler serves the snapshot event stream.
type StreamHandler struct {
	broker *SSEBroker
	feed   FeedReader
}

// NewStreamHandler constructs a stream handler. The current snapshot, if
// any, is sent right after the ready event.
func NewStreamHandler(broker *SSEBroker, reader FeedReader) *StreamHandler {
	return &StreamHandler{broker: broker, feed: reader}
}

// ServeHTTP handles GET /api/v1/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	ch := h.broker.Subscribe()
	if ch == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	defer h.broker.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	if h.feed != nil {
		if snap := h.feed.Snapshot(r.Context()); !snap.Empty() {
			if payload, err := json.Marshal(newSnapshotView(snap)); err == nil {
				writeEvent(w, "snapshot", payload)
			}
		}
	}
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "snapshot", payload)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload []byte) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n\n"))
}
