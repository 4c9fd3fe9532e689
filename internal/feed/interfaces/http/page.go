package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	feed "antarctic-explorer/internal/feed/domain"
	"antarctic-explorer/internal/observability/logging"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

const (
	chartWidth  = 720
	chartHeight = 320
)

var dashboardTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"add": func(values ...float64) float64 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	},
	"sub": func(a, b float64) float64 { return a - b },
}).ParseFS(templateFS, "templates/dashboard.html"))

// PageText holds the static dashboard copy.
type PageText struct {
	Title     string
	Heading   string
	Blurb     string
	SourceURL string
}

type pageData struct {
	Text      PageText
	Empty     bool
	Latest    string
	Caption   string
	Timestamp string
	Columns   []string
	Rows      []feed.Row
	Chart     *plotLayout
	Width     int
	Height    int
}

// PageHandler renders the dashboard.
type PageHandler struct {
	feed   FeedReader
	text   PageText
	logger *zap.Logger
}

// NewPageHandler constructs a PageHandler.
func NewPageHandler(reader FeedReader, text PageText, logger *zap.Logger) *PageHandler {
	return &PageHandler{feed: reader, text: text, logger: logging.OrNop(logger)}
}

// ServeHTTP handles GET /.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.feed == nil {
		http.Error(w, "feed not ready", http.StatusServiceUnavailable)
		return
	}
	data := newPageData(h.text, h.feed.Snapshot(r.Context()))

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("render dashboard failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func newPageData(text PageText, snap *feed.Snapshot) pageData {
	data := pageData{
		Text:    text,
		Empty:   snap.Empty(),
		Columns: feed.TableColumns,
		Rows:    snap.Rows(),
		Width:   chartWidth,
		Height:  chartHeight,
	}
	if latest, err := snap.LatestSample(); err == nil {
		data.Latest = FormatTemperature(latest.Value)
		data.Timestamp = latest.Timestamp
		data.Caption = trendCaption(snap.Trend)
	}
	if len(snap.Window) > 0 {
		layout := layoutPlot(snap, plotArea{Left: 60, Top: 24, Width: chartWidth - 80, Height: chartHeight - 56})
		data.Chart = &layout
	}
	return data
}

func trendCaption(trend *feed.Trend) string {
	switch {
	case trend == nil:
		return "collecting readings"
	case trend.Slope > 0:
		return "warming"
	case trend.Slope < 0:
		return "cooling"
	default:
		return "steady"
	}
}
