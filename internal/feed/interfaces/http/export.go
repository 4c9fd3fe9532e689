package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	feed "antarctic-explorer/internal/feed/domain"
	"antarctic-explorer/internal/observability/logging"
	"antarctic-explorer/internal/observability/metrics"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	readingsSheet = "readings"
	summarySheet  = "summary"
)

// BuildReadingsCSV renders the snapshot table as CSV.
func BuildReadingsCSV(snap *feed.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(feed.TableColumns); err != nil {
		return nil, err
	}
	for _, row := range snap.Table {
		if err := writer.Write([]string{strconv.FormatFloat(row.Value, 'f', -1, 64), row.Timestamp}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReadingsXLSX renders the snapshot as a workbook with a readings
// sheet and a summary sheet.
func BuildReadingsXLSX(snap *feed.Snapshot, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", readingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(readingsSheet, "A1", "index")
	for i, column := range feed.TableColumns {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(readingsSheet, cell, column)
	}
	trendLine := snap.TrendLine()
	if trendLine != nil {
		_ = f.SetCellValue(readingsSheet, "D1", "trend")
	}
	for i, row := range snap.Table {
		r := i + 2
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("A%d", r), i)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("B%d", r), row.Value)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("C%d", r), row.Timestamp)
		if trendLine != nil {
			_ = f.SetCellValue(readingsSheet, fmt.Sprintf("D%d", r), trendLine[i])
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", title)
	_ = f.SetCellValue(summarySheet, "A3", "Tick")
	_ = f.SetCellValue(summarySheet, "B3", snap.Tick)
	_ = f.SetCellValue(summarySheet, "A4", "Readings")
	_ = f.SetCellValue(summarySheet, "B4", len(snap.Table))
	_ = f.SetCellValue(summarySheet, "A5", "Latest")
	_ = f.SetCellValue(summarySheet, "A6", "Latest Timestamp")
	if latest, err := snap.LatestSample(); err == nil {
		_ = f.SetCellValue(summarySheet, "B5", latest.Value)
		_ = f.SetCellValue(summarySheet, "B6", latest.Timestamp)
	}
	_ = f.SetCellValue(summarySheet, "A7", "Trend Slope")
	_ = f.SetCellValue(summarySheet, "A8", "Trend Intercept")
	if snap.Trend != nil {
		_ = f.SetCellValue(summarySheet, "B7", snap.Trend.Slope)
		_ = f.SetCellValue(summarySheet, "B8", snap.Trend.Intercept)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportPDF renders the latest reading, the trend, a scatter chart
// with its regression line and the readings table.
func BuildReportPDF(snap *feed.Snapshot, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tick: %d", snap.Tick))
	pdf.Ln(5)
	if latest, err := snap.LatestSample(); err == nil {
		pdf.Cell(0, 6, fmt.Sprintf("Current Temperature: %s", FormatTemperature(latest.Value)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Current Date and Time: %s", latest.Timestamp))
		pdf.Ln(5)
	} else {
		pdf.Cell(0, 6, "No readings yet")
		pdf.Ln(5)
	}
	if snap.Trend != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Trend: %.4f C/reading, intercept %.3f C", snap.Trend.Slope, snap.Trend.Intercept))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	if len(snap.Window) > 0 {
		drawPDFChart(pdf, layoutPlot(snap, plotArea{Left: 30, Top: pdf.GetY() + 8, Width: 160, Height: 70}))
	}

	// Readings table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Temperature (C)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, row := range snap.Table {
		pdf.CellFormat(20, 6, strconv.Itoa(i), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, strconv.FormatFloat(row.Value, 'f', -1, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, row.Timestamp, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawPDFChart(pdf *gofpdf.Fpdf, layout plotLayout) {
	area := layout.Area
	pdf.SetFont("Arial", "B", 10)
	pdf.Text(area.Left, area.Top-3, "Temperature Readings with Regression Line")
	pdf.SetFont("Arial", "", 7)

	pdf.SetDrawColor(160, 160, 160)
	pdf.SetLineWidth(0.2)
	pdf.Rect(area.Left, area.Top, area.Width, area.Height, "D")
	for _, tick := range layout.YTicks {
		pdf.Line(area.Left-1, tick.Y, area.Left, tick.Y)
		pdf.Text(area.Left-12, tick.Y+1, tick.Label)
	}
	pdf.Text(area.Left, area.Top+area.Height+4, layout.First)
	pdf.Text(area.Left+area.Width-12, area.Top+area.Height+4, layout.Last)

	pdf.SetFillColor(105, 105, 105)
	for _, point := range layout.Points {
		pdf.Circle(point.X, point.Y, 0.8, "F")
	}
	if layout.Trend != nil {
		pdf.SetDrawColor(220, 60, 60)
		pdf.SetLineWidth(0.4)
		pdf.Line(layout.Trend.X1, layout.Trend.Y1, layout.Trend.X2, layout.Trend.Y2)
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.SetY(area.Top + area.Height + 8)
}

// ExportHandler serves readings exports.
type ExportHandler struct {
	feed   FeedReader
	title  string
	logger *zap.Logger
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(reader FeedReader, title string, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{feed: reader, title: title, logger: logging.OrNop(logger)}
}

// CSV handles GET /api/v1/exports/readings.csv.
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, FormatCSV, "text/csv", "readings.csv", BuildReadingsCSV)
}

// XLSX handles GET /api/v1/exports/readings.xlsx.
func (h *ExportHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, FormatXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "readings.xlsx", func(snap *feed.Snapshot) ([]byte, error) {
		return BuildReadingsXLSX(snap, h.title)
	})
}

// PDF handles GET /api/v1/exports/report.pdf.
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, FormatPDF, "application/pdf", "report.pdf", func(snap *feed.Snapshot) ([]byte, error) {
		return BuildReportPDF(snap, h.title)
	})
}

func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, format, contentType, filename string, build func(*feed.Snapshot) ([]byte, error)) {
	if h == nil || h.feed == nil {
		http.Error(w, "feed not ready", http.StatusServiceUnavailable)
		return
	}
	start := time.Now()
	snap := h.feed.Snapshot(r.Context())
	payload, err := build(snap)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		h.logger.Error("export failed", zap.String("format", format), zap.Uint64("tick", snap.Tick), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
