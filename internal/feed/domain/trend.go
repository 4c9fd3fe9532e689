package feed

// Trend is an ordinary least squares line of value against window index.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at a 0-based window index.
func (t Trend) At(index int) float64 {
	return t.Slope*float64(index) + t.Intercept
}

// FitTrend fits values against their 0-based positions. It reports ok=false
// when fewer than two values are given.
func FitTrend(values []float64) (Trend, bool) {
	n := len(values)
	if n < 2 {
		return Trend{}, false
	}
	var sumX, sumY float64
	for i, v := range values {
		sumX += float64(i)
		sumY += v
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for i, v := range values {
		dx := float64(i) - meanX
		sxx += dx * dx
		sxy += dx * (v - meanY)
	}
	// sxx > 0 whenever n >= 2 because x is 0..n-1.
	slope := sxy / sxx
	return Trend{Slope: slope, Intercept: meanY - slope*meanX}, true
}
