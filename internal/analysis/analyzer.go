// Package analysis provides pure, stateless statistics over normalized
// price series. Every function recomputes from scratch; nothing here
// keeps state between calls.
package analysis

import (
	"math"
	"sort"

	"cropintel/internal/pricing"
)

// trendDeadbandPct is the fixed band inside which movement counts as
// stable.
const trendDeadbandPct = 2.0

// Analyze computes the full statistics block for a series. The input
// does not need to be ordered; it is sorted oldest-first by timestamp.
func Analyze(prices []pricing.NormalizedPrice) (pricing.Analysis, error) {
	if len(prices) == 0 {
		return pricing.Analysis{}, pricing.NewError(pricing.CodeInvalidInput, "no price data provided for analysis")
	}

	sorted := make([]pricing.NormalizedPrice, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	values := make([]float64, len(sorted))
	for i, p := range sorted {
		values[i] = p.NormalizedPrice.InexactFloat64()
	}

	first := values[0]
	current := values[len(values)-1]

	changePct := 0.0
	if first != 0 {
		changePct = (current - first) / first * 100
	}

	minPrice, maxPrice := values[0], values[0]
	for _, v := range values[1:] {
		minPrice = math.Min(minPrice, v)
		maxPrice = math.Max(maxPrice, v)
	}

	return pricing.Analysis{
		CurrentPrice:   current,
		AveragePrice:   mean(values),
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		PriceChangePct: changePct,
		Trend:          classifyTrend(changePct),
		Volatility:     Volatility(values),
		AnomalyScore:   anomalyScore(values),
	}, nil
}

func classifyTrend(changePct float64) pricing.Trend {
	switch {
	case changePct > trendDeadbandPct:
		return pricing.TrendRising
	case changePct < -trendDeadbandPct:
		return pricing.TrendFalling
	default:
		return pricing.TrendStable
	}
}

// Volatility is the sample standard deviation of period-over-period
// returns. Fewer than two points yields zero.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		}
	}
	if len(returns) < 2 {
		return 0
	}
	avg := mean(returns)
	var sum float64
	for _, r := range returns {
		sum += (r - avg) * (r - avg)
	}
	return math.Sqrt(sum / float64(len(returns)-1))
}

// SMA returns the simple moving averages over the given window. A series
// shorter than the window is an INVALID_INPUT error: no partial windows.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, pricing.NewError(pricing.CodeInvalidInput, "sma period must be positive")
	}
	if len(values) < period {
		return nil, pricing.NewError(pricing.CodeInvalidInput, "not enough data points for sma window")
	}
	out := make([]float64, 0, len(values)-period+1)
	var window float64
	for i, v := range values {
		window += v
		if i >= period {
			window -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, window/float64(period))
		}
	}
	return out, nil
}

// Anomaly is one outlier flagged by DetectAnomalies.
type Anomaly struct {
	Index  int
	Price  pricing.NormalizedPrice
	ZScore float64
}

// DetectAnomalies flags points whose z-score against the series mean
// exceeds threshold. Series shorter than three points have no anomalies
// by definition.
func DetectAnomalies(prices []pricing.NormalizedPrice, threshold float64) []Anomaly {
	if len(prices) < 3 {
		return nil
	}
	if threshold <= 0 {
		threshold = 2.5
	}
	values := make([]float64, len(prices))
	for i, p := range prices {
		values[i] = p.NormalizedPrice.InexactFloat64()
	}
	avg := mean(values)
	stdev := populationStdev(values)
	if stdev == 0 {
		return nil
	}

	var anomalies []Anomaly
	for i, v := range values {
		z := math.Abs((v - avg) / stdev)
		if z > threshold {
			anomalies = append(anomalies, Anomaly{Index: i, Price: prices[i], ZScore: z})
		}
	}
	return anomalies
}

// anomalyScore grades the latest point with a MAD-based modified
// z-score, scaled into [0,1]. Fewer than three points score zero.
func anomalyScore(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	latest := values[len(values)-1]
	med := median(values)

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	mad := median(deviations)
	if mad == 0 {
		if latest == med {
			return 0
		}
		return 1
	}

	modifiedZ := 0.6745 * (latest - med) / (1.4826 * mad)
	return clamp01(math.Abs(modifiedZ) / 5)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func populationStdev(values []float64) float64 {
	avg := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - avg) * (v - avg)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
