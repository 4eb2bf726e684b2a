package analysis

import (
	"cropintel/internal/pricing"
)

// Indicator parameters for the pro_api response shape.
const (
	rsiPeriod        = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// EMA returns the final exponential moving average of the series, seeded
// with the first value. Empty input yields zero.
func EMA(values []float64, period int) float64 {
	series := emaSeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func emaSeries(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	k := 2 / (float64(period) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI computes the 14-period relative strength index with Wilder
// smoothing. Series without a full period report a neutral 50.
func RSI(values []float64) float64 {
	if len(values) < rsiPeriod+1 {
		return 50
	}

	var gains, losses float64
	for i := 1; i <= rsiPeriod; i++ {
		diff := values[i] - values[i-1]
		if diff >= 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / rsiPeriod
	avgLoss := losses / rsiPeriod

	for i := rsiPeriod + 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		if diff >= 0 {
			avgGain = (avgGain*(rsiPeriod-1) + diff) / rsiPeriod
			avgLoss = (avgLoss * (rsiPeriod - 1)) / rsiPeriod
		} else {
			avgGain = (avgGain * (rsiPeriod - 1)) / rsiPeriod
			avgLoss = (avgLoss*(rsiPeriod-1) - diff) / rsiPeriod
		}
	}

	if avgLoss == 0 {
		avgLoss = 0.0001
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ComputeMACD returns the 12/26/9 MACD triple, or nil when the series is
// too short. The signal line is the EMA of the full MACD series from the
// first index where the slow EMA is established; zero-valued MACD points
// are retained.
func ComputeMACD(values []float64) *pricing.MACD {
	if len(values) < macdSlowPeriod+macdSignalPeriod {
		return nil
	}

	fast := emaSeries(values, macdFastPeriod)
	slow := emaSeries(values, macdSlowPeriod)

	macdLine := make([]float64, 0, len(values)-macdSlowPeriod+1)
	for i := macdSlowPeriod - 1; i < len(values); i++ {
		macdLine = append(macdLine, fast[i]-slow[i])
	}

	signal := EMA(macdLine, macdSignalPeriod)
	last := macdLine[len(macdLine)-1]

	return &pricing.MACD{
		MACDLine:   last,
		SignalLine: signal,
		Histogram:  last - signal,
	}
}
