package analysis

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cropintel/internal/pricing"
)

func series(values ...float64) []pricing.NormalizedPrice {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]pricing.NormalizedPrice, len(values))
	for i, v := range values {
		out[i] = pricing.NormalizedPrice{
			RawPrice: pricing.RawPrice{
				Crop:      "maize",
				Location:  "nairobi",
				Price:     decimal.NewFromFloat(v),
				Currency:  pricing.USD,
				Unit:      "kg",
				Source:    "test",
				Timestamp: base.AddDate(0, 0, i),
			},
			NormalizedPrice:    decimal.NewFromFloat(v),
			NormalizedCurrency: pricing.USD,
			ExchangeRate:       decimal.NewFromInt(1),
		}
	}
	return out
}

func TestAnalyzeEmptyInputIsInvalid(t *testing.T) {
	_, err := Analyze(nil)
	if pricing.CodeOf(err) != pricing.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestAnalyzeTrendDeadband(t *testing.T) {
	cases := []struct {
		name  string
		first float64
		last  float64
		want  pricing.Trend
	}{
		{"just inside band up", 100, 101.9, pricing.TrendStable},
		{"just inside band down", 100, 98.1, pricing.TrendStable},
		{"above band", 100, 102.1, pricing.TrendRising},
		{"below band", 100, 97.9, pricing.TrendFalling},
		{"flat", 100, 100, pricing.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Analyze(series(tc.first, tc.last))
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			if a.Trend != tc.want {
				t.Fatalf("change %v -> %v classified %s, want %s", tc.first, tc.last, a.Trend, tc.want)
			}
		})
	}
}

func TestAnalyzeSortsByTimestamp(t *testing.T) {
	prices := series(100, 110, 120)
	// Shuffle so the newest observation arrives first.
	prices[0], prices[2] = prices[2], prices[0]

	a, err := Analyze(prices)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.CurrentPrice != 120 {
		t.Fatalf("current price must follow timestamp order, got %v", a.CurrentPrice)
	}
	if a.Trend != pricing.TrendRising {
		t.Fatalf("expected rising trend, got %s", a.Trend)
	}
	if a.MinPrice != 100 || a.MaxPrice != 120 {
		t.Fatalf("unexpected range: min=%v max=%v", a.MinPrice, a.MaxPrice)
	}
}

func TestAnalyzeZeroFirstPriceGuards(t *testing.T) {
	a, err := Analyze(series(0, 50))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.PriceChangePct != 0 {
		t.Fatalf("zero baseline must yield zero change, got %v", a.PriceChangePct)
	}
}

func TestVolatility(t *testing.T) {
	if v := Volatility([]float64{100}); v != 0 {
		t.Fatalf("single point must have zero volatility, got %v", v)
	}
	if v := Volatility([]float64{100, 100, 100, 100}); v != 0 {
		t.Fatalf("constant series must have zero volatility, got %v", v)
	}

	// Returns are +10% and -10%: sample stdev of {0.1, -0.0909...}.
	v := Volatility([]float64{100, 110, 100})
	if v <= 0 {
		t.Fatalf("alternating series must have positive volatility, got %v", v)
	}

	steady := Volatility([]float64{100, 101, 102, 103})
	wild := Volatility([]float64{100, 140, 80, 150})
	if wild <= steady {
		t.Fatalf("wild series must be more volatile: steady=%v wild=%v", steady, wild)
	}
}

func TestSMA(t *testing.T) {
	out, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("sma: %v", err)
	}
	want := []float64{2, 3, 4}
	if len(out) != len(want) {
		t.Fatalf("unexpected window count: %v", out)
	}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("sma[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	if _, err := SMA([]float64{1, 2}, 3); pricing.CodeOf(err) != pricing.CodeInvalidInput {
		t.Fatalf("short series must be INVALID_INPUT, got %v", err)
	}
	if _, err := SMA([]float64{1, 2}, 0); pricing.CodeOf(err) != pricing.CodeInvalidInput {
		t.Fatalf("non-positive period must be INVALID_INPUT, got %v", err)
	}
}

func TestDetectAnomalies(t *testing.T) {
	if got := DetectAnomalies(series(100, 500), 2.5); got != nil {
		t.Fatalf("series under three points must have no anomalies, got %v", got)
	}
	if got := DetectAnomalies(series(100, 100, 100, 100), 2.5); got != nil {
		t.Fatalf("constant series must have no anomalies, got %v", got)
	}

	prices := series(100, 101, 99, 100, 101, 100, 99, 100, 101, 100, 300)
	anomalies := DetectAnomalies(prices, 2.5)
	if len(anomalies) != 1 {
		t.Fatalf("expected one anomaly, got %d", len(anomalies))
	}
	if anomalies[0].Index != len(prices)-1 {
		t.Fatalf("expected the spike to be flagged, got index %d", anomalies[0].Index)
	}
	if anomalies[0].ZScore <= 2.5 {
		t.Fatalf("flagged z-score must exceed threshold, got %v", anomalies[0].ZScore)
	}
}

func TestAnomalyScoreBounds(t *testing.T) {
	if s := anomalyScore([]float64{100, 200}); s != 0 {
		t.Fatalf("under three points must score zero, got %v", s)
	}
	if s := anomalyScore([]float64{100, 100, 100}); s != 0 {
		t.Fatalf("latest equal to median must score zero, got %v", s)
	}
	if s := anomalyScore([]float64{100, 100, 100, 100, 250}); s != 1 {
		t.Fatalf("zero MAD with deviant latest must score one, got %v", s)
	}

	s := anomalyScore([]float64{100, 102, 98, 101, 99, 100, 103, 97, 101, 400})
	if s <= 0 || s > 1 {
		t.Fatalf("score out of bounds: %v", s)
	}

	calm := anomalyScore([]float64{100, 102, 98, 101, 99, 100, 103, 97, 101, 100})
	if calm >= s {
		t.Fatalf("spike must score above a calm close: calm=%v spike=%v", calm, s)
	}
}

func TestAnalyzeBoundsOnRandomSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(60)
		values := make([]float64, n)
		for j := range values {
			values[j] = 1 + rng.Float64()*500
		}

		a, err := Analyze(series(values...))
		if err != nil {
			t.Fatalf("analyze random series: %v", err)
		}
		if a.AnomalyScore < 0 || a.AnomalyScore > 1 {
			t.Fatalf("anomaly score out of [0,1]: %v (series %v)", a.AnomalyScore, values)
		}
		if a.Volatility < 0 {
			t.Fatalf("negative volatility: %v (series %v)", a.Volatility, values)
		}
		if a.MinPrice > a.MaxPrice || a.CurrentPrice < a.MinPrice || a.CurrentPrice > a.MaxPrice {
			t.Fatalf("inconsistent range: %+v", a)
		}
	}
}
