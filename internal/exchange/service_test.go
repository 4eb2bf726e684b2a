package exchange

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cropintel/internal/cache"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	cm := cache.NewManager(cache.Options{}, noopLogger())
	t.Cleanup(cm.Close)
	return New(Options{BaseURL: baseURL, Timeout: time.Second, TTL: time.Hour}, cm, noopLogger())
}

func ratesServer(t *testing.T, calls *atomic.Int64, rates map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"base": "USD", "rates": rates})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIdentityRateShortCircuits(t *testing.T) {
	var calls atomic.Int64
	srv := ratesServer(t, &calls, map[string]float64{"KES": 150})
	svc := newTestService(t, srv.URL)

	rate, err := svc.GetExchangeRate(context.Background(), "KES", "KES")
	if err != nil {
		t.Fatalf("identity rate failed: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("identity rate must be exactly 1, got %s", rate)
	}
	if calls.Load() != 0 {
		t.Fatalf("identity lookup must not touch the network, saw %d calls", calls.Load())
	}
}

func TestIdentityConvertReturnsAmountUntouched(t *testing.T) {
	srv := ratesServer(t, nil, map[string]float64{})
	svc := newTestService(t, srv.URL)

	amount := decimal.RequireFromString("123.456")
	got, err := svc.ConvertAmount(context.Background(), amount, "USD", "USD")
	if err != nil {
		t.Fatalf("identity convert failed: %v", err)
	}
	if !got.Equal(amount) {
		t.Fatalf("identity convert must return the amount, got %s", got)
	}
}

func TestCrossRatePivotsThroughUSD(t *testing.T) {
	srv := ratesServer(t, nil, map[string]float64{"KES": 150, "NGN": 750})
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	usdToKes, err := svc.GetExchangeRate(ctx, "USD", "KES")
	if err != nil {
		t.Fatalf("usd->kes: %v", err)
	}
	usdToNgn, err := svc.GetExchangeRate(ctx, "USD", "NGN")
	if err != nil {
		t.Fatalf("usd->ngn: %v", err)
	}
	kesToNgn, err := svc.GetExchangeRate(ctx, "KES", "NGN")
	if err != nil {
		t.Fatalf("kes->ngn: %v", err)
	}

	want := usdToNgn.InexactFloat64() / usdToKes.InexactFloat64()
	if diff := math.Abs(kesToNgn.InexactFloat64() - want); diff > 1e-9 {
		t.Fatalf("cross rate inconsistent: got %s, want %.6f", kesToNgn, want)
	}
}

func TestRateTableFetchIsCached(t *testing.T) {
	var calls atomic.Int64
	srv := ratesServer(t, &calls, map[string]float64{"KES": 150, "GHS": 12})
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	if _, err := svc.GetExchangeRate(ctx, "USD", "KES"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if _, err := svc.GetExchangeRate(ctx, "USD", "GHS"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one table fetch to serve both pairs, saw %d", calls.Load())
	}
}

func TestUpstreamFailureFallsBackToStaticTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	rate, err := svc.GetExchangeRate(context.Background(), "USD", "KES")
	if err != nil {
		t.Fatalf("fallback must not surface upstream failure: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("expected fallback KES rate 150.50, got %s", rate)
	}
}

func TestUnknownCurrencyErrors(t *testing.T) {
	srv := ratesServer(t, nil, map[string]float64{"KES": 150})
	svc := newTestService(t, srv.URL)

	if _, err := svc.GetExchangeRate(context.Background(), "USD", "XXX"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
}
