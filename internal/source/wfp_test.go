package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cropintel/internal/pricing"
)

func TestWFPFetchMapsRecords(t *testing.T) {
	var gotCommodity, gotMarket, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCommodity = r.URL.Query().Get("commodity")
		gotMarket = r.URL.Query().Get("market")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[
			{"commodity":"Maize (white)","market":"Nairobi","price":55.5,"unit":"KG","currency":"kes","date":"2026-08-20"},
			{"commodity":"Maize (white)","market":"Nairobi","price":0,"unit":"KG","currency":"kes","date":"2026-08-21"},
			{"commodity":"Maize (white)","market":"","price":57,"unit":"","currency":"","date":"2026-08-22","location":{"name":"Nairobi Central"}}
		]}`))
	}))
	defer srv.Close()

	wfp := NewWFP(Config{BaseURL: srv.URL, APIKey: "token"}, noopLogger())

	prices, err := wfp.FetchPriceData(context.Background(), Query{Crop: "Maize", Location: "Nairobi"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if gotCommodity != "Maize (white)" {
		t.Fatalf("crop must map to the provider commodity label, sent %q", gotCommodity)
	}
	if gotMarket != "nairobi" {
		t.Fatalf("market must be normalized, sent %q", gotMarket)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("expected bearer auth, sent %q", gotAuth)
	}

	if len(prices) != 2 {
		t.Fatalf("zero-price records must be skipped, got %d records", len(prices))
	}
	first := prices[0]
	if first.Currency != "KES" || first.Unit != "kg" || first.Source != wfpSourceName {
		t.Fatalf("unexpected record mapping: %+v", first)
	}
	if first.Timestamp.Format("2006-01-02") != "2026-08-20" {
		t.Fatalf("observation date not parsed: %s", first.Timestamp)
	}
	second := prices[1]
	if second.Location != "Nairobi Central" {
		t.Fatalf("missing market must fall back to location name, got %q", second.Location)
	}
	if second.Currency != pricing.USD || second.Unit != "kg" {
		t.Fatalf("missing currency/unit must default: %+v", second)
	}
}

func TestWFPEmptyDataIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	wfp := NewWFP(Config{BaseURL: srv.URL}, noopLogger())

	_, err := wfp.FetchPriceData(context.Background(), Query{Crop: "maize", Location: "Nairobi"})
	if err == nil {
		t.Fatal("expected error for empty data")
	}
	if pricing.CodeOf(err) != pricing.CodeDataUnavailable {
		t.Fatalf("expected DATA_UNAVAILABLE, got %s", pricing.CodeOf(err))
	}
}

func TestWFPUnknownCropPassesThrough(t *testing.T) {
	wfp := NewWFP(Config{}, noopLogger())
	if got := wfp.commodityName("teff"); got != "teff" {
		t.Fatalf("unmapped crops must pass through unchanged, got %q", got)
	}
	if got := wfp.commodityName("  MAIZE "); got != "Maize (white)" {
		t.Fatalf("mapping must be case and whitespace insensitive, got %q", got)
	}
}
