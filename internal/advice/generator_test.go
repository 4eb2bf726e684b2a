package advice

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cropintel/internal/pricing"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestGenerateFillsPlaceholders(t *testing.T) {
	g := New(noopLogger())
	price := decimal.RequireFromString("55.5")

	res := g.Generate(Input{
		Trend:        pricing.TrendRising,
		Volatility:   0.02,
		Language:     pricing.LangEnglish,
		Crop:         "maize",
		CurrentPrice: &price,
	})

	if strings.Contains(res.Advice, "{crop}") || strings.Contains(res.Advice, "{price}") {
		t.Fatalf("placeholders must be filled: %q", res.Advice)
	}
	if !strings.Contains(res.Advice, "maize") || !strings.Contains(res.Advice, "55.50") {
		t.Fatalf("expected crop and two-decimal price in advice: %q", res.Advice)
	}
}

func TestGenerateLeavesPlaceholdersWhenInputMissing(t *testing.T) {
	g := New(noopLogger())

	res := g.Generate(Input{Trend: pricing.TrendStable, Language: pricing.LangEnglish})
	if !strings.Contains(res.Advice, "{crop}") || !strings.Contains(res.Advice, "{price}") {
		t.Fatalf("absent crop and price must leave placeholders: %q", res.Advice)
	}
}

func TestGenerateUnknownLanguageFallsBackToEnglish(t *testing.T) {
	g := New(noopLogger())

	unknown := g.Generate(Input{Trend: pricing.TrendFalling, Language: "de"})
	english := g.Generate(Input{Trend: pricing.TrendFalling, Language: pricing.LangEnglish})
	if unknown.Advice != english.Advice {
		t.Fatalf("unknown language must fall back to English:\n%q\n%q", unknown.Advice, english.Advice)
	}
	if unknown.Confidence == 0 {
		t.Fatal("fallback to English is not a generation failure")
	}
}

func TestGenerateLanguagesDiffer(t *testing.T) {
	g := New(noopLogger())
	in := Input{Trend: pricing.TrendRising, Volatility: 0.1}

	seen := map[string]bool{}
	for _, lang := range []string{pricing.LangEnglish, pricing.LangSwahili, pricing.LangYoruba, pricing.LangFrench} {
		in.Language = lang
		res := g.Generate(in)
		if res.Advice == fallbackAdvice {
			t.Fatalf("language %s must have its own template", lang)
		}
		if seen[res.Advice] {
			t.Fatalf("language %s produced a duplicate message", lang)
		}
		seen[res.Advice] = true
	}
}

func TestVolatilityBuckets(t *testing.T) {
	cases := []struct {
		volatility float64
		want       string
	}{
		{0.0, "low"},
		{0.05, "low"},
		{0.051, "medium"},
		{0.15, "medium"},
		{0.151, "high"},
	}
	for _, tc := range cases {
		if got := volatilityBucket(tc.volatility); got != tc.want {
			t.Errorf("volatilityBucket(%v) = %q, want %q", tc.volatility, got, tc.want)
		}
	}
}

func TestConfidence(t *testing.T) {
	// Calm market, no move: 0.7*1 + 0.3*1.
	if got := confidence(0, 0); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("calm market confidence = %v, want 1.0", got)
	}

	// volatilityFactor = 1-0.2 = 0.8, changeFactor = 1-0.2 = 0.8.
	if got := confidence(0.1, 10); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("confidence(0.1, 10) = %v, want 0.8", got)
	}

	// Extreme inputs hit the floor.
	if got := confidence(5, 1000); got != 0.5 {
		t.Fatalf("extreme inputs must floor at 0.5, got %v", got)
	}

	for _, v := range []float64{0, 0.01, 0.1, 0.5, 2} {
		for _, c := range []float64{-200, -10, 0, 10, 200} {
			got := confidence(v, c)
			if got < 0.5 || got > 1 {
				t.Fatalf("confidence(%v, %v) = %v out of [0.5, 1]", v, c, got)
			}
		}
	}
}

func TestGenerateSMSLength(t *testing.T) {
	g := New(noopLogger())
	longCrop := strings.Repeat("maize ", 40)
	price := decimal.RequireFromString("120.00")

	sms := g.GenerateSMS(Input{
		Trend:        pricing.TrendRising,
		Volatility:   0.2,
		Language:     pricing.LangEnglish,
		Crop:         longCrop,
		CurrentPrice: &price,
	})

	if utf8.RuneCountInString(sms) != smsMaxChars {
		t.Fatalf("truncated sms must be exactly %d runes, got %d", smsMaxChars, utf8.RuneCountInString(sms))
	}
	if !strings.HasSuffix(sms, "...") {
		t.Fatalf("truncated sms must end with ellipsis: %q", sms)
	}

	short := g.GenerateSMS(Input{Trend: pricing.TrendStable, Language: pricing.LangEnglish, Crop: "maize", CurrentPrice: &price})
	if utf8.RuneCountInString(short) > smsMaxChars {
		t.Fatalf("short sms exceeded limit: %d runes", utf8.RuneCountInString(short))
	}
	if strings.HasSuffix(short, "...") {
		t.Fatalf("short sms must not be truncated: %q", short)
	}
}
