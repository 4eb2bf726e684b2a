// Package advice maps price analysis results to human-readable guidance
// per language, including the 160-character SMS variant.
package advice

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cropintel/internal/pricing"
)

// Volatility bucket boundaries.
const (
	highVolatility   = 0.15
	mediumVolatility = 0.05
)

const smsMaxChars = 160

// fallbackAdvice is returned when no template can be resolved; the
// caller sees confidence zero in that case.
const fallbackAdvice = "Unable to provide pricing advice at this time. Please check back later."

// Result is one generated advice message.
type Result struct {
	Advice     string
	Confidence float64
	Metadata   map[string]any
}

// Generator resolves templates and fills placeholders. Safe for
// concurrent use: the template tree is read-only.
type Generator struct {
	logger zerolog.Logger
}

// New constructs a Generator.
func New(logger zerolog.Logger) *Generator {
	return &Generator{logger: logger.With().Str("component", "advice").Logger()}
}

// Input parameterises advice generation. Crop and CurrentPrice are
// optional; absent values leave their placeholders untouched.
type Input struct {
	Trend          pricing.Trend
	Volatility     float64
	PriceChangePct float64
	Language       string
	Crop           string
	CurrentPrice   *decimal.Decimal
}

// Generate renders advice for the analysis results. It never fails: an
// unresolvable template degrades to a generic message with confidence 0.
func (g *Generator) Generate(in Input) Result {
	language := in.Language
	if language == "" {
		language = pricing.LangEnglish
	}
	bucket := volatilityBucket(in.Volatility)

	message, ok := lookupTemplate(language, in.Trend, bucket)
	if !ok {
		g.logger.Warn().Str("language", language).Str("trend", string(in.Trend)).Msg("no advice template resolved")
		return Result{
			Advice:     fallbackAdvice,
			Confidence: 0,
			Metadata:   map[string]any{"language": language},
		}
	}

	if in.Crop != "" {
		message = strings.ReplaceAll(message, "{crop}", in.Crop)
	}
	if in.CurrentPrice != nil {
		message = strings.ReplaceAll(message, "{price}", in.CurrentPrice.StringFixed(2))
	}

	return Result{
		Advice:     message,
		Confidence: confidence(in.Volatility, in.PriceChangePct),
		Metadata: map[string]any{
			"trend":            in.Trend,
			"volatility":       in.Volatility,
			"volatility_level": bucket,
			"price_change_pct": in.PriceChangePct,
			"language":         language,
		},
	}
}

// GenerateSMS renders the same advice hard-capped at 160 characters.
func (g *Generator) GenerateSMS(in Input) string {
	message := g.Generate(in).Advice
	if utf8.RuneCountInString(message) <= smsMaxChars {
		return message
	}
	runes := []rune(message)
	return string(runes[:smsMaxChars-3]) + "..."
}

// lookupTemplate resolves language → trend → bucket, falling back to the
// English tree for unknown languages or missing entries.
func lookupTemplate(language string, trend pricing.Trend, bucket string) (string, bool) {
	for _, lang := range []string{language, pricing.LangEnglish} {
		tree, ok := templates[lang]
		if !ok {
			continue
		}
		b, ok := tree[trend]
		if !ok {
			continue
		}
		var message string
		switch bucket {
		case "high":
			message = b.High
		case "medium":
			message = b.Medium
		default:
			message = b.Low
		}
		if message != "" {
			return message, true
		}
	}
	return "", false
}

func volatilityBucket(volatility float64) string {
	switch {
	case volatility > highVolatility:
		return "high"
	case volatility > mediumVolatility:
		return "medium"
	default:
		return "low"
	}
}

// confidence blends volatility and move size: volatile markets and large
// swings reduce it, floored at 0.5.
func confidence(volatility, priceChangePct float64) float64 {
	volatilityFactor := 1 - math.Min(volatility*2, 0.9)
	changeFactor := 1 - math.Min(math.Abs(priceChangePct)/50, 0.5)
	return math.Max(0.5, volatilityFactor*0.7+changeFactor*0.3)
}
