package cache

import (
	"strings"
	"time"
)

// keyVersion lets a format change invalidate old entries wholesale.
const keyVersion = "v1"

// KeyParams identify one logical market-data request. Granularity is per
// calendar day: Date carries YYYY-MM-DD.
type KeyParams struct {
	Crop     string
	Location string
	Currency string
	Date     string
	Mode     string
	Language string
}

// DayKey builds the canonical day-scoped cache key. The same logical
// request must canonicalize identically regardless of casing or spacing.
func DayKey(p KeyParams) string {
	parts := []string{keyVersion, p.Crop, p.Location, p.Currency, p.Date, p.Mode, p.Language}
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return canonicalize(strings.Join(parts, ":"))
}

// RateKey builds the cache key for a resolved currency pair.
func RateKey(from, to string) string {
	return canonicalize("fx:" + from + ":" + to)
}

// RateTableKey builds the cache key for a full rate table against a base.
func RateTableKey(base string) string {
	return canonicalize("fx-table:" + base)
}

// Today returns the current calendar day in UTC as YYYY-MM-DD.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func canonicalize(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ':', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
