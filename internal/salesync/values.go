package salesync

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/solara-medspa/backend-go/internal/config"
)

// normalizeKey lowercases a column name and strips everything that is not a
// letter or digit, so "Order ID", "order_id" and "OrderId" all collide.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pickValue returns the first non-empty value in row whose normalized key
// matches one of the candidate column names. Upstream column names vary per
// export template, so callers pass a synonym list.
func pickValue(row Row, candidates ...string) string {
	normalized := make(map[string]string, len(row))
	for k, v := range row {
		key := normalizeKey(k)
		if _, exists := normalized[key]; !exists || normalized[key] == "" {
			normalized[key] = strings.TrimSpace(v)
		}
	}

	for _, candidate := range candidates {
		if v := normalized[normalizeKey(candidate)]; v != "" {
			return v
		}
	}
	return ""
}

var numberCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "",
	"%", "",
	",", "",
	" ", "",
)

// toNumber coerces a decorated numeric string ("$1,234.50", "15%") to a
// float. Returns fallback on anything unparseable; never raises.
func toNumber(value string, fallback float64) float64 {
	cleaned := numberCleaner.Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return fallback
	}

	// Accounting-style negatives: "(12.50)"
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fallback
	}
	if negative {
		f = -f
	}
	return f
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

// parseDate tries each known layout in turn; nil when nothing matches.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// normalizeLocation classifies a free-text location string into a canonical
// site key by case-insensitive substring match against the configured site
// names. Returns nil when no known site matches; it never guesses.
func normalizeLocation(value string, locations []config.Location) *string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}

	for _, loc := range locations {
		if strings.Contains(value, strings.ToLower(loc.Name)) {
			key := loc.Key
			return &key
		}
	}
	return nil
}
