package trends

import (
	"strings"

	"trends-go/pkg/utils"
)

// TrendRequest is a validated, API-ready trend query. It is only constructed
// by Validator.Validate, so holders can rely on its invariants: 1..MaxKeywords
// trimmed non-blank keywords, a normalized geo code (empty = worldwide) and a
// supported timeframe.
type TrendRequest struct {
	keywords  []string
	geo       string
	timeframe Timeframe
}

// Keywords returns the validated keywords in caller order.
func (r TrendRequest) Keywords() []string {
	out := make([]string, len(r.keywords))
	copy(out, r.keywords)
	return out
}

// Geo returns the normalized 2-letter geo code, or "" for worldwide.
func (r TrendRequest) Geo() string { return r.geo }

// Timeframe returns the requested window.
func (r TrendRequest) Timeframe() Timeframe { return r.timeframe }

// CacheKey returns the structural-equality key for this request. Two
// requests with the same keywords (in order), geo and timeframe always
// produce the same key.
func (r TrendRequest) CacheKey() string {
	canonical := strings.Join(r.keywords, "\x1f") + "\x1e" + r.geo + "\x1e" + r.timeframe.WireToken()
	return utils.CalculateRequestHash(canonical)
}

// String renders the request for logging. Keywords are joined, never hashed,
// since they are caller input rather than secrets.
func (r TrendRequest) String() string {
	geo := r.geo
	if geo == "" {
		geo = "worldwide"
	}
	return strings.Join(r.keywords, ",") + " [" + geo + ", " + r.timeframe.String() + "]"
}
