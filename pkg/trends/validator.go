package trends

import (
	"fmt"
	"strings"
)

// Limits is the injectable validation configuration. Zero values fall back
// to the documented defaults so an empty Limits{} behaves sensibly.
type Limits struct {
	MaxKeywords      int    // default 5
	MaxKeywordLength int    // default 100
	GeoCodeLength    int    // default 2
	DefaultGeo       string // "" keeps empty geo as worldwide; set to coerce
}

const (
	defaultMaxKeywords      = 5
	defaultMaxKeywordLength = 100
	defaultGeoCodeLength    = 2
)

func (l Limits) maxKeywords() int {
	if l.MaxKeywords > 0 {
		return l.MaxKeywords
	}
	return defaultMaxKeywords
}

func (l Limits) maxKeywordLength() int {
	if l.MaxKeywordLength > 0 {
		return l.MaxKeywordLength
	}
	return defaultMaxKeywordLength
}

func (l Limits) geoCodeLength() int {
	if l.GeoCodeLength > 0 {
		return l.GeoCodeLength
	}
	return defaultGeoCodeLength
}

// Validator checks raw caller input against the request contract and is the
// only way to construct a TrendRequest. Pure; no I/O, no state beyond Limits.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator with the given limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate applies the contract rules in order, first failing rule wins:
// drop blanks, check count, check length, normalize geo, parse timeframe.
func (v *Validator) Validate(rawKeywords []string, rawGeo, timeframeLabel string) (TrendRequest, error) {
	keywords := make([]string, 0, len(rawKeywords))
	for _, kw := range rawKeywords {
		trimmed := strings.TrimSpace(kw)
		if trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}

	if len(keywords) == 0 {
		return TrendRequest{}, &InputError{
			Kind:   EmptyKeywordList,
			Detail: "at least one non-blank keyword is required",
		}
	}

	if max := v.limits.maxKeywords(); len(keywords) > max {
		return TrendRequest{}, &InputError{
			Kind:   TooManyKeywords,
			Detail: fmt.Sprintf("got %d keywords, limit is %d", len(keywords), max),
		}
	}

	maxLen := v.limits.maxKeywordLength()
	for _, kw := range keywords {
		if len([]rune(kw)) > maxLen {
			return TrendRequest{}, &InputError{
				Kind:    KeywordTooLong,
				Keyword: kw,
				Detail:  fmt.Sprintf("keyword exceeds %d characters", maxLen),
			}
		}
	}

	geo := v.NormalizeGeo(rawGeo)
	if geo == "" {
		geo = strings.ToUpper(strings.TrimSpace(v.limits.DefaultGeo))
	}
	if geo != "" && len(geo) != v.limits.geoCodeLength() {
		return TrendRequest{}, &InputError{
			Kind:   InvalidGeoCode,
			Detail: fmt.Sprintf("geo code %q must be %d letters", geo, v.limits.geoCodeLength()),
		}
	}

	timeframe, err := ParseTimeframe(timeframeLabel)
	if err != nil {
		return TrendRequest{}, err
	}

	return TrendRequest{
		keywords:  keywords,
		geo:       geo,
		timeframe: timeframe,
	}, nil
}

// NormalizeGeo trims and uppercases a geo code. Idempotent:
// NormalizeGeo(NormalizeGeo(g)) == NormalizeGeo(g) for all g.
func (v *Validator) NormalizeGeo(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
