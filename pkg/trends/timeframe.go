package trends

import (
	"fmt"
	"regexp"
	"strings"
)

// Timeframe is the closed set of historical windows supported for a trend
// query. Each value maps to the token the remote API expects on the wire.
type Timeframe int

const (
	TimeframeUnknown Timeframe = iota
	Last7Days
	Last1Month
	Last12Months
)

// wireTokens maps each supported timeframe to its remote API token.
var wireTokens = map[Timeframe]string{
	Last7Days:    "now 7-d",
	Last1Month:   "today 1-m",
	Last12Months: "today 12-m",
}

// labelAliases maps normalized caller-facing labels to timeframes.
// Normalization lowercases and collapses spaces/hyphens to underscores,
// so "Last 7 Days", "last-7-days" and "last_7_days" are all accepted.
var labelAliases = map[string]Timeframe{
	"last_7_days":    Last7Days,
	"last_7days":     Last7Days,
	"7d":             Last7Days,
	"last_1_month":   Last1Month,
	"last_month":     Last1Month,
	"1m":             Last1Month,
	"last_12_months": Last12Months,
	"last_year":      Last12Months,
	"12m":            Last12Months,
}

// rawWireTokens are remote API tokens callers sometimes try to pass through
// directly. They are recognized so they can be rejected as unsupported
// rather than invalid.
var rawWireTokens = map[string]bool{
	"now 1-h":    true,
	"now 4-h":    true,
	"now 1-d":    true,
	"now 7-d":    true,
	"today 1-m":  true,
	"today 3-m":  true,
	"today 12-m": true,
	"today 5-y":  true,
	"all":        true,
}

// customRangePattern matches "YYYY-MM-DD YYYY-MM-DD" custom date ranges,
// which are deliberately unsupported.
var customRangePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s+\d{4}-\d{2}-\d{2}$`)

// ParseTimeframe resolves a caller-facing label into a Timeframe.
// Raw wire tokens and custom date ranges fail with UnsupportedTimeframe so
// callers never silently receive data for a window they did not ask for;
// everything else unrecognized fails with InvalidTimeframe.
func ParseTimeframe(label string) (Timeframe, error) {
	trimmed := strings.TrimSpace(label)

	if rawWireTokens[strings.ToLower(trimmed)] || customRangePattern.MatchString(trimmed) {
		return TimeframeUnknown, &InputError{
			Kind:   UnsupportedTimeframe,
			Detail: fmt.Sprintf("timeframe %q is deliberately unsupported; use one of the preset labels", trimmed),
		}
	}

	normalized := strings.ToLower(trimmed)
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	if tf, ok := labelAliases[normalized]; ok {
		return tf, nil
	}

	return TimeframeUnknown, &InputError{
		Kind:   InvalidTimeframe,
		Detail: fmt.Sprintf("unknown timeframe label %q", trimmed),
	}
}

// WireToken returns the remote API token for the timeframe.
func (t Timeframe) WireToken() string {
	return wireTokens[t]
}

// String returns the canonical caller-facing label.
func (t Timeframe) String() string {
	switch t {
	case Last7Days:
		return "last_7_days"
	case Last1Month:
		return "last_1_month"
	case Last12Months:
		return "last_12_months"
	default:
		return "unknown"
	}
}
