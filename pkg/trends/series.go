package trends

import (
	"fmt"
	"sort"
	"time"
)

// RawRow is one row of the collaborator's table before normalization.
// IsPartial marks the most recent period whose data may still be incomplete.
type RawRow struct {
	Time      time.Time      `json:"time"`
	Values    map[string]int `json:"values"`
	IsPartial bool           `json:"is_partial"`
}

// RawTable is the collaborator's response as-is: unordered, partiality
// marker still attached.
type RawTable []RawRow

// Point is one normalized row: a timestamp and the interest value per
// requested keyword.
type Point struct {
	Time   time.Time      `json:"time"`
	Values map[string]int `json:"values"`
}

// TrendSeries is the normalized result of a fetch. Rows are sorted by
// ascending timestamp, the partiality marker is stripped, and every row
// carries a value for every requested keyword.
type TrendSeries struct {
	Keywords []string `json:"keywords"`
	Geo      string   `json:"geo"`
	Rows     []Point  `json:"rows"`
}

// normalizeTable converts a non-empty raw table into a TrendSeries for the
// given request. A row missing a requested keyword is a malformed remote
// payload; values are never invented to paper over one.
func normalizeTable(req TrendRequest, raw RawTable) (*TrendSeries, error) {
	keywords := req.Keywords()
	rows := make([]Point, 0, len(raw))
	for _, rr := range raw {
		values := make(map[string]int, len(keywords))
		for _, kw := range keywords {
			v, ok := rr.Values[kw]
			if !ok {
				return nil, fmt.Errorf("row %s is missing keyword %q", rr.Time.Format(time.RFC3339), kw)
			}
			values[kw] = v
		}
		rows = append(rows, Point{Time: rr.Time, Values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time.Before(rows[j].Time)
	})

	return &TrendSeries{
		Keywords: keywords,
		Geo:      req.Geo(),
		Rows:     rows,
	}, nil
}
