package trends

import "context"

// TrendsClient is the capability through which the remote trend-data API is
// reached. Implementations hide the wire protocol, auth and endpoint shape
// entirely. Query reports failures through the closed client taxonomy:
// ErrRateLimited for throttling, *APIError for remote-reported failures,
// *TransportError for network-level ones.
type TrendsClient interface {
	Query(ctx context.Context, req TrendRequest) (RawTable, error)
}

// SeriesCache stores fetch results keyed by TrendRequest.CacheKey. Set must
// be atomic per key; Get must never observe a torn write.
type SeriesCache interface {
	Get(key string) (*TrendSeries, bool)
	Set(key string, series *TrendSeries)
}
