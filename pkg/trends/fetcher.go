package trends

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"trends-go/pkg/logger"
)

// RetryPolicy bounds the rate-limit retry loop. Backoff before retry n
// (1-indexed) is InitialBackoff * 2^(n-1); total collaborator calls never
// exceed MaxRetries + 1.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy returns the production defaults: 3 retries, 1s initial backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialBackoff: 1 * time.Second}
}

// BackoffFor returns the delay inserted before retry attempt n (0-indexed),
// i.e. after the (n+1)-th failed call.
func (p RetryPolicy) BackoffFor(attempt int) time.Duration {
	return p.InitialBackoff << uint(attempt)
}

// Fetcher retrieves trend series through a TrendsClient, retrying rate-limit
// signals with exponential backoff and memoizing successful results in an
// injected cache. Concurrent fetches for the same request key are coalesced
// into a single collaborator round-trip; distinct keys proceed independently.
type Fetcher struct {
	client TrendsClient
	policy RetryPolicy
	cache  SeriesCache
	group  singleflight.Group
	log    *logger.Logger

	// sleep blocks for the backoff delay or until the context is done.
	// Swappable so tests can record the schedule instead of waiting it out.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher around the given collaborator, policy and
// cache. The cache is required: process-lifetime memoization is part of the
// fetch contract, not an optimization bolted on by callers.
func NewFetcher(client TrendsClient, policy RetryPolicy, cache SeriesCache) *Fetcher {
	return &Fetcher{
		client: client,
		policy: policy,
		cache:  cache,
		log:    logger.GetLogger().WithField("component", "trend_fetcher"),
		sleep:  sleepContext,
	}
}

// Fetch returns the series for a validated request, from cache when
// possible. On miss it runs the bounded retry loop against the collaborator.
// Failures are reported as *FetchError and are never cached.
func (f *Fetcher) Fetch(ctx context.Context, req TrendRequest) (*TrendSeries, error) {
	key := req.CacheKey()

	// All concurrent callers for the same key share one flight; the cache
	// check lives inside it so the lookup and the fill cannot race.
	result, err, _ := f.group.Do(key, func() (interface{}, error) {
		if series, ok := f.cache.Get(key); ok {
			f.log.WithField("request", req.String()).Debug("Cache hit")
			return series, nil
		}
		return f.fetchRemote(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*TrendSeries), nil
}

// fetchRemote runs the retry loop for one cache miss.
func (f *Fetcher) fetchRemote(ctx context.Context, req TrendRequest, key string) (*TrendSeries, error) {
	log := f.log.WithField("request", req.String())

	for attempt := 0; ; attempt++ {
		raw, err := f.client.Query(ctx, req)

		switch {
		case err == nil && len(raw) > 0:
			series, normErr := normalizeTable(req, raw)
			if normErr != nil {
				log.WithError(normErr).Error("Malformed collaborator payload")
				return nil, &FetchError{Kind: UnexpectedError, cause: normErr}
			}
			f.cache.Set(key, series)
			log.WithFields(map[string]interface{}{
				"rows":     len(series.Rows),
				"attempts": attempt + 1,
			}).Debug("Trend fetch completed")
			return series, nil

		case err == nil:
			// Empty is a valid answer, not a transient failure. Never cached:
			// the caller may retry with different parameters under a new key.
			log.Debug("Collaborator returned empty table")
			return nil, &FetchError{Kind: EmptyResult}

		case errors.Is(err, ErrRateLimited):
			if attempt >= f.policy.MaxRetries {
				log.WithField("attempts", attempt+1).Warn("Rate limit retries exhausted")
				return nil, &FetchError{Kind: RetriesExhausted, Attempts: attempt + 1, cause: err}
			}
			delay := f.policy.BackoffFor(attempt)
			log.WithFields(map[string]interface{}{
				"attempt": attempt + 1,
				"backoff": delay.String(),
			}).Debug("Rate limited, backing off")
			if sleepErr := f.sleep(ctx, delay); sleepErr != nil {
				return nil, &FetchError{Kind: UnexpectedError, cause: sleepErr}
			}

		default:
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				log.WithError(err).Error("Collaborator reported API error")
				return nil, &FetchError{Kind: RemoteAPIError, cause: err}
			}
			log.WithError(err).Error("Unclassified collaborator failure")
			return nil, &FetchError{Kind: UnexpectedError, cause: err}
		}
	}
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
