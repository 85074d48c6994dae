package trends

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trends-go/pkg/logger"
)

func init() {
	// Keep test output quiet
	logger.SetLogger(logger.New(logger.Config{Level: "error", Format: "json"}))
}

// fakeClient is a TrendsClient whose behavior is scripted per call.
type fakeClient struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (RawTable, error)
}

func (f *fakeClient) Query(ctx context.Context, req TrendRequest) (RawTable, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(call)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// mapCache is a minimal SeriesCache for tests.
type mapCache struct {
	mu    sync.Mutex
	items map[string]*TrendSeries
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]*TrendSeries)}
}

func (c *mapCache) Get(key string) (*TrendSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[key]
	return s, ok
}

func (c *mapCache) Set(key string, s *TrendSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = s
}

func mustRequest(t *testing.T, keywords []string, geo, timeframe string) TrendRequest {
	t.Helper()
	req, err := NewValidator(Limits{}).Validate(keywords, geo, timeframe)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	return req
}

func tableFor(keywords []string, rows int) RawTable {
	table := make(RawTable, 0, rows)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		values := make(map[string]int, len(keywords))
		for j, kw := range keywords {
			values[kw] = 10*i + j
		}
		table = append(table, RawRow{
			Time:      base.AddDate(0, 0, i),
			Values:    values,
			IsPartial: i == rows-1,
		})
	}
	return table
}

// recordingSleep replaces the fetcher's backoff sleep and records each delay.
func recordingSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	var mu sync.Mutex
	return func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		*delays = append(*delays, d)
		mu.Unlock()
		return nil
	}
}

func TestFetch_RateLimitedTwiceThenSuccess(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		if call <= 2 {
			return nil, ErrRateLimited
		}
		return tableFor([]string{"coffee"}, 7), nil
	}}

	fetcher := NewFetcher(client, RetryPolicy{MaxRetries: 3, InitialBackoff: 100 * time.Millisecond}, newMapCache())
	var delays []time.Duration
	fetcher.sleep = recordingSleep(&delays)

	series, err := fetcher.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if client.callCount() != 3 {
		t.Errorf("Expected 3 collaborator calls, got %d", client.callCount())
	}
	if len(delays) != 2 {
		t.Fatalf("Expected 2 backoff sleeps, got %d", len(delays))
	}
	if delays[0] != 100*time.Millisecond || delays[1] != 200*time.Millisecond {
		t.Errorf("Expected backoffs [100ms 200ms], got %v", delays)
	}
	if len(series.Rows) != 7 {
		t.Errorf("Expected 7 rows, got %d", len(series.Rows))
	}
}

func TestFetch_RetriesExhausted(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		return nil, ErrRateLimited
	}}

	fetcher := NewFetcher(client, RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond}, newMapCache())
	var delays []time.Duration
	fetcher.sleep = recordingSleep(&delays)

	_, err := fetcher.Fetch(context.Background(), req)
	fetchErr, ok := AsFetchError(err)
	if !ok || fetchErr.Kind != RetriesExhausted {
		t.Fatalf("Expected RetriesExhausted, got %v", err)
	}
	if fetchErr.Attempts != 4 {
		t.Errorf("Expected attempt count 4, got %d", fetchErr.Attempts)
	}
	if client.callCount() != 4 {
		t.Errorf("Expected 4 collaborator calls (maxRetries+1), got %d", client.callCount())
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Error("Expected error chain to retain the rate-limit signal")
	}
}

func TestFetch_EmptyResultNotRetriedNotCached(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "", "last_1_month")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		if call == 1 {
			return RawTable{}, nil
		}
		return tableFor([]string{"coffee"}, 3), nil
	}}

	cache := newMapCache()
	fetcher := NewFetcher(client, DefaultRetryPolicy(), cache)

	_, err := fetcher.Fetch(context.Background(), req)
	fetchErr, ok := AsFetchError(err)
	if !ok || fetchErr.Kind != EmptyResult {
		t.Fatalf("Expected EmptyResult, got %v", err)
	}
	if client.callCount() != 1 {
		t.Errorf("Expected 1 collaborator call, got %d", client.callCount())
	}
	if _, cached := cache.Get(req.CacheKey()); cached {
		t.Error("Empty result must not be cached")
	}

	// A later identical request goes back to the collaborator.
	series, err := fetcher.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected success on second fetch, got %v", err)
	}
	if client.callCount() != 2 {
		t.Errorf("Expected 2 collaborator calls, got %d", client.callCount())
	}
	if len(series.Rows) != 3 {
		t.Errorf("Expected 3 rows, got %d", len(series.Rows))
	}
}

func TestFetch_APIErrorNotRetried(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		return nil, &APIError{Message: "unknown keyword encoding"}
	}}

	fetcher := NewFetcher(client, DefaultRetryPolicy(), newMapCache())
	_, err := fetcher.Fetch(context.Background(), req)

	fetchErr, ok := AsFetchError(err)
	if !ok || fetchErr.Kind != RemoteAPIError {
		t.Fatalf("Expected RemoteAPIError, got %v", err)
	}
	if client.callCount() != 1 {
		t.Errorf("Expected 1 collaborator call, got %d", client.callCount())
	}
}

func TestFetch_TransportErrorIsUnexpected(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		return nil, &TransportError{Message: "connection reset"}
	}}

	fetcher := NewFetcher(client, DefaultRetryPolicy(), newMapCache())
	_, err := fetcher.Fetch(context.Background(), req)

	fetchErr, ok := AsFetchError(err)
	if !ok || fetchErr.Kind != UnexpectedError {
		t.Fatalf("Expected UnexpectedError, got %v", err)
	}
	if client.callCount() != 1 {
		t.Errorf("Expected 1 collaborator call, got %d", client.callCount())
	}
}

func TestFetch_CacheHitSkipsCollaborator(t *testing.T) {
	req := mustRequest(t, []string{"coffee", "tea"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		return tableFor([]string{"coffee", "tea"}, 5), nil
	}}

	fetcher := NewFetcher(client, DefaultRetryPolicy(), newMapCache())

	first, err := fetcher.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}

	second, err := fetcher.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if client.callCount() != 1 {
		t.Errorf("Expected 1 collaborator call across both fetches, got %d", client.callCount())
	}
	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("Cached series differs: %d vs %d rows", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		if !first.Rows[i].Time.Equal(second.Rows[i].Time) {
			t.Errorf("Row %d timestamp differs between fetches", i)
		}
		for kw, v := range first.Rows[i].Values {
			if second.Rows[i].Values[kw] != v {
				t.Errorf("Row %d value for %q differs between fetches", i, kw)
			}
		}
	}
}

func TestFetch_ConcurrentRequestsCoalesce(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		time.Sleep(50 * time.Millisecond)
		return tableFor([]string{"coffee"}, 7), nil
	}}

	fetcher := NewFetcher(client, DefaultRetryPolicy(), newMapCache())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*TrendSeries, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = fetcher.Fetch(context.Background(), req)
		}(i)
	}
	wg.Wait()

	if client.callCount() != 1 {
		t.Errorf("Expected exactly 1 collaborator call for identical concurrent fetches, got %d", client.callCount())
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("Caller %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("Caller %d received a different series instance", i)
		}
	}
}

// geoBlockingClient blocks queries for one geo until released, so a test can
// hold one request key in flight while exercising another.
type geoBlockingClient struct {
	blockGeo string
	block    chan struct{}
}

func (c *geoBlockingClient) Query(ctx context.Context, req TrendRequest) (RawTable, error) {
	if req.Geo() == c.blockGeo {
		<-c.block
	}
	return tableFor(req.Keywords(), 2), nil
}

func TestFetch_DistinctKeysDoNotSerialize(t *testing.T) {
	reqUS := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	reqDE := mustRequest(t, []string{"coffee"}, "DE", "last_7_days")

	block := make(chan struct{})
	client := &geoBlockingClient{blockGeo: "US", block: block}

	fetcher := NewFetcher(client, DefaultRetryPolicy(), newMapCache())

	done := make(chan struct{})
	go func() {
		fetcher.Fetch(context.Background(), reqUS)
		close(done)
	}()

	// Give the first fetch time to enter its flight, then fetch a different
	// key; it must complete while the first is still blocked.
	time.Sleep(20 * time.Millisecond)
	if _, err := fetcher.Fetch(context.Background(), reqDE); err != nil {
		t.Fatalf("Second key fetch failed: %v", err)
	}

	close(block)
	<-done
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "US", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		return nil, ErrRateLimited
	}}

	fetcher := NewFetcher(client, RetryPolicy{MaxRetries: 5, InitialBackoff: 200 * time.Millisecond}, newMapCache())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := fetcher.Fetch(ctx, req)
	fetchErr, ok := AsFetchError(err)
	if !ok || fetchErr.Kind != UnexpectedError {
		t.Fatalf("Expected UnexpectedError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected error chain to retain context.Canceled, got %v", err)
	}
	if client.callCount() != 1 {
		t.Errorf("Expected 1 collaborator call before cancellation, got %d", client.callCount())
	}
}

func TestFetch_MalformedRowIsUnexpected(t *testing.T) {
	req := mustRequest(t, []string{"coffee", "tea"}, "", "last_7_days")
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		// Row is missing the "tea" column.
		return RawTable{{
			Time:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Values: map[string]int{"coffee": 42},
		}}, nil
	}}

	cache := newMapCache()
	fetcher := NewFetcher(client, DefaultRetryPolicy(), cache)

	_, err := fetcher.Fetch(context.Background(), req)
	fetchErr, ok := AsFetchError(err)
	if !ok || fetchErr.Kind != UnexpectedError {
		t.Fatalf("Expected UnexpectedError for malformed payload, got %v", err)
	}
	if _, cached := cache.Get(req.CacheKey()); cached {
		t.Error("Malformed result must not be cached")
	}
}

func TestFetch_NormalizationSortsAndStripsPartialMarker(t *testing.T) {
	req := mustRequest(t, []string{"coffee"}, "", "last_7_days")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{fn: func(call int) (RawTable, error) {
		// Out of order, last period partial.
		return RawTable{
			{Time: base.AddDate(0, 0, 2), Values: map[string]int{"coffee": 30}, IsPartial: true},
			{Time: base, Values: map[string]int{"coffee": 10}},
			{Time: base.AddDate(0, 0, 1), Values: map[string]int{"coffee": 20}},
		}, nil
	}}

	fetcher := NewFetcher(client, DefaultRetryPolicy(), newMapCache())
	series, err := fetcher.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(series.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(series.Rows))
	}
	for i := 1; i < len(series.Rows); i++ {
		if !series.Rows[i-1].Time.Before(series.Rows[i].Time) {
			t.Errorf("Rows not sorted ascending at index %d", i)
		}
	}
	if series.Rows[2].Values["coffee"] != 30 {
		t.Errorf("Expected partial row's values kept (30), got %d", series.Rows[2].Values["coffee"])
	}
}

func TestRetryPolicy_BackoffSchedule(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialBackoff: 250 * time.Millisecond}

	expected := []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
	}
	for attempt, want := range expected {
		if got := policy.BackoffFor(attempt); got != want {
			t.Errorf("BackoffFor(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestTrendRequest_CacheKeyStructuralEquality(t *testing.T) {
	a := mustRequest(t, []string{"coffee", "tea"}, "us", "last_7_days")
	b := mustRequest(t, []string{" coffee ", "tea"}, "US", "Last 7 Days")
	if a.CacheKey() != b.CacheKey() {
		t.Error("Structurally equal requests must share a cache key")
	}

	c := mustRequest(t, []string{"tea", "coffee"}, "US", "last_7_days")
	if a.CacheKey() == c.CacheKey() {
		t.Error("Keyword order is part of request identity")
	}

	d := mustRequest(t, []string{"coffee", "tea"}, "US", "last_1_month")
	if a.CacheKey() == d.CacheKey() {
		t.Error("Timeframe is part of request identity")
	}
}
