package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/text/language"

	"trends-go/pkg/logger"
	"trends-go/pkg/trends"
)

// ClientConfig configures the HTTP trends client.
type ClientConfig struct {
	Endpoint     string        // trend gateway base URL
	APIKey       string        // optional bearer token
	HostLanguage string        // BCP 47 tag sent as hl, e.g. "en-US"
	Timeout      time.Duration // per-request timeout
}

// httpTrendsClient implements trends.TrendsClient over the trend gateway's
// HTTP/JSON protocol. It owns the wire format; nothing upstream of the
// TrendsClient boundary knows about URLs, status codes or payload shapes.
type httpTrendsClient struct {
	endpoint     string
	apiKey       string
	hostLanguage string
	timeout      time.Duration
	httpClient   *fasthttp.Client
	log          *logger.Logger

	// Metrics
	totalRequests  uint64
	failedRequests uint64
}

// NewHTTPTrendsClient creates a trends client for the given gateway.
// The host language tag is canonicalized through x/text; an unparseable tag
// is rejected here rather than echoed to the remote on every request.
func NewHTTPTrendsClient(config ClientConfig) (trends.TrendsClient, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("trends endpoint is required")
	}

	hl := "en-US"
	if config.HostLanguage != "" {
		tag, err := language.Parse(config.HostLanguage)
		if err != nil {
			return nil, fmt.Errorf("invalid host language %q: %w", config.HostLanguage, err)
		}
		hl = tag.String()
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpTrendsClient{
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		apiKey:       config.APIKey,
		hostLanguage: hl,
		timeout:      timeout,
		httpClient: &fasthttp.Client{
			MaxIdleConnDuration: 60 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		log: logger.GetLogger().WithField("component", "trends_client"),
	}, nil
}

// Query performs one interest-over-time request. Outcomes are reported
// through the closed client taxonomy: trends.ErrRateLimited on throttling,
// *trends.APIError on remote-reported failures, *trends.TransportError on
// network failures.
func (c *httpTrendsClient) Query(ctx context.Context, req trends.TrendRequest) (trends.RawTable, error) {
	atomic.AddUint64(&c.totalRequests, 1)
	start := time.Now()

	table, err := c.doQuery(ctx, req)
	if err != nil {
		atomic.AddUint64(&c.failedRequests, 1)
		return nil, err
	}

	c.log.WithFields(map[string]interface{}{
		"rows":        len(table),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Trends query completed")
	return table, nil
}

func (c *httpTrendsClient) doQuery(ctx context.Context, req trends.TrendRequest) (trends.RawTable, error) {
	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(c.buildURL(req))
	httpReq.Header.SetMethod(fasthttp.MethodGet)
	httpReq.Header.Set("User-Agent", "trends-go/1.0")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.httpClient.DoDeadline(httpReq, httpResp, deadline); err != nil {
		return nil, &trends.TransportError{Message: err.Error()}
	}

	return decodeResponse(httpResp.StatusCode(), httpResp.Body())
}

// buildURL assembles the interest-over-time request URL.
func (c *httpTrendsClient) buildURL(req trends.TrendRequest) string {
	params := url.Values{}
	params.Set("keywords", strings.Join(req.Keywords(), ","))
	params.Set("timeframe", req.Timeframe().WireToken())
	params.Set("hl", c.hostLanguage)
	if req.Geo() != "" {
		params.Set("geo", req.Geo())
	}
	return c.endpoint + "/interest-over-time?" + params.Encode()
}

// gatewayResponse is the trend gateway's JSON envelope.
type gatewayResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Data   []struct {
		Time      time.Time      `json:"time"`
		Values    map[string]int `json:"values"`
		IsPartial bool           `json:"is_partial"`
	} `json:"data"`
}

// decodeResponse classifies a gateway response into the client error
// taxonomy and extracts the raw table. Package-level so it is testable
// without a network.
func decodeResponse(statusCode int, body []byte) (trends.RawTable, error) {
	switch {
	case statusCode == fasthttp.StatusTooManyRequests:
		return nil, trends.ErrRateLimited
	case statusCode != fasthttp.StatusOK:
		return nil, &trends.APIError{
			Message: fmt.Sprintf("gateway returned status %d: %s", statusCode, truncate(body, 200)),
		}
	}

	var resp gatewayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &trends.TransportError{Message: "malformed gateway payload: " + err.Error()}
	}

	switch resp.Status {
	case "success":
	case "rate_limited":
		return nil, trends.ErrRateLimited
	default:
		msg := resp.Error
		if msg == "" {
			msg = "gateway reported status " + resp.Status
		}
		return nil, &trends.APIError{Message: msg}
	}

	table := make(trends.RawTable, 0, len(resp.Data))
	for _, row := range resp.Data {
		table = append(table, trends.RawRow{
			Time:      row.Time,
			Values:    row.Values,
			IsPartial: row.IsPartial,
		})
	}
	return table, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
