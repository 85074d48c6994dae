package api

import (
	"errors"
	"strings"
	"testing"
	"time"

	"trends-go/pkg/trends"
)

func TestDecodeResponse_Success(t *testing.T) {
	body := []byte(`{
		"status": "success",
		"data": [
			{"time": "2026-08-01T00:00:00Z", "values": {"coffee": 55, "tea": 31}, "is_partial": false},
			{"time": "2026-08-02T00:00:00Z", "values": {"coffee": 60, "tea": 28}, "is_partial": true}
		]
	}`)

	table, err := decodeResponse(200, body)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table))
	}
	if table[0].Values["coffee"] != 55 {
		t.Errorf("Expected coffee=55, got %d", table[0].Values["coffee"])
	}
	if !table[1].IsPartial {
		t.Error("Expected second row to carry the partiality marker")
	}
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !table[0].Time.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, table[0].Time)
	}
}

func TestDecodeResponse_EmptyData(t *testing.T) {
	table, err := decodeResponse(200, []byte(`{"status": "success", "data": []}`))
	if err != nil {
		t.Fatalf("Expected success with empty table, got %v", err)
	}
	if len(table) != 0 {
		t.Errorf("Expected empty table, got %d rows", len(table))
	}
}

func TestDecodeResponse_RateLimited(t *testing.T) {
	// HTTP 429 and an in-band rate_limited status classify identically.
	if _, err := decodeResponse(429, nil); !errors.Is(err, trends.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited for status 429, got %v", err)
	}
	if _, err := decodeResponse(200, []byte(`{"status": "rate_limited"}`)); !errors.Is(err, trends.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited for rate_limited status, got %v", err)
	}
}

func TestDecodeResponse_APIError(t *testing.T) {
	var apiErr *trends.APIError

	_, err := decodeResponse(400, []byte(`bad request`))
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError for status 400, got %v", err)
	}

	_, err = decodeResponse(200, []byte(`{"status": "error", "error": "unknown geo"}`))
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError for error status, got %v", err)
	}
	if apiErr.Message != "unknown geo" {
		t.Errorf("Expected remote message carried through, got %q", apiErr.Message)
	}
}

func TestDecodeResponse_MalformedBody(t *testing.T) {
	var transportErr *trends.TransportError
	_, err := decodeResponse(200, []byte(`{not json`))
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError for malformed body, got %v", err)
	}
}

func TestNewHTTPTrendsClient_Validation(t *testing.T) {
	if _, err := NewHTTPTrendsClient(ClientConfig{}); err == nil {
		t.Error("Expected error for missing endpoint")
	}

	if _, err := NewHTTPTrendsClient(ClientConfig{
		Endpoint:     "https://gateway.example.com",
		HostLanguage: "not a language !!",
	}); err == nil {
		t.Error("Expected error for invalid host language")
	}

	client, err := NewHTTPTrendsClient(ClientConfig{
		Endpoint:     "https://gateway.example.com/",
		HostLanguage: "en-us",
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	httpClient := client.(*httpTrendsClient)
	if httpClient.endpoint != "https://gateway.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %q", httpClient.endpoint)
	}
	if httpClient.hostLanguage != "en-US" {
		t.Errorf("Expected canonical language tag en-US, got %q", httpClient.hostLanguage)
	}
}

func TestBuildURL(t *testing.T) {
	client, err := NewHTTPTrendsClient(ClientConfig{Endpoint: "https://gateway.example.com"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	httpClient := client.(*httpTrendsClient)

	req, err := trends.NewValidator(trends.Limits{}).Validate([]string{"coffee", "green tea"}, "US", "last_7_days")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	url := httpClient.buildURL(req)
	for _, want := range []string{
		"https://gateway.example.com/interest-over-time?",
		"keywords=coffee%2Cgreen+tea",
		"geo=US",
		"timeframe=now+7-d",
		"hl=en-US",
	} {
		if !strings.Contains(url, want) {
			t.Errorf("Expected URL to contain %q, got %s", want, url)
		}
	}

	// Worldwide requests omit the geo parameter entirely.
	worldwide, err := trends.NewValidator(trends.Limits{}).Validate([]string{"coffee"}, "", "last_7_days")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if strings.Contains(httpClient.buildURL(worldwide), "geo=") {
		t.Error("Expected no geo parameter for worldwide requests")
	}
}
