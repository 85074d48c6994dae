package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trends-go/pkg/trends"
)

// StoredResult is one persisted fetch result with its retrieval metadata.
type StoredResult struct {
	RequestKey string              `json:"request_key"`
	Keywords   []string            `json:"keywords"`
	Geo        string              `json:"geo"`
	Timeframe  string              `json:"timeframe"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Series     *trends.TrendSeries `json:"series"`
}

// ResultStore persists fetch results as JSON files under a data directory,
// one file per request key, so CLI runs can be inspected or replayed later.
type ResultStore struct {
	dataDir string
}

// NewResultStore creates a result store rooted at dataDir.
func NewResultStore(dataDir string) *ResultStore {
	os.MkdirAll(dataDir, 0755)
	return &ResultStore{dataDir: dataDir}
}

// Save writes the result for a request, replacing any previous one.
func (s *ResultStore) Save(ctx context.Context, req trends.TrendRequest, series *trends.TrendSeries) error {
	result := StoredResult{
		RequestKey: req.CacheKey(),
		Keywords:   req.Keywords(),
		Geo:        req.Geo(),
		Timeframe:  req.Timeframe().String(),
		FetchedAt:  time.Now(),
		Series:     series,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return os.WriteFile(s.resultPath(result.RequestKey), data, 0644)
}

// Load reads the persisted result for a request. Returns (nil, nil) when no
// result has been saved for it.
func (s *ResultStore) Load(ctx context.Context, req trends.TrendRequest) (*StoredResult, error) {
	data, err := os.ReadFile(s.resultPath(req.CacheKey()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var result StoredResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	return &result, nil
}

// Keys lists the request keys with a persisted result.
func (s *ResultStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			keys = append(keys, name[:len(name)-len(".json")])
		}
	}
	return keys, nil
}

func (s *ResultStore) resultPath(key string) string {
	return filepath.Join(s.dataDir, key+".json")
}
