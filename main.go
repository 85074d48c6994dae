package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trends-go/pkg/api"
	"trends-go/pkg/logger"
	"trends-go/pkg/storage"
	"trends-go/pkg/trends"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func main() {
	// Environment variable defaults (CI friendly)
	defaultEndpoint := getEnvOrDefault("TRENDS_API_URL", "")
	defaultAPIKey := getEnvOrDefault("TRENDS_API_KEY", "")
	defaultGeo := getEnvOrDefault("TRENDS_GEO", "")
	defaultTimeframe := getEnvOrDefault("TRENDS_TIMEFRAME", "last_12_months")
	defaultMaxRetries := getEnvIntOrDefault("TRENDS_MAX_RETRIES", 3)
	defaultBackoffMs := getEnvIntOrDefault("TRENDS_BACKOFF_MS", 1000)
	defaultDataDir := getEnvOrDefault("TRENDS_DATA_DIR", "data/results")

	// Command line flags (override environment variables)
	var (
		keywordsArg = flag.String("keywords", "", "Comma-separated keywords to track (required)")
		geo         = flag.String("geo", defaultGeo, "2-letter geo code, empty for worldwide (env: TRENDS_GEO)")
		timeframe   = flag.String("timeframe", defaultTimeframe, "Timeframe preset: last_7_days, last_1_month, last_12_months (env: TRENDS_TIMEFRAME)")
		endpoint    = flag.String("endpoint", defaultEndpoint, "Trend gateway URL (env: TRENDS_API_URL)")
		apiKey      = flag.String("api-key", defaultAPIKey, "Trend gateway API key (env: TRENDS_API_KEY)")
		maxRetries  = flag.Int("max-retries", defaultMaxRetries, "Rate-limit retries before giving up (env: TRENDS_MAX_RETRIES)")
		backoffMs   = flag.Int("backoff-ms", defaultBackoffMs, "Initial backoff in milliseconds, doubled per retry (env: TRENDS_BACKOFF_MS)")
		dataDir     = flag.String("data-dir", defaultDataDir, "Directory for persisted results (env: TRENDS_DATA_DIR)")
		debug       = flag.Bool("debug", false, "Enable debug logging (env: DEBUG)")
		help        = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	if *keywordsArg == "" {
		fmt.Println("ERROR: At least one keyword is required.")
		fmt.Println("Use the -keywords flag, e.g. -keywords \"coffee,tea\".")
		fmt.Println("")
		printUsage()
		os.Exit(1)
	}

	if *endpoint == "" {
		fmt.Println("ERROR: Trend gateway URL is required.")
		fmt.Println("Use -endpoint flag or TRENDS_API_URL environment variable.")
		fmt.Println("")
		printUsage()
		os.Exit(1)
	}

	if *debug {
		logger.SetLogger(logger.New(logger.Config{Level: "debug", Format: "console"}))
	}
	log := logger.GetLogger().WithField("component", "main")

	validator := trends.NewValidator(trends.Limits{})
	req, err := validator.Validate(strings.Split(*keywordsArg, ","), *geo, *timeframe)
	if err != nil {
		if inputErr, ok := trends.AsInputError(err); ok {
			fmt.Printf("ERROR: %s\n", inputErr.Error())
			os.Exit(1)
		}
		log.WithError(err).Fatal("Validation failed")
	}

	client, err := api.NewHTTPTrendsClient(api.ClientConfig{
		Endpoint: *endpoint,
		APIKey:   *apiKey,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create trends client")
	}

	fetcher := trends.NewFetcher(client, trends.RetryPolicy{
		MaxRetries:     *maxRetries,
		InitialBackoff: time.Duration(*backoffMs) * time.Millisecond,
	}, storage.NewSeriesCache(128))

	log.WithField("request", req.String()).Info("Fetching trend data")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	startTime := time.Now()

	series, err := fetcher.Fetch(ctx, req)
	if err != nil {
		if fetchErr, ok := trends.AsFetchError(err); ok {
			switch fetchErr.Kind {
			case trends.EmptyResult:
				fmt.Println("No data returned. Try different timeframe or keywords.")
				os.Exit(2)
			case trends.RetriesExhausted:
				fmt.Printf("Rate limited on all %d attempts. Try again later.\n", fetchErr.Attempts)
				os.Exit(3)
			}
		}
		log.WithError(err).Fatal("Fetch failed")
	}

	duration := time.Since(startTime)

	store := storage.NewResultStore(*dataDir)
	if err := store.Save(ctx, req, series); err != nil {
		log.WithError(err).Warn("Failed to persist result")
	}

	log.WithFields(map[string]interface{}{
		"rows":     len(series.Rows),
		"duration": duration.String(),
	}).Info("Fetch completed")

	fmt.Printf("\n=== Trend Data: %s ===\n", req.String())
	fmt.Printf("%-20s", "time")
	for _, kw := range series.Keywords {
		fmt.Printf("  %s", kw)
	}
	fmt.Println()
	for _, row := range series.Rows {
		fmt.Printf("%-20s", row.Time.Format("2006-01-02"))
		for _, kw := range series.Keywords {
			fmt.Printf("  %*d", len(kw), row.Values[kw])
		}
		fmt.Println()
	}
	fmt.Printf("\n%d rows in %s. Result saved under %s.\n", len(series.Rows), duration.String(), *dataDir)
}

func printUsage() {
	fmt.Println("trends-go Keyword Trend Tracker")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./trends-go -keywords \"coffee,tea\" -endpoint <URL> [OPTIONS]")
	fmt.Println("")
	fmt.Println("REQUIRED:")
	fmt.Println("    -keywords string   Comma-separated keywords, up to 5")
	fmt.Println("    -endpoint string   Trend gateway URL (env: TRENDS_API_URL)")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -geo string        2-letter geo code, empty = worldwide (env: TRENDS_GEO)")
	fmt.Println("    -timeframe string  last_7_days | last_1_month | last_12_months (default: last_12_months)")
	fmt.Println("    -api-key string    Gateway API key (env: TRENDS_API_KEY)")
	fmt.Println("    -max-retries int   Rate-limit retries (default: 3, env: TRENDS_MAX_RETRIES)")
	fmt.Println("    -backoff-ms int    Initial backoff ms, doubled per retry (default: 1000)")
	fmt.Println("    -data-dir string   Result directory (default: data/results)")
	fmt.Println("    -debug             Enable debug logging")
	fmt.Println("    -help              Show this help message")
	fmt.Println("")
	fmt.Println("EXAMPLES:")
	fmt.Println("    ./trends-go -keywords \"coffee\" -geo US -timeframe last_7_days \\")
	fmt.Println("        -endpoint \"https://trends-gateway.example.com\"")
	fmt.Println("")
	fmt.Println("    export TRENDS_API_URL=\"https://trends-gateway.example.com\"")
	fmt.Println("    ./trends-go -keywords \"coffee,tea,mate\"")
}
