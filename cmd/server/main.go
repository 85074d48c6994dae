package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"trends-go/internal/config"
	"trends-go/internal/handler"
	"trends-go/pkg/api"
	"trends-go/pkg/logger"
	"trends-go/pkg/storage"
	"trends-go/pkg/trends"
)

func main() {
	var (
		configPath = flag.String("config", "config/dev.yaml", "Configuration file path")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	manager := config.NewManager()
	cfg, err := manager.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	logLevel := cfg.Logger.Level
	if *debug {
		logLevel = "debug"
	}
	log := logger.New(logger.Config{
		Level:      logLevel,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	logger.SetLogger(log)

	client, err := api.NewHTTPTrendsClient(api.ClientConfig{
		Endpoint:     cfg.Trends.Endpoint,
		APIKey:       cfg.Trends.APIKey,
		HostLanguage: cfg.Trends.HostLanguage,
		Timeout:      time.Duration(cfg.Trends.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create trends client")
	}

	validator := trends.NewValidator(trends.Limits{
		MaxKeywords:      cfg.Validation.MaxKeywords,
		MaxKeywordLength: cfg.Validation.MaxKeywordLength,
		GeoCodeLength:    cfg.Validation.GeoCodeLength,
		DefaultGeo:       cfg.Validation.DefaultGeo,
	})

	cache := storage.NewSeriesCacheWithTTL(
		cfg.Cache.MaxEntries,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
	)

	fetcher := trends.NewFetcher(client, trends.RetryPolicy{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
	}, cache)

	app := fiber.New(fiber.Config{
		AppName:               "trends-go",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
	})
	handler.NewTrendsHandler(validator, fetcher).Register(app)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.WithField("addr", addr).Info("Starting trends server")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received, stopping server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("Server did not stop cleanly")
	}
	log.Info("Server stopped")
}
