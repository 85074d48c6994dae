package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setupViper(configPath)

	if err := m.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config, err := m.unmarshalAndValidate()
	if err != nil {
		return nil, err
	}

	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	config, err := m.unmarshalAndValidate()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) setupViper(configPath string) {
	m.viper.SetConfigFile(configPath)

	m.viper.SetEnvPrefix("TRENDS")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	m.viper.SetDefault("server.host", "0.0.0.0")
	m.viper.SetDefault("server.port", 8080)
	m.viper.SetDefault("trends.host_language", "en-US")
	m.viper.SetDefault("trends.timeout_ms", 30000)
	m.viper.SetDefault("retry.max_retries", 3)
	m.viper.SetDefault("retry.initial_backoff_ms", 1000)
	m.viper.SetDefault("validation.max_keywords", 5)
	m.viper.SetDefault("validation.max_keyword_length", 100)
	m.viper.SetDefault("validation.geo_code_length", 2)
	m.viper.SetDefault("cache.max_entries", 1000)
	m.viper.SetDefault("cache.ttl_seconds", 0)
	m.viper.SetDefault("logger.level", "info")
	m.viper.SetDefault("logger.format", "json")
	m.viper.SetDefault("logger.output", "stdout")
}

func (m *manager) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Trends.Endpoint == "" {
		return fmt.Errorf("trends.endpoint cannot be empty")
	}

	if config.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}

	if config.Retry.InitialBackoffMs <= 0 {
		return fmt.Errorf("retry.initial_backoff_ms must be positive")
	}

	if config.Validation.MaxKeywords <= 0 {
		return fmt.Errorf("validation.max_keywords must be positive")
	}

	if config.Validation.MaxKeywordLength <= 0 {
		return fmt.Errorf("validation.max_keyword_length must be positive")
	}

	if geo := config.Validation.DefaultGeo; geo != "" && len(geo) != config.Validation.GeoCodeLength {
		return fmt.Errorf("validation.default_geo %q must be %d letters", geo, config.Validation.GeoCodeLength)
	}

	if config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}

	return nil
}
