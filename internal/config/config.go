package config

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Trends     TrendsConfig     `mapstructure:"trends"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Validation ValidationConfig `mapstructure:"validation"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type TrendsConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	APIKey       string `mapstructure:"api_key"`
	HostLanguage string `mapstructure:"host_language"`
	TimeoutMs    int    `mapstructure:"timeout_ms"`
}

type RetryConfig struct {
	MaxRetries       int `mapstructure:"max_retries"`
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
}

type ValidationConfig struct {
	MaxKeywords      int    `mapstructure:"max_keywords"`
	MaxKeywordLength int    `mapstructure:"max_keyword_length"`
	GeoCodeLength    int    `mapstructure:"geo_code_length"`
	DefaultGeo       string `mapstructure:"default_geo"`
}

type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
	TTLSeconds int `mapstructure:"ttl_seconds"` // 0 = process-lifetime cache
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}
