package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// Store selects the history backend: sqlite, memory, redis or postgres.
	StoreDriver  string `mapstructure:"store_driver" yaml:"store_driver"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	RedisURL     string `mapstructure:"redis_url" yaml:"redis_url"`
	PostgresURL  string `mapstructure:"postgres_url" yaml:"postgres_url"`

	// Media upload
	MediaDir     string `mapstructure:"media_dir" yaml:"media_dir"`
	MediaBaseURL string `mapstructure:"media_base_url" yaml:"media_base_url"`

	// Auth
	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// Routing
	DefaultPageSize int   `mapstructure:"default_page_size" yaml:"default_page_size"`
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		StoreDriver:       "sqlite",
		DatabasePath:      "parley.db",
		MediaDir:          "media",
		MediaBaseURL:      "/media",
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "parley",
		JWTAudience:       "parley-clients",
		JWTTTL:            24 * time.Hour,
		DefaultPageSize:   20,
		MaxMessageBytes:   1 << 20,
	}
}
