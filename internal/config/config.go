// Package config provides unified configuration loading for the GearHive
// assistant engine. Supports YAML files, environment variables, and
// programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Assistant     AssistantConfig     `yaml:"assistant"`
	WebSearch     WebSearchConfig     `yaml:"web_search"`
	LLM           LLMConfig           `yaml:"llm"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// AssistantConfig holds the conversational engine settings.
type AssistantConfig struct {
	// VagueLengthThreshold is the message length below which a query is
	// treated as too vague to search on. Historically tuned between 8 and
	// 15; kept as a single knob instead of a hard-coded constant.
	VagueLengthThreshold int `yaml:"vague_length_threshold"`
	// MinRelevance is the score a web result must strictly exceed to be
	// returned.
	MinRelevance int `yaml:"min_relevance"`
	// MaxWebResults caps the scored result list handed to the prompt.
	MaxWebResults int `yaml:"max_web_results"`
	// HistoryWindow is how many trailing messages the LLM prompt sees.
	HistoryWindow int `yaml:"history_window"`
	// MemoryTTL evicts conversation records idle longer than this.
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	// MemoryDriver selects the conversation store: memory or redis.
	MemoryDriver string `yaml:"memory_driver"`
	// SearchTimeout bounds each external search call.
	SearchTimeout time.Duration `yaml:"search_timeout"`
}

// WebSearchConfig holds marketplace scraping settings.
type WebSearchConfig struct {
	Enabled      bool             `yaml:"enabled"`
	Timeout      time.Duration    `yaml:"timeout"`
	MaxResults   int              `yaml:"max_results"`
	CacheTTL     time.Duration    `yaml:"cache_ttl"`
	Endpoints    []EndpointConfig `yaml:"endpoints"`
	TierOne      []string         `yaml:"tier_one_suppliers"`
	TierTwo      []string         `yaml:"tier_two_suppliers"`
	Marketplaces []string         `yaml:"marketplace_sources"`
	FreshWindow  time.Duration    `yaml:"fresh_window"`
}

// EndpointConfig describes one scrapable supplier search endpoint.
type EndpointConfig struct {
	Name      string `yaml:"name"`
	SearchURL string `yaml:"search_url"` // %s is replaced with the escaped query
	Supplier  string `yaml:"supplier"`
	Source    string `yaml:"source"` // retailer or marketplace
}

// LLMConfig holds the text-completion client settings.
type LLMConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// AuthConfig holds session authentication settings.
type AuthConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CookieName string `yaml:"cookie_name"`
	DevUserID  string `yaml:"dev_user_id"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "/tmp/gearhive.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Assistant: AssistantConfig{
			VagueLengthThreshold: 10,
			MinRelevance:         15,
			MaxWebResults:        8,
			HistoryWindow:        10,
			MemoryTTL:            12 * time.Hour,
			MemoryDriver:         "memory",
			SearchTimeout:        8 * time.Second,
		},
		WebSearch: WebSearchConfig{
			Enabled:      true,
			Timeout:      10 * time.Second,
			MaxResults:   10,
			CacheTTL:     15 * time.Minute,
			TierOne:      []string{"rockauto"},
			TierTwo:      []string{"partzilla", "autozone"},
			Marketplaces: []string{"ebay", "marketplace"},
			FreshWindow:  24 * time.Hour,
		},
		LLM: LLMConfig{
			Model:   "gemini-1.5-flash-latest",
			Timeout: 25 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "gearhive-assistant",
		},
		Auth: AuthConfig{
			Enabled:    false,
			CookieName: "gearhive_session",
			DevUserID:  "dev-user",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Assistant.MemoryDriver != "memory" && c.Assistant.MemoryDriver != "redis" {
		return fmt.Errorf("invalid memory driver: %s", c.Assistant.MemoryDriver)
	}

	if c.Assistant.VagueLengthThreshold < 1 {
		return fmt.Errorf("vague_length_threshold must be positive")
	}

	if c.Assistant.MaxWebResults < 1 || c.Assistant.MaxWebResults > 20 {
		return fmt.Errorf("max_web_results must be between 1 and 20")
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("WEB_SEARCH_ENABLED"); v != "" {
		cfg.WebSearch.Enabled = v == "true"
	}

	if v := os.Getenv("VAGUE_LENGTH_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assistant.VagueLengthThreshold = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("AUTH_ENABLED"); v == "true" {
		cfg.Auth.Enabled = true
	}

	if v := os.Getenv("DEV_USER_ID"); v != "" {
		cfg.Auth.DevUserID = v
	}
}
