package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Printful      PrintfulConfig          `mapstructure:"printful"`
	Shipping      ShippingConfig          `mapstructure:"shipping"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP listener for the quote endpoint, health and metrics.
type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	ProductIndex string   `mapstructure:"product_index"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
	Concurrency   int  `mapstructure:"concurrency"`
}

// --- Domain Configuration Sections ---

// PrintfulConfig holds the fulfillment provider credentials and call limits.
type PrintfulConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	Token              string `mapstructure:"token"`
	StoreID            string `mapstructure:"store_id"`
	UserAgent          string `mapstructure:"user_agent"`
	Timeout            int    `mapstructure:"timeout"` // milliseconds
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
}

// ShippingConfig holds the quote cache lifetimes and the static fallback table.
type ShippingConfig struct {
	TTLSeconds         int              `mapstructure:"ttl_seconds"`
	FallbackTTLSeconds int              `mapstructure:"fallback_ttl_seconds"`
	CacheBackend       string           `mapstructure:"cache_backend"` // memory | redis
	FallbackRates      []FallbackRate   `mapstructure:"fallback_rates"`
	VariantMappings    map[string]int64 `mapstructure:"variant_mappings"`
}

type FallbackRate struct {
	ID              string `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	Rate            string `mapstructure:"rate"`
	Currency        string `mapstructure:"currency"`
	MinDeliveryDays int    `mapstructure:"min_delivery_days"`
	MaxDeliveryDays int    `mapstructure:"max_delivery_days"`
	Carrier         string `mapstructure:"carrier"`
}

// CatalogConfig selects the catalog backend and the resolver lookup tables.
type CatalogConfig struct {
	Backend       string              `mapstructure:"backend"` // postgres | elasticsearch
	AliasFile     string              `mapstructure:"alias_file"`
	ProductRoutes map[string][]string `mapstructure:"product_routes"`
	CacheTTL      int                 `mapstructure:"cache_ttl"` // milliseconds
}

// NotificationConfig holds operator alert settings for unresolved order lines.
type NotificationConfig struct {
	Region      string `mapstructure:"region"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
	SESFrom     string `mapstructure:"ses_from"`
	SESTo       string `mapstructure:"ses_to"`
}

type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
