package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Snapshot source kinds
const (
	SourceHTTP     = "http"
	SourceDynamoDB = "dynamodb"
	SourceFallback = "fallback"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Knowledge store
	SnapshotSource    string
	KnowledgeStoreURL string
	StoreTimeout      time.Duration

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	GraphUserID   string
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Cache
	RedisURL         string
	SnapshotCacheTTL time.Duration

	// Layout
	LayoutConfigPath string
	TickInterval     time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	OTLPEndpoint  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		SnapshotSource:    getEnv("SNAPSHOT_SOURCE", SourceFallback),
		KnowledgeStoreURL: getEnv("KNOWLEDGE_STORE_URL", ""),
		StoreTimeout:      time.Duration(getEnvInt("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "kgview")),
		GraphUserID:   getEnv("GRAPH_USER_ID", ""),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		IsLambda: getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		SnapshotCacheTTL: time.Duration(getEnvInt("SNAPSHOT_CACHE_TTL", 60)) * time.Second,

		LayoutConfigPath: getEnv("LAYOUT_CONFIG_PATH", ""),
		TickInterval:     time.Duration(getEnvInt("TICK_INTERVAL_MS", 16)) * time.Millisecond,

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.SnapshotSource {
	case SourceHTTP:
		if c.KnowledgeStoreURL == "" {
			return fmt.Errorf("KNOWLEDGE_STORE_URL is required when SNAPSHOT_SOURCE=http")
		}
	case SourceDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required when SNAPSHOT_SOURCE=dynamodb")
		}
	case SourceFallback:
	default:
		return fmt.Errorf("SNAPSHOT_SOURCE must be one of http, dynamodb, fallback; got %q", c.SnapshotSource)
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive")
	}
	if c.SnapshotCacheTTL < 0 {
		return fmt.Errorf("SNAPSHOT_CACHE_TTL cannot be negative")
	}
	if c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT is required when tracing is enabled")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
