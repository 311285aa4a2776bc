package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBackendURL is used when no backend URL is configured
const DefaultBackendURL = "http://localhost:8002"

// DefaultCatalogURL is the Open Food Facts product dump fetched by fetch-catalog
const DefaultCatalogURL = "https://huggingface.co/datasets/openfoodfacts/product-database/resolve/main/food.parquet"

// Config holds all configuration for the CarcinogenScan service
type Config struct {
	// Scoring backend
	BackendURL string `yaml:"backend_url"`

	// Auth
	AuthToken string `yaml:"auth_token"`

	// Open Food Facts parquet used for product lookups; empty disables lookups
	CatalogPath string `yaml:"catalog_parquet_path"`
	CatalogURL  string `yaml:"catalog_parquet_url"`

	// Server
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Health caching
	HealthCacheSeconds int `yaml:"health_cache_seconds"`

	// Environment (development, production)
	Environment string `yaml:"environment"`
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() *Config {
	loadEnvFile(".env")
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile reads a YAML configuration file and then applies environment overrides
func LoadFile(path string) (*Config, error) {
	loadEnvFile(".env")
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// IsDevelopment reports whether detailed errors may be returned to clients
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// HealthCacheTTL returns how long a backend health result is reused
func (c *Config) HealthCacheTTL() time.Duration {
	return time.Duration(c.HealthCacheSeconds) * time.Second
}

// CatalogEnabled reports whether product lookups are configured
func (c *Config) CatalogEnabled() bool {
	return c.CatalogPath != ""
}

func defaults() *Config {
	return &Config{
		BackendURL:         DefaultBackendURL,
		CatalogURL:         DefaultCatalogURL,
		Port:               "8080",
		AllowedOrigins:     []string{"http://localhost:3000", "http://localhost:3001"},
		HealthCacheSeconds: 10,
		Environment:        "production",
	}
}

// applyEnv overrides cfg with any environment variables that are set
func applyEnv(cfg *Config) {
	cfg.BackendURL = strings.TrimRight(getEnv("BACKEND_URL", getEnv("NEXT_PUBLIC_BACKEND_URL", cfg.BackendURL)), "/")
	cfg.AuthToken = getEnv("AUTH_TOKEN", cfg.AuthToken)
	cfg.CatalogPath = getEnv("CATALOG_PARQUET_PATH", cfg.CatalogPath)
	cfg.CatalogURL = getEnv("CATALOG_PARQUET_URL", cfg.CatalogURL)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	if s := os.Getenv("HEALTH_CACHE_SECONDS"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 0 {
			cfg.HealthCacheSeconds = parsed
		}
	}
}

// loadEnvFile loads key/value pairs from path without overriding variables
// that are already present in the process environment
func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
