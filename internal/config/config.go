// Package config loads client configuration from defaults, an optional YAML
// file and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" env:"EATS_API_BASE_URL"`
	Passcode       string `yaml:"passcode" env:"EATS_API_PASSCODE"`
	PasscodeHeader string `yaml:"passcode_header" env:"EATS_API_PASSCODE_HEADER"`
}

// FirebaseConfig configures the identity provider.
type FirebaseConfig struct {
	APIKey      string `yaml:"api_key" env:"FIREBASE_API_KEY"`
	IdentityURL string `yaml:"identity_url" env:"FIREBASE_IDENTITY_URL"`
	TokenURL    string `yaml:"token_url" env:"FIREBASE_TOKEN_URL"`
}

// SearchConfig configures the search index. Search is disabled when AppID is empty.
type SearchConfig struct {
	AppID  string  `yaml:"app_id" env:"SEARCH_APP_ID"`
	APIKey string  `yaml:"api_key" env:"SEARCH_API_KEY"`
	Index  string  `yaml:"index" env:"SEARCH_INDEX"`
	Host   string  `yaml:"host" env:"SEARCH_HOST"`
	QPS    float64 `yaml:"qps" env:"SEARCH_QPS"`
}

// Enabled reports whether search credentials are present.
func (s SearchConfig) Enabled() bool { return s.AppID != "" }

// CacheConfig bounds the restaurant cache.
type CacheConfig struct {
	TTL  time.Duration `yaml:"ttl" env:"EATS_CACHE_TTL"`
	Size int           `yaml:"size" env:"EATS_CACHE_SIZE"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"EATS_LOG_LEVEL"`
	Format string `yaml:"format" env:"EATS_LOG_FORMAT"`
}

// LocationConfig is the fallback position used when no device fix exists.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude" env:"EATS_FALLBACK_LAT"`
	Longitude float64 `yaml:"longitude" env:"EATS_FALLBACK_LNG"`
}

// Config is the complete client configuration.
type Config struct {
	API           APIConfig      `yaml:"api"`
	Firebase      FirebaseConfig `yaml:"firebase"`
	Search        SearchConfig   `yaml:"search"`
	Cache         CacheConfig    `yaml:"cache"`
	Log           LogConfig      `yaml:"log"`
	Location      LocationConfig `yaml:"fallback_location"`
	DefaultRadius int            `yaml:"default_radius" env:"EATS_DEFAULT_RADIUS"`
	Locale        string         `yaml:"locale" env:"EATS_LOCALE"`
}

// Default returns the built-in configuration. It has no base URL or passcode.
func Default() Config {
	return Config{
		API: APIConfig{PasscodeHeader: "X-API-Passcode"},
		Search: SearchConfig{
			Index: "restaurants",
			QPS:   10,
		},
		Cache: CacheConfig{TTL: 5 * time.Minute, Size: 100},
		Log:   LogConfig{Level: "info", Format: "text"},
		// Central, Hong Kong
		Location:      LocationConfig{Latitude: 22.2819, Longitude: 114.1586},
		DefaultRadius: 5000,
		Locale:        "en",
	}
}

// Load reads .env (if present), then path (if non-empty), then the
// environment, and validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if err := envdecode.Decode(c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

// Validate checks required fields and bounds.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.API.BaseURL) == "" {
		problems = append(problems, "api.base_url is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Passcode == "" {
		problems = append(problems, "api.passcode is required")
	}
	if c.Cache.TTL <= 0 {
		problems = append(problems, "cache.ttl must be positive")
	}
	if c.Cache.Size <= 0 {
		problems = append(problems, "cache.size must be positive")
	}
	if c.DefaultRadius <= 0 {
		problems = append(problems, "default_radius must be positive")
	}
	if c.Search.Enabled() && (c.Search.APIKey == "" || c.Search.Index == "") {
		problems = append(problems, "search.api_key and search.index are required when search.app_id is set")
	}
	if c.Search.QPS < 0 {
		problems = append(problems, "search.qps must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
