package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the serverscout configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Offline    OfflineConfig    `yaml:"offline"`
	Registries []RegistryConfig `yaml:"registries"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Search     SearchConfig     `yaml:"search"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int `yaml:"port"`
	ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int `yaml:"write_timeout_sec"`
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
	ShutdownSec       int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds embedding cache store settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	User       string `yaml:"user"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool {
	return e.APIKey != "" && e.Model != ""
}

// OfflineConfig holds offline corpus provider settings.
type OfflineConfig struct {
	// Enabled defaults to true; set explicitly to false to disable.
	Enabled          *bool   `yaml:"enabled"`
	FallbackDataPath string  `yaml:"fallback_data_path"`
	MinSimilarity    float64 `yaml:"min_similarity"`
	RefreshSec       int     `yaml:"refresh_sec"`
}

// IsEnabled resolves the tri-state Enabled flag.
func (o OfflineConfig) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// RegistryConfig holds one remote registry provider.
type RegistryConfig struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProvidersConfig toggles the local index providers.
type ProvidersConfig struct {
	Keyword KeywordConfig `yaml:"keyword"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
}

// KeywordConfig holds full-text provider settings.
type KeywordConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SQLiteConfig holds the persistent vector store settings.
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RerankConfig holds merge and rerank settings.
type RerankConfig struct {
	// ProviderPriorities weights providers for duplicate tie-breaks.
	ProviderPriorities map[string]int `yaml:"provider_priorities"`
}

// SearchConfig holds default search knobs.
type SearchConfig struct {
	Limit         int     `yaml:"limit"`
	MinSimilarity float64 `yaml:"min_similarity"`
	MinScore      float64 `yaml:"min_score"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first so that
// ${VAR} substitutions can see it.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 25
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 24 * 60 * 60
	}
	if c.Offline.RefreshSec <= 0 {
		c.Offline.RefreshSec = 300
	}
	for i := range c.Registries {
		if c.Registries[i].TimeoutSec <= 0 {
			c.Registries[i].TimeoutSec = 10
		}
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	seen := make(map[string]bool)
	for i, r := range c.Registries {
		if r.Name == "" {
			return fmt.Errorf("registries[%d].name is required", i)
		}
		if r.BaseURL == "" {
			return fmt.Errorf("registries[%d].base_url is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("registries[%d].name %q is duplicated", i, r.Name)
		}
		seen[r.Name] = true
	}
	if c.Providers.SQLite.Enabled && c.Providers.SQLite.Path == "" {
		return fmt.Errorf("providers.sqlite.path is required when the sqlite provider is enabled")
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be in [0, 1], got %v", c.Search.MinSimilarity)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
