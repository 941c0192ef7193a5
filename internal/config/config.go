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

// Supported vector index drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

// Supported embedding providers.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
)

// Config holds the smartsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	CMS       CMSConfig       `yaml:"cms"`
	Auth      AuthConfig      `yaml:"auth"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// UIConfig holds web UI settings.
type UIConfig struct {
	Enabled *bool  `yaml:"enabled"`  // default: true
	APIBase string `yaml:"api_base"` // empty = same origin
}

// UIEnabled reports whether the web UI is served.
func (c *Config) UIEnabled() bool {
	return c.UI.Enabled == nil || *c.UI.Enabled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds webhook authentication settings.
type AuthConfig struct {
	WebhookKeys []string `yaml:"webhook_keys"` // empty = webhook is open
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// IndexConfig holds vector index connection and query settings.
type IndexConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres, mongodb (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	URI              string   `yaml:"uri"`
	Database         string   `yaml:"database"`
	Name             string   `yaml:"name"`
	Namespace        string   `yaml:"namespace"`
	Dimensions       int      `yaml:"dimensions"`
	TopK             int      `yaml:"top_k"`
	MinScore         *float64 `yaml:"min_score"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // huggingface, openai (default: huggingface)
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// CMSConfig holds settings of the content management system that sends webhooks.
type CMSConfig struct {
	AppURL      string `yaml:"app_url"`
	StackAPIKey string `yaml:"stack_api_key"`
}

// DefaultMinScore is the search score threshold used when neither config nor request sets one.
const DefaultMinScore = 0.75

// LoadDotEnv loads .env files (default ".env" in the working directory) into the process
// environment. Missing files are ignored and variables already set are kept.
// Call it before GetEnv so ENV can come from .env.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and applying defaults.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 4000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}

	if c.Index.Driver == "" {
		c.Index.Driver = DriverValkey
	}
	if c.Index.Name == "" {
		c.Index.Name = "smartsearch"
	}
	if c.Index.Namespace == "" {
		c.Index.Namespace = "default"
	}
	if c.Index.Database == "" {
		c.Index.Database = "smartsearch"
	}
	if c.Index.TopK <= 0 {
		c.Index.TopK = 10
	}
	if c.Index.MinScore == nil {
		v := DefaultMinScore
		c.Index.MinScore = &v
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderHuggingFace
	}
	if c.Embedding.Provider == ProviderHuggingFace {
		if c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = "https://router.huggingface.co/hf-inference"
		}
		if c.Embedding.Model == "" {
			c.Embedding.Model = "intfloat/multilingual-e5-large"
		}
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = c.Embedding.Dimensions
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 1024
	}

	if c.CMS.AppURL == "" {
		c.CMS.AppURL = "https://app.contentstack.com"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Index.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("index.addrs is required for driver %q", c.Index.Driver)
		}
	case DriverPostgres:
		if c.Index.DSN == "" {
			return fmt.Errorf("index.dsn is required for driver %q", c.Index.Driver)
		}
	case DriverMongoDB:
		if c.Index.URI == "" {
			return fmt.Errorf("index.uri is required for driver %q", c.Index.Driver)
		}
	default:
		return fmt.Errorf("index.driver must be one of valkey, redis, postgres, mongodb, got %q", c.Index.Driver)
	}

	if c.Index.MinScore != nil && (*c.Index.MinScore < -1 || *c.Index.MinScore > 1) {
		return fmt.Errorf("index.min_score must be between -1 and 1, got %g", *c.Index.MinScore)
	}

	switch c.Embedding.Provider {
	case ProviderHuggingFace, ProviderOpenAI:
	default:
		return fmt.Errorf("embedding.provider must be \"huggingface\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
