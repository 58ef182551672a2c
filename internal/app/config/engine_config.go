package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	envconfig "video-qa/internal/config"
)

// EngineConfig is the complete configuration of the retrieval service
type EngineConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Frames    FramesConfig    `yaml:"frames,omitempty"`
}

// EmbedderConfig selects and tunes the descriptor embedder
type EmbedderConfig struct {
	Provider  string               `yaml:"provider"`
	Model     string               `yaml:"model,omitempty"`
	APIKey    string               `yaml:"api_key,omitempty"`
	Dimension int                  `yaml:"dimension,omitempty"`
	BatchSize int                  `yaml:"batch_size,omitempty"`
	Retry     RetryConfig          `yaml:"retry,omitempty"`
	RateLimit RateLimitConfig      `yaml:"rate_limit,omitempty"`
	Cache     EmbeddingCacheConfig `yaml:"cache,omitempty"`
}

// RetryConfig represents retry settings for a collaborator
type RetryConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	InitialIntervalMs int     `yaml:"initial_interval_ms,omitempty"`
	MaxIntervalMs     int     `yaml:"max_interval_ms,omitempty"`
	Multiplier        float64 `yaml:"multiplier,omitempty"`
}

// RateLimitConfig spaces calls to a collaborator
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute,omitempty"`
	Burst             int `yaml:"burst,omitempty"`
}

// EmbeddingCacheConfig enables the Redis query-embedding cache when RedisAddr is set
type EmbeddingCacheConfig struct {
	RedisAddr string `yaml:"redis_addr,omitempty"`
	TTLSec    int    `yaml:"ttl_sec,omitempty"`
}

// GeneratorConfig selects and tunes the answer generator
type GeneratorConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	Temperature *float32      `yaml:"temperature,omitempty"`
	Breaker     BreakerConfig `yaml:"breaker,omitempty"`
}

// DefaultTemperature is used when the generator section leaves temperature unset
const DefaultTemperature float32 = 0.2

// GenerationTemperature returns the configured temperature; an explicit 0 is kept
func (g GeneratorConfig) GenerationTemperature() float32 {
	if g.Temperature == nil {
		return DefaultTemperature
	}
	return *g.Temperature
}

// BreakerConfig represents circuit breaker settings
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests,omitempty"`
	IntervalSec  int     `yaml:"interval_sec,omitempty"`
	TimeoutSec   int     `yaml:"timeout_sec,omitempty"`
	MinRequests  uint32  `yaml:"min_requests,omitempty"`
	FailureRatio float64 `yaml:"failure_ratio,omitempty"`
}

// StorageConfig selects the artifact store
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Dir     string      `yaml:"dir,omitempty"`
	DSN     string      `yaml:"dsn,omitempty"`
	Minio   MinioConfig `yaml:"minio,omitempty"`
}

// MinioConfig represents object storage settings
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix,omitempty"`
}

// RetrievalConfig holds search tunables
type RetrievalConfig struct {
	DefaultTopK               int  `yaml:"default_top_k"`
	ProducerDefaultTopK       int  `yaml:"producer_default_top_k"`
	VariantTopK               int  `yaml:"variant_top_k"`
	MaxVariants               int  `yaml:"max_variants"`
	DedupWindowSeconds        *int `yaml:"dedup_window_seconds"`
	FetchMultiplier           int  `yaml:"fetch_multiplier"`
	ProductionFetchMultiplier int  `yaml:"production_fetch_multiplier"`
	SearchWorkers             int  `yaml:"search_workers"`
	FallbackMoments           int  `yaml:"fallback_moments"`
}

// DedupWindow returns the configured window; 0 collapses identical seconds only
func (r RetrievalConfig) DedupWindow() int {
	if r.DedupWindowSeconds == nil {
		return 3
	}
	return *r.DedupWindowSeconds
}

// CacheConfig bounds the index cache
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes"`
}

// ServerConfig represents HTTP server settings
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	Environment     string `yaml:"environment"`
	// AnalysisRoot is the only directory descriptor_path may read from; empty disables it
	AnalysisRoot    string `yaml:"analysis_root,omitempty"`
}

// FramesConfig points at extracted frames for metadata frame paths
type FramesConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoadEngineConfig loads configuration from a YAML file
func LoadEngineConfig(configPath string) (*EngineConfig, error) {
	configPath = os.ExpandEnv(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseEngineConfig(data)
}

// ParseEngineConfig parses YAML, expands ${ENV} values, fills defaults and validates
func ParseEngineConfig(data []byte) (*EngineConfig, error) {
	var config EngineConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.expandEnvironmentVariables()
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// SaveEngineConfig writes configuration to a YAML file
func SaveEngineConfig(config *EngineConfig, configPath string) error {
	configPath = os.ExpandEnv(configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandEnv replaces a whole-value ${VAR} reference with the variable's value
func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}"))
	}
	return value
}

func (c *EngineConfig) expandEnvironmentVariables() {
	c.Embedder.APIKey = expandEnv(c.Embedder.APIKey)
	c.Embedder.Cache.RedisAddr = expandEnv(c.Embedder.Cache.RedisAddr)
	c.Generator.APIKey = expandEnv(c.Generator.APIKey)
	c.Storage.DSN = expandEnv(c.Storage.DSN)
	c.Storage.Minio.Endpoint = expandEnv(c.Storage.Minio.Endpoint)
	c.Storage.Minio.AccessKey = expandEnv(c.Storage.Minio.AccessKey)
	c.Storage.Minio.SecretKey = expandEnv(c.Storage.Minio.SecretKey)
	c.Server.AnalysisRoot = expandEnv(c.Server.AnalysisRoot)
}

func (c *EngineConfig) setDefaults() {
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = "gemini"
	}
	if c.Embedder.BatchSize == 0 {
		c.Embedder.BatchSize = 16
	}
	if c.Embedder.Retry.MaxRetries == 0 {
		c.Embedder.Retry.MaxRetries = 5
	}
	if c.Embedder.Retry.InitialIntervalMs == 0 {
		c.Embedder.Retry.InitialIntervalMs = 2000
	}
	if c.Embedder.Retry.MaxIntervalMs == 0 {
		c.Embedder.Retry.MaxIntervalMs = 30000
	}
	if c.Embedder.Retry.Multiplier == 0 {
		c.Embedder.Retry.Multiplier = 2
	}
	if c.Embedder.RateLimit.RequestsPerMinute == 0 {
		c.Embedder.RateLimit.RequestsPerMinute = 60
	}
	if c.Embedder.RateLimit.Burst == 0 {
		c.Embedder.RateLimit.Burst = 1
	}
	if c.Embedder.Cache.TTLSec == 0 {
		c.Embedder.Cache.TTLSec = 86400
	}

	if c.Generator.Provider == "" {
		c.Generator.Provider = c.Embedder.Provider
		if c.Generator.Provider == "lexical" {
			c.Generator.Provider = "mock"
		}
	}
	if c.Generator.Temperature == nil {
		temperature := DefaultTemperature
		c.Generator.Temperature = &temperature
	}
	if c.Generator.Breaker.MaxRequests == 0 {
		c.Generator.Breaker.MaxRequests = 3
	}
	if c.Generator.Breaker.IntervalSec == 0 {
		c.Generator.Breaker.IntervalSec = 60
	}
	if c.Generator.Breaker.TimeoutSec == 0 {
		c.Generator.Breaker.TimeoutSec = 30
	}
	if c.Generator.Breaker.MinRequests == 0 {
		c.Generator.Breaker.MinRequests = 3
	}
	if c.Generator.Breaker.FailureRatio == 0 {
		c.Generator.Breaker.FailureRatio = 0.6
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "vector_db"
	}
	if c.Storage.Minio.Prefix == "" {
		c.Storage.Minio.Prefix = "indices"
	}

	r := &c.Retrieval
	if r.DefaultTopK == 0 {
		r.DefaultTopK = 5
	}
	if r.ProducerDefaultTopK == 0 {
		r.ProducerDefaultTopK = 15
	}
	if r.VariantTopK == 0 {
		r.VariantTopK = 10
	}
	if r.MaxVariants == 0 {
		r.MaxVariants = 5
	}
	if r.DedupWindowSeconds == nil {
		window := 3
		r.DedupWindowSeconds = &window
	}
	if r.FetchMultiplier == 0 {
		r.FetchMultiplier = 2
	}
	if r.ProductionFetchMultiplier == 0 {
		r.ProductionFetchMultiplier = 3
	}
	if r.SearchWorkers == 0 {
		r.SearchWorkers = 4
	}
	if r.FallbackMoments == 0 {
		r.FallbackMoments = 3
	}

	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 64
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 30
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 30
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 120
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}

	if c.Frames.Dir == "" {
		c.Frames.Dir = "frames"
	}
}

// Validate validates the configuration
func (c *EngineConfig) Validate() error {
	embedders := map[string]bool{"gemini": true, "openai": true, "lexical": true, "mock": true}
	if !embedders[c.Embedder.Provider] {
		return fmt.Errorf("invalid embedder provider '%s'", c.Embedder.Provider)
	}
	generators := map[string]bool{"gemini": true, "openai": true, "mock": true}
	if !generators[c.Generator.Provider] {
		return fmt.Errorf("invalid generator provider '%s'", c.Generator.Provider)
	}
	if c.Embedder.Dimension < 0 {
		return fmt.Errorf("embedder dimension cannot be negative")
	}
	if err := envconfig.ValidateConcurrency(c.Embedder.BatchSize, "embedder batch"); err != nil {
		return err
	}
	if err := envconfig.ValidateRetries(c.Embedder.Retry.MaxRetries, "embedder"); err != nil {
		return err
	}
	if err := envconfig.ValidateRetryDelay(c.Embedder.Retry.InitialIntervalMs, "embedder"); err != nil {
		return err
	}
	if err := envconfig.ValidateRetryDelay(c.Embedder.Retry.MaxIntervalMs, "embedder max"); err != nil {
		return err
	}
	if c.Embedder.Retry.Multiplier < 1 {
		return fmt.Errorf("embedder retry multiplier must be at least 1")
	}
	if t := c.Generator.GenerationTemperature(); t < 0 || t > 2 {
		return fmt.Errorf("generator temperature must be between 0 and 2")
	}
	if err := envconfig.ValidateRatio(c.Generator.Breaker.FailureRatio, "generator breaker failure_ratio"); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "file", "memory":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage backend '%s' requires a dsn", c.Storage.Backend)
		}
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("storage backend 'minio' requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("invalid storage backend '%s'", c.Storage.Backend)
	}

	r := c.Retrieval
	for name, v := range map[string]int{
		"default_top_k":               r.DefaultTopK,
		"producer_default_top_k":      r.ProducerDefaultTopK,
		"variant_top_k":               r.VariantTopK,
		"max_variants":                r.MaxVariants,
		"fetch_multiplier":            r.FetchMultiplier,
		"production_fetch_multiplier": r.ProductionFetchMultiplier,
		"fallback_moments":            r.FallbackMoments,
	} {
		if v <= 0 {
			return fmt.Errorf("retrieval %s must be positive", name)
		}
	}
	if r.DedupWindow() < 0 {
		return fmt.Errorf("retrieval dedup_window_seconds cannot be negative")
	}
	if err := envconfig.ValidateConcurrency(r.SearchWorkers, "search"); err != nil {
		return err
	}

	if c.Cache.MaxEntries <= 0 || c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache max_entries and ttl_minutes must be positive")
	}

	if err := envconfig.ValidatePort(c.Server.Port, "server"); err != nil {
		return err
	}
	if err := envconfig.ValidateTimeout(c.Server.ReadTimeout(), "server read"); err != nil {
		return err
	}
	return envconfig.ValidateTimeout(c.Server.WriteTimeout(), "server write")
}

// ReadTimeout returns the read timeout as a duration
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the write timeout as a duration
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	if path := os.Getenv("VQA_CONFIG_PATH"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".video-qa", "config.yaml")
}

// CreateDefaultConfig creates a default configuration
func CreateDefaultConfig() *EngineConfig {
	c := &EngineConfig{
		Embedder: EmbedderConfig{
			Provider:  "gemini",
			Model:     "gemini-embedding-001",
			APIKey:    "${GEMINI_API_KEY}",
			Dimension: 768,
		},
		Generator: GeneratorConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			APIKey:   "${GEMINI_API_KEY}",
		},
		Storage: StorageConfig{Backend: "file", Dir: "vector_db"},
	}
	c.setDefaults()
	return c
}

// LoadOrDefault loads path when it exists and falls back to defaults otherwise
func LoadOrDefault(path string) (*EngineConfig, error) {
	if path == "" {
		path = GetDefaultConfigPath()
	}
	if _, err := os.Stat(os.ExpandEnv(path)); os.IsNotExist(err) {
		c := CreateDefaultConfig()
		c.expandEnvironmentVariables()
		return c, nil
	}
	return LoadEngineConfig(path)
}
