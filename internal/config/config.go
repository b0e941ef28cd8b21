package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
)

// Config holds the tariffdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Tuning    TuningConfig    `yaml:"tuning"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Embedding cache backends.
const (
	CacheRedis  = "redis"
	CacheBadger = "badger"
	CacheNone   = "none"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW and corpus indexing settings.
type IndexConfig struct {
	HNSWM           int      `yaml:"hnsw_m"`
	HNSWEFConstruct int      `yaml:"hnsw_ef_construction"`
	BatchSize       int      `yaml:"batch_size"`        // texts per embedding call
	Concurrency     int      `yaml:"embed_concurrency"` // in-flight embedding calls
	OnlyItems       bool     `yaml:"only_items"`
	ExtraTags       []string `yaml:"extra_tags"` // extra metadata fields indexed as TAG
	MaxDocuments    int      `yaml:"max_documents"`
}

// SearchConfig holds the live blend and request defaults.
type SearchConfig struct {
	EmbeddingWeight float64 `yaml:"embedding_weight"`
	LexicalWeight   float64 `yaml:"lexical_weight"`
	Overfetch       int     `yaml:"overfetch"`
	DefaultTopK     int     `yaml:"default_top_k"`
	PreferItems     bool    `yaml:"prefer_items"`
	DocumentType    string  `yaml:"document_type"` // "" = no type filter
	AttributeLimit  int     `yaml:"attribute_limit"`
}

// TuningConfig holds weight sweep settings.
type TuningConfig struct {
	WeightRange []float64 `yaml:"weight_range"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider            string                    `yaml:"provider"`
	Providers           map[string]ProviderConfig `yaml:"providers"`
	Model               string                    `yaml:"model"`
	Dimensions          int                       `yaml:"dimensions"`
	DocumentInstruction string                    `yaml:"document_instruction"`
	QueryInstruction    string                    `yaml:"query_instruction"`
	MaxBatchSize        int                       `yaml:"max_batch_size"` // texts per API request
	LRUSize             int                       `yaml:"lru_size"`       // 0 = default, <0 = disabled
	Cache               CacheConfig               `yaml:"cache"`
}

// CacheConfig holds the persistent embedding cache settings.
type CacheConfig struct {
	Backend string `yaml:"backend"` // redis, badger, none (default: follows database.driver)
	Dir     string `yaml:"dir"`     // badger directory
	TTLSec  int    `yaml:"ttl_sec"` // 0 = no expiry
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 64
	}
	if c.Index.Concurrency <= 0 {
		c.Index.Concurrency = 4
	}
	if c.Index.MaxDocuments <= 0 {
		c.Index.MaxDocuments = 100000
	}
	if c.Search.EmbeddingWeight == 0 && c.Search.LexicalWeight == 0 {
		c.Search.EmbeddingWeight = weights.DefaultEmbedding
		c.Search.LexicalWeight = weights.DefaultLexical
	}
	if c.Search.Overfetch <= 0 {
		c.Search.Overfetch = 3
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.AttributeLimit <= 0 {
		c.Search.AttributeLimit = 20
	}
	if len(c.Tuning.WeightRange) == 0 {
		c.Tuning.WeightRange = []float64{0.5, 0.6, 0.7, 0.8}
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 256
	}
	if c.Embedding.Cache.Backend == "" {
		// Без Redis кэш живёт на диске.
		if c.Database.Driver == DriverMemory {
			c.Embedding.Cache.Backend = CacheBadger
		} else {
			c.Embedding.Cache.Backend = CacheRedis
		}
	}
	if c.Embedding.Cache.Backend == CacheBadger && c.Embedding.Cache.Dir == "" {
		c.Embedding.Cache.Dir = "data/embedding_cache"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "tariffdex:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}
	switch c.Embedding.Cache.Backend {
	case CacheNone, CacheBadger:
	case CacheRedis:
		if c.Database.Driver != DriverRedis {
			return fmt.Errorf("embedding.cache.backend %q requires database.driver %q", CacheRedis, DriverRedis)
		}
	default:
		return fmt.Errorf("embedding.cache.backend must be redis, badger or none, got %q", c.Embedding.Cache.Backend)
	}
	if c.Embedding.Provider != "" {
		if _, ok := c.Embedding.Providers[c.Embedding.Provider]; !ok {
			return fmt.Errorf("embedding.provider %q has no entry in embedding.providers", c.Embedding.Provider)
		}
	}
	if _, err := weights.New(c.Search.EmbeddingWeight, c.Search.LexicalWeight); err != nil {
		return fmt.Errorf("search weights: %w", err)
	}
	for _, w := range c.Tuning.WeightRange {
		if w < 0 || w > 1 {
			return fmt.Errorf("tuning.weight_range: %g is outside [0,1]", w)
		}
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
