// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// Config is the top-level pgvs configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Schema    SchemaConfig    `mapstructure:"schema"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Listen       string          `mapstructure:"listen"`
	APIKey       string          `mapstructure:"api_key"`
	CORSOrigins  []string        `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig sets the per-IP token bucket. Zero requests per second disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// DatabaseConfig controls the PostgreSQL connection pool.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// EmbeddingConfig points at an OpenAI-compatible embeddings endpoint,
// typically a LiteLLM proxy.
type EmbeddingConfig struct {
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cache      CacheConfig   `mapstructure:"cache"`
}

// CacheConfig sizes the query-embedding cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// SchemaConfig maps the logical tables and columns to physical names.
type SchemaConfig struct {
	VectorStoresTable string       `mapstructure:"vector_stores_table"`
	EmbeddingsTable   string       `mapstructure:"embeddings_table"`
	Fields            FieldsConfig `mapstructure:"fields"`
}

// FieldsConfig names the embedding table columns.
type FieldsConfig struct {
	ID            string `mapstructure:"id"`
	Content       string `mapstructure:"content"`
	Metadata      string `mapstructure:"metadata"`
	Embedding     string `mapstructure:"embedding"`
	VectorStoreID string `mapstructure:"vector_store_id"`
	CreatedAt     string `mapstructure:"created_at"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv lists environment names understood by earlier deployments of the
// proxy. The PGVS_ name always wins over the legacy one.
var legacyEnv = map[string]string{
	"database.url":                  "DATABASE_URL",
	"server.api_key":                "SERVER_API_KEY",
	"embedding.model":               "EMBEDDING__MODEL",
	"embedding.base_url":            "EMBEDDING__BASE_URL",
	"embedding.api_key":             "EMBEDDING__API_KEY",
	"embedding.dimensions":          "EMBEDDING__DIMENSIONS",
	"schema.fields.id":              "DB_FIELDS__ID_FIELD",
	"schema.fields.content":         "DB_FIELDS__CONTENT_FIELD",
	"schema.fields.metadata":        "DB_FIELDS__METADATA_FIELD",
	"schema.fields.embedding":       "DB_FIELDS__EMBEDDING_FIELD",
	"schema.fields.vector_store_id": "DB_FIELDS__VECTOR_STORE_ID_FIELD",
	"schema.fields.created_at":      "DB_FIELDS__CREATED_AT_FIELD",
}

// SetDefaults registers every default on v. Exported so the CLI can share
// one viper instance with flag bindings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "0.0.0.0:8000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 20)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("embedding.model", "text-embedding-ada-002")
	v.SetDefault("embedding.base_url", "http://localhost:4000")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("embedding.cache.size", 0)
	v.SetDefault("embedding.cache.ttl", 10*time.Minute)

	v.SetDefault("schema.vector_stores_table", "vector_stores")
	v.SetDefault("schema.embeddings_table", "embeddings")
	v.SetDefault("schema.fields.id", "id")
	v.SetDefault("schema.fields.content", "content")
	v.SetDefault("schema.fields.metadata", "metadata")
	v.SetDefault("schema.fields.embedding", "embedding")
	v.SetDefault("schema.fields.vector_store_id", "vector_store_id")
	v.SetDefault("schema.fields.created_at", "created_at")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// BindEnv configures PGVS_ prefixed environment overrides plus the legacy
// names in legacyEnv.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PGVS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "PGVS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix PGVS_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := joinErrors(cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals v without validating. Callers that need only part of
// the configuration validate that part themselves.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, pgvserr.Errorf(pgvserr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return pgvserr.Errorf(pgvserr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateDatabase()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateSchema()...)
	errs = append(errs, c.validateLog()...)

	return errs
}

// ValidateStorage checks only the sections needed to reach the database.
func (c *Config) ValidateStorage() error {
	var errs []error
	errs = append(errs, c.validateDatabase()...)
	errs = append(errs, c.validateSchema()...)
	return joinErrors(errs)
}

func invalid(format string, args ...any) error {
	return pgvserr.Errorf(pgvserr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, invalid("server.listen must not be empty"))
	} else {
		_, portStr, err := net.SplitHostPort(c.Server.Listen)
		if err != nil {
			errs = append(errs, invalid("server.listen must be a valid host:port address, got %q: %w", c.Server.Listen, err))
		} else if port, err := strconv.Atoi(portStr); err != nil {
			errs = append(errs, invalid("server.listen port must be a number, got %q", portStr))
		} else if port < 0 || port > 65535 {
			errs = append(errs, invalid("server.listen port must be between 0 and 65535, got %d", port))
		}
	}

	if c.Server.APIKey == "" {
		errs = append(errs, invalid("server.api_key must not be empty"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, invalid("server timeouts must not be negative"))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, invalid("server.max_body_bytes must not be negative, got %d", c.Server.MaxBodyBytes))
	}

	rl := c.Server.RateLimit
	if rl.RequestsPerSecond < 0 {
		errs = append(errs, invalid("server.rate_limit.requests_per_second must not be negative, got %g", rl.RequestsPerSecond))
	}
	if rl.RequestsPerSecond > 0 && rl.Burst <= 0 {
		errs = append(errs, invalid("server.rate_limit.burst must be positive when a rate is set, got %d", rl.Burst))
	}

	return errs
}

func (c *Config) validateDatabase() []error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, invalid("database.url must not be empty"))
	} else if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		errs = append(errs, invalid("database.url must be a postgres:// or postgresql:// URL"))
	}

	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		errs = append(errs, invalid("database connection limits must not be negative"))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	if c.Embedding.Model == "" {
		errs = append(errs, invalid("embedding.model must not be empty"))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, invalid("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	if c.Embedding.BaseURL != "" {
		if u, err := url.Parse(c.Embedding.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, invalid("embedding.base_url must be an absolute URL, got %q", c.Embedding.BaseURL))
		}
	}
	if c.Embedding.Cache.Size < 0 {
		errs = append(errs, invalid("embedding.cache.size must not be negative, got %d", c.Embedding.Cache.Size))
	}
	if c.Embedding.Cache.Size > 0 && c.Embedding.Cache.TTL <= 0 {
		errs = append(errs, invalid("embedding.cache.ttl must be positive when the cache is enabled"))
	}

	return errs
}

func (c *Config) validateSchema() []error {
	if err := c.StorageConfig().Schema.Validate(); err != nil {
		return []error{invalid("%s", err.Error())}
	}
	return nil
}

func (c *Config) validateLog() []error {
	var errs []error

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, invalid("log.level must be one of [debug, info, warn, error], got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, invalid("log.format must be one of [text, json], got %q", c.Log.Format))
	}

	return errs
}

// StorageConfig converts the database and schema sections for store.Open.
func (c *Config) StorageConfig() *store.StorageConfig {
	f := c.Schema.Fields
	return &store.StorageConfig{
		Backend:          "postgres",
		URL:              c.Database.URL,
		MaxOpenConns:     c.Database.MaxOpenConns,
		MaxIdleConns:     c.Database.MaxIdleConns,
		ConnMaxLifetime:  c.Database.ConnMaxLifetime,
		VectorDimensions: c.Embedding.Dimensions,
		Schema: store.Schema{
			VectorStoresTable: c.Schema.VectorStoresTable,
			EmbeddingsTable:   c.Schema.EmbeddingsTable,
			Fields: store.FieldNames{
				ID:            f.ID,
				Content:       f.Content,
				Metadata:      f.Metadata,
				Embedding:     f.Embedding,
				VectorStoreID: f.VectorStoreID,
				CreatedAt:     f.CreatedAt,
			},
		}.WithDefaults(),
	}
}
