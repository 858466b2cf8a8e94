package lakeq

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the lakeq configuration
type Config struct {
	Dialect  string         `yaml:"dialect"`
	Dataset  string         `yaml:"dataset"`
	Database DatabaseConfig `yaml:"database"`
	Limits   Limits         `yaml:"limits"`
	Query    QueryConfig    `yaml:"query"`
	Cache    CacheConfig    `yaml:"cache"`
	Workers  WorkerConfig   `yaml:"workers"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Connection      string        `yaml:"connection"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// QueryConfig represents query execution settings
type QueryConfig struct {
	Timeout int `yaml:"timeout"` // seconds, 0 means no deadline
	MaxRows int `yaml:"max_rows"`
}

// CacheConfig represents compiled-plan cache settings
type CacheConfig struct {
	PlanEntries int `yaml:"plan_entries"`
}

// WorkerConfig represents the hybrid-plan worker pool settings
type WorkerConfig struct {
	PoolSize int `yaml:"pool_size"`
}

// MetricsConfig represents metrics exposure settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	// Validate the configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Expand environment variables
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if !Dialect(config.Dialect).Valid() {
		return fmt.Errorf("%w: invalid dialect '%s': must be one of postgres, mysql, sqlite, mariadb", ErrConfigValidation, config.Dialect)
	}

	if err := config.Limits.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}

	if config.Query.Timeout < 0 {
		return fmt.Errorf("%w: query.timeout must be non-negative, got %d", ErrConfigValidation, config.Query.Timeout)
	}

	if config.Query.MaxRows < 0 {
		return fmt.Errorf("%w: query.max_rows must be non-negative, got %d", ErrConfigValidation, config.Query.MaxRows)
	}

	if config.Cache.PlanEntries < 0 {
		return fmt.Errorf("%w: cache.plan_entries must be non-negative, got %d", ErrConfigValidation, config.Cache.PlanEntries)
	}

	if config.Workers.PoolSize < 0 {
		return fmt.Errorf("%w: workers.pool_size must be non-negative, got %d", ErrConfigValidation, config.Workers.PoolSize)
	}

	if config.Database.MaxOpenConns < 0 {
		return fmt.Errorf("%w: database.max_open_conns must be non-negative, got %d", ErrConfigValidation, config.Database.MaxOpenConns)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Dialect: string(DialectSQLite),
		Dataset: "production",
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			Connection:      "file:lakeq.db?cache=shared",
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Limits: DefaultLimits(),
		Query: QueryConfig{
			Timeout: 30,
			MaxRows: 10000,
		},
		Cache: CacheConfig{
			PlanEntries: 512,
		},
		Workers: WorkerConfig{
			PoolSize: 8,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "lakeq",
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	def := getDefaultConfig()

	if config.Dialect == "" {
		config.Dialect = def.Dialect
	}

	if config.Dataset == "" {
		config.Dataset = def.Dataset
	}

	if config.Database.Driver == "" {
		config.Database.Driver = def.Database.Driver
	}

	if config.Database.Connection == "" {
		config.Database.Connection = def.Database.Connection
	}

	if config.Database.MaxOpenConns == 0 {
		config.Database.MaxOpenConns = def.Database.MaxOpenConns
	}

	if config.Database.ConnMaxLifetime == 0 {
		config.Database.ConnMaxLifetime = def.Database.ConnMaxLifetime
	}

	if config.Limits.MaxDepth == 0 {
		config.Limits.MaxDepth = DefaultMaxDepth
	}

	if config.Limits.MaxProjectionFields == 0 {
		config.Limits.MaxProjectionFields = DefaultMaxProjectionFields
	}

	if config.Limits.MaxSliceLength == 0 {
		config.Limits.MaxSliceLength = DefaultMaxSliceLength
	}

	if config.Query.Timeout == 0 {
		config.Query.Timeout = def.Query.Timeout
	}

	if config.Query.MaxRows == 0 {
		config.Query.MaxRows = def.Query.MaxRows
	}

	if config.Cache.PlanEntries == 0 {
		config.Cache.PlanEntries = def.Cache.PlanEntries
	}

	if config.Workers.PoolSize == 0 {
		config.Workers.PoolSize = def.Workers.PoolSize
	}

	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = def.Metrics.Namespace
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	// Local overrides win over the shared file, existing env wins over both
	for _, name := range []string{".env.local", ".env"} {
		if fileExists(name) {
			err := godotenv.Load(name)
			if err != nil {
				return fmt.Errorf("failed to load %s file: %w", name, err)
			}
		}
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	// Pattern for ${VAR} format
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		return os.Getenv(varName)
	})

	// Pattern for $VAR format (word boundaries)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		return os.Getenv(varName)
	})

	return s
}

// expandConfigEnvVars expands environment variables in config
func expandConfigEnvVars(config *Config) {
	config.Database.Connection = expandEnvVars(config.Database.Connection)
	config.Database.Driver = expandEnvVars(config.Database.Driver)
	config.Dataset = expandEnvVars(config.Dataset)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// QueryTimeout returns the configured per-query deadline.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Query.Timeout) * time.Second
}
