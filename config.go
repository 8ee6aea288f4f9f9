package dynquery

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the dynquery configuration
type Config struct {
	DefaultFormat string              `yaml:"default_format"`
	Databases     map[string]Database `yaml:"databases"`
	Sources       map[string]string   `yaml:"sources"`
	Query         QueryConfig         `yaml:"query"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
}

// QueryConfig represents query execution settings
type QueryConfig struct {
	MaxRows            int           `yaml:"max_rows"`
	Timeout            time.Duration `yaml:"timeout"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

var validFormats = map[string]bool{
	"table":    true,
	"json":     true,
	"csv":      true,
	"yaml":     true,
	"markdown": true,
	"xml":      true,
}

var validDrivers = map[string]bool{
	"sqlite":     true,
	"sqlite3":    true,
	"postgres":   true,
	"postgresql": true,
	"pgx":        true,
	"mysql":      true,
	"mariadb":    true,
}

// LoadConfig loads configuration from the specified file. A missing file
// yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Strict mode rejects unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.DefaultFormat != "" && !validFormats[config.DefaultFormat] {
		return fmt.Errorf("%w: default_format '%s' is invalid: must be one of table, json, csv, yaml, markdown, xml", ErrConfigValidation, config.DefaultFormat)
	}

	for _, name := range sortedKeys(config.Databases) {
		db := config.Databases[name]

		if db.Driver == "" {
			return fmt.Errorf("%w: databases.%s: driver is required", ErrConfigValidation, name)
		}

		// drivers given through environment variables are checked when the database is opened
		if !validDrivers[db.Driver] && !hasEnvReference(db.Driver) {
			return fmt.Errorf("%w: databases.%s: unknown driver '%s': must be one of sqlite3, pgx, mysql", ErrConfigValidation, name, db.Driver)
		}

		if db.Connection == "" {
			return fmt.Errorf("%w: databases.%s: connection is required", ErrConfigValidation, name)
		}
	}

	for _, name := range sortedKeys(config.Sources) {
		if config.Sources[name] == "" {
			return fmt.Errorf("%w: sources.%s: path is required", ErrConfigValidation, name)
		}
	}

	if config.Query.MaxRows < 0 {
		return fmt.Errorf("%w: query.max_rows must be non-negative, got %d", ErrConfigValidation, config.Query.MaxRows)
	}

	if config.Query.Timeout < 0 {
		return fmt.Errorf("%w: query.timeout must be non-negative, got %s", ErrConfigValidation, config.Query.Timeout)
	}

	if config.Query.SlowQueryThreshold < 0 {
		return fmt.Errorf("%w: query.slow_query_threshold must be >= 0, got %s", ErrConfigValidation, config.Query.SlowQueryThreshold)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		DefaultFormat: "table",
		Databases:     make(map[string]Database),
		Sources:       make(map[string]string),
		Query: QueryConfig{
			MaxRows: 0,
			Timeout: 30 * time.Second,
		},
	}
}

// applyDefaults fills in default values for missing configuration
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.DefaultFormat == "" {
		config.DefaultFormat = defaults.DefaultFormat
	}

	if config.Databases == nil {
		config.Databases = defaults.Databases
	}

	if config.Sources == nil {
		config.Sources = defaults.Sources
	}

	if config.Query.Timeout == 0 {
		config.Query.Timeout = defaults.Query.Timeout
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

func hasEnvReference(s string) bool {
	return bracedEnvVar.MatchString(s) || plainEnvVar.MatchString(s)
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in database settings and source paths
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		config.Databases[name] = db
	}

	for name, path := range config.Sources {
		config.Sources[name] = expandEnvVars(path)
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Database returns the database configuration by name. An empty name selects
// the only configured database.
func (c *Config) Database(name string) (Database, error) {
	if name == "" {
		if len(c.Databases) != 1 {
			return Database{}, fmt.Errorf("%w: database name is required when %d databases are configured", ErrConfigValidation, len(c.Databases))
		}

		for _, db := range c.Databases {
			return db, nil
		}
	}

	db, ok := c.Databases[name]
	if !ok {
		return Database{}, fmt.Errorf("%w: database '%s' is not configured", ErrConfigValidation, name)
	}

	return db, nil
}
