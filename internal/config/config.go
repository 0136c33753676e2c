package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the leadgrid API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Grid      GridConfig      `yaml:"grid"`
	Messaging MessagingConfig `yaml:"messaging"`
	Logging   LoggingConfig   `yaml:"logging"`
}

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

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	LeadsTable       string `yaml:"leads_table"`
}

// RedisConfig holds the retry-queue connection settings.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	Stream   string   `yaml:"stream"`
	Group    string   `yaml:"group"`
}

// GridConfig holds grid listing settings.
type GridConfig struct {
	DefaultPageSize int                          `yaml:"default_page_size"`
	MaxPageSize     int                          `yaml:"max_page_size"`
	CustomFields    map[string]CustomFieldConfig `yaml:"custom_fields"`
}

// CustomFieldConfig declares a filterable alias over an existing column.
// Type is one of: boolean, character, text, integer, date, date-time.
type CustomFieldConfig struct {
	Type   string `yaml:"type"`
	Column string `yaml:"column"`
}

// MessagingConfig holds notification provider settings.
type MessagingConfig struct {
	SMS         SMSProviderConfig   `yaml:"sms"`
	Email       EmailProviderConfig `yaml:"email"`
	MaxAttempts int                 `yaml:"max_attempts"`
}

// SMSProviderConfig holds Twilio-style SMS REST API settings.
type SMSProviderConfig struct {
	BaseURL    string `yaml:"base_url"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// EmailProviderConfig holds email REST API settings.
type EmailProviderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.LeadsTable == "" {
		c.Database.LeadsTable = "leads"
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = "leadgrid:notifications:retry"
	}
	if c.Redis.Group == "" {
		c.Redis.Group = "notifiers"
	}
	if c.Grid.DefaultPageSize <= 0 {
		c.Grid.DefaultPageSize = 20
	}
	if c.Grid.MaxPageSize <= 0 {
		c.Grid.MaxPageSize = 100
	}
	if c.Messaging.MaxAttempts <= 0 {
		c.Messaging.MaxAttempts = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Grid.DefaultPageSize > c.Grid.MaxPageSize {
		return fmt.Errorf("grid.default_page_size %d exceeds grid.max_page_size %d",
			c.Grid.DefaultPageSize, c.Grid.MaxPageSize)
	}
	for name, cf := range c.Grid.CustomFields {
		if cf.Type == "" {
			return fmt.Errorf("grid.custom_fields.%s.type is required", name)
		}
	}
	if c.Messaging.SMS.BaseURL != "" && c.Messaging.SMS.FromNumber == "" {
		return fmt.Errorf("messaging.sms.from_number is required when sms is configured")
	}
	if c.Messaging.Email.BaseURL != "" && c.Messaging.Email.FromAddress == "" {
		return fmt.Errorf("messaging.email.from_address is required when email is configured")
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
