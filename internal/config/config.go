package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Datasets DatasetsConfig `yaml:"datasets" envconfig:"DATASETS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/samarth.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// DatasetsConfig identifies the two data.gov.in resources and their local cache files.
// The download URLs are optional; when empty the loader relies on pre-populated cache
// files and directs the user to the manual download pages on a miss.
type DatasetsConfig struct {
	RainfallURL       string        `yaml:"rainfall_url" envconfig:"RAINFALL_URL"`
	CropURL           string        `yaml:"crop_url" envconfig:"CROP_URL"`
	RainfallFile      string        `yaml:"rainfall_file" envconfig:"RAINFALL_FILE" default:"rainfall_data.csv"`
	CropFile          string        `yaml:"crop_file" envconfig:"CROP_FILE" default:"crop_production.csv"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"60s"`
	RainfallManualURL string        `yaml:"rainfall_manual_url" envconfig:"RAINFALL_MANUAL_URL" default:"https://data.gov.in/resource/daily-district-wise-rainfall-data"`
	CropManualURL     string        `yaml:"crop_manual_url" envconfig:"CROP_MANUAL_URL" default:"https://data.gov.in/resource/state-ut-wise-production-principal-crops-2009-10-2015-16"`
}

// Load loads configuration with env > file > defaults precedence. envconfig
// fills the struct with defaults and env values, the YAML file is unmarshaled
// over it (touching only the fields it names), then explicitly-set env vars
// are re-applied since the file may have overwritten them.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SAMARTH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		if err := applyEnvOverrides(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply env overrides: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// getConfigFilePath returns the config file path, honoring SAMARTH_CONFIG_FILE
func getConfigFilePath() string {
	if path := os.Getenv("SAMARTH_CONFIG_FILE"); path != "" {
		return path
	}
	return "samarth.yaml"
}

// applyEnvOverrides re-applies environment variables over file values. Unlike
// envconfig.Process it only touches variables that are actually set, so
// struct-tag defaults never stomp file values.
func applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		key string
		set func(string) error
	}{
		{"SAMARTH_SERVER_PORT", setInt(&cfg.Server.Port)},
		{"SAMARTH_SERVER_READ_TIMEOUT", setDuration(&cfg.Server.ReadTimeout)},
		{"SAMARTH_SERVER_WRITE_TIMEOUT", setDuration(&cfg.Server.WriteTimeout)},
		{"SAMARTH_SERVER_IDLE_TIMEOUT", setDuration(&cfg.Server.IdleTimeout)},
		{"SAMARTH_SERVER_MAX_HEADER_BYTES", setInt(&cfg.Server.MaxHeaderBytes)},
		{"SAMARTH_SERVER_SHUTDOWN_TIMEOUT", setDuration(&cfg.Server.ShutdownTimeout)},
		{"SAMARTH_SECURITY_ALLOWED_ORIGINS", setStringSlice(&cfg.Security.AllowedOrigins)},
		{"SAMARTH_SECURITY_ENABLE_CORS", setBool(&cfg.Security.EnableCORS)},
		{"SAMARTH_SECURITY_RATE_LIMIT_ENABLED", setBool(&cfg.Security.RateLimit.Enabled)},
		{"SAMARTH_SECURITY_RATE_LIMIT_RPS", setFloat(&cfg.Security.RateLimit.RPS)},
		{"SAMARTH_SECURITY_RATE_LIMIT_BURST", setInt(&cfg.Security.RateLimit.Burst)},
		{"SAMARTH_LOGGING_LEVEL", setString(&cfg.Logging.Level)},
		{"SAMARTH_LOGGING_OUTPUT", setString(&cfg.Logging.Output)},
		{"SAMARTH_LOGGING_FILE_PATH", setString(&cfg.Logging.FilePath)},
		{"SAMARTH_PATHS_DATA_DIR", setString(&cfg.Paths.DataDir)},
		{"SAMARTH_PATHS_LOGS_DIR", setString(&cfg.Paths.LogsDir)},
		{"SAMARTH_DATASETS_RAINFALL_URL", setString(&cfg.Datasets.RainfallURL)},
		{"SAMARTH_DATASETS_CROP_URL", setString(&cfg.Datasets.CropURL)},
		{"SAMARTH_DATASETS_RAINFALL_FILE", setString(&cfg.Datasets.RainfallFile)},
		{"SAMARTH_DATASETS_CROP_FILE", setString(&cfg.Datasets.CropFile)},
		{"SAMARTH_DATASETS_FETCH_TIMEOUT", setDuration(&cfg.Datasets.FetchTimeout)},
		{"SAMARTH_DATASETS_RAINFALL_MANUAL_URL", setString(&cfg.Datasets.RainfallManualURL)},
		{"SAMARTH_DATASETS_CROP_MANUAL_URL", setString(&cfg.Datasets.CropManualURL)},
	}

	for _, o := range overrides {
		value, ok := os.LookupEnv(o.key)
		if !ok || value == "" {
			continue
		}
		if err := o.set(value); err != nil {
			return fmt.Errorf("invalid %s: %w", o.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setStringSlice(dst *[]string) func(string) error {
	return func(v string) error {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		*dst = parts
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// resolvePaths makes relative paths absolute against the working directory
func (c *Config) resolvePaths() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	if !filepath.IsAbs(c.Paths.DataDir) {
		c.Paths.DataDir = filepath.Join(wd, c.Paths.DataDir)
	}
	if !filepath.IsAbs(c.Paths.LogsDir) {
		c.Paths.LogsDir = filepath.Join(wd, c.Paths.LogsDir)
	}
	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(wd, c.Logging.FilePath)
	}

	return nil
}

// validate checks configuration for invalid values
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive, got %f", c.Security.RateLimit.RPS)
	}

	if c.Datasets.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Datasets.FetchTimeout)
	}

	return nil
}

// RainfallPath returns the on-disk cache path for the rainfall dataset
func (c *Config) RainfallPath() string {
	return filepath.Join(c.Paths.DataDir, c.Datasets.RainfallFile)
}

// CropPath returns the on-disk cache path for the crop production dataset
func (c *Config) CropPath() string {
	return filepath.Join(c.Paths.DataDir, c.Datasets.CropFile)
}

// EnsureDirs creates the data and logs directories if missing
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
