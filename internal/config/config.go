package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "BDX"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Download  DownloadConfig  `yaml:"download" envconfig:"DOWNLOAD"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Publish   PublishConfig   `yaml:"publish" envconfig:"PUBLISH"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"` // console, file or both
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PipelineConfig drives the monthly reconstruction run.
type PipelineConfig struct {
	BaseDir       string `yaml:"base_dir" envconfig:"BASE_DIR"`
	InputDir      string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	SheetName     string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	OutputCSV     string `yaml:"output_csv" envconfig:"OUTPUT_CSV"`
	ProcessedList string `yaml:"processed_list" envconfig:"PROCESSED_LIST"`
	FailedList    string `yaml:"failed_list" envconfig:"FAILED_LIST"`
	Workers       int    `yaml:"workers" envconfig:"WORKERS"`
}

// DownloadConfig contains scraper settings.
type DownloadConfig struct {
	PageURL     string        `yaml:"page_url" envconfig:"PAGE_URL"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL"`
	OutputDir   string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	UserAgent   string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	PageTimeout time.Duration `yaml:"page_timeout" envconfig:"PAGE_TIMEOUT"`
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY"`
	RatePerSec  float64       `yaml:"rate_per_sec" envconfig:"RATE_PER_SEC"`
	Headless    bool          `yaml:"headless" envconfig:"HEADLESS"`
}

// CleaningConfig contains the country cleaning step's file locations.
type CleaningConfig struct {
	InputCSV      string `yaml:"input_csv" envconfig:"INPUT_CSV"`
	OutputCSV     string `yaml:"output_csv" envconfig:"OUTPUT_CSV"`
	CountriesFile string `yaml:"countries_file" envconfig:"COUNTRIES_FILE"`
	ReportCSV     string `yaml:"report_csv" envconfig:"REPORT_CSV"`
}

// StoreConfig selects the queryable mirror of the monthly table.
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"` // sqlite or none
	DSN    string `yaml:"dsn" envconfig:"DSN"`
}

// PublishConfig points at an S3-compatible bucket. An empty bucket disables publishing.
type PublishConfig struct {
	Endpoint       string `yaml:"endpoint" envconfig:"ENDPOINT"`
	Region         string `yaml:"region" envconfig:"REGION"`
	Bucket         string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix         string `yaml:"prefix" envconfig:"PREFIX"`
	AccessKey      string `yaml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey      string `yaml:"secret_key" envconfig:"SECRET_KEY"`
	UseSSL         bool   `yaml:"use_ssl" envconfig:"USE_SSL"`
	ForcePathStyle bool   `yaml:"force_path_style" envconfig:"FORCE_PATH_STYLE"`
}

// Enabled reports whether uploads are configured.
func (p PublishConfig) Enabled() bool { return p.Bucket != "" }

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// TelemetryConfig toggles tracing and metrics.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration in layers: defaults, then the YAML file,
// then a .env file and the process environment. Later layers win.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML path. An empty path skips the file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// Fields without a matching variable are left untouched.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if strings.TrimSpace(c.Pipeline.SheetName) == "" {
		return fmt.Errorf("pipeline sheet name must not be empty")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("store dsn is required for the sqlite driver")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Download.Concurrency < 1 {
		return fmt.Errorf("download concurrency must be at least 1")
	}
	if c.Download.RatePerSec <= 0 {
		return fmt.Errorf("download rate must be positive")
	}
	if c.Publish.Enabled() && c.Publish.Region == "" {
		return fmt.Errorf("publish region is required when a bucket is set")
	}
	return nil
}

// getConfigFilePath returns the first config file found in the usual locations.
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/bdexports.log",
		},
		Pipeline: PipelineConfig{
			BaseDir:   ".",
			SheetName: DefaultSheetName,
			Workers:   1,
		},
		Download: DownloadConfig{
			PageURL:     DefaultExportPageURL,
			BaseURL:     DefaultSiteURL,
			UserAgent:   DefaultUserAgent,
			Timeout:     DefaultDownloadTimeout,
			PageTimeout: 60 * time.Second,
			Concurrency: 4,
			RatePerSec:  2,
			Headless:    true,
		},
		Store: StoreConfig{
			Driver: "none",
		},
		Publish: PublishConfig{
			Region: "us-east-1",
			Prefix: "bdexports",
			UseSSL: true,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			MetricsEnabled: true,
		},
	}
}
