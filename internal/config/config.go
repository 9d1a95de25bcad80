package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FINTRACK_PORT.
const EnvPrefix = "FINTRACK"

// ConfigFileEnv names an optional TOML file read before the environment.
const ConfigFileEnv = "FINTRACK_CONFIG"

// Exporter backends.
const (
	ExporterMemory = "memory"
	ExporterSheets = "sheets"
)

type Config struct {
	// HTTP server
	Port               string `mapstructure:"port"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`

	// Database
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`

	// AMQP. An empty URL disables publishing and consuming.
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Export
	Exporter              string        `mapstructure:"exporter"`
	GoogleSpreadsheetID   string        `mapstructure:"google_spreadsheet_id"`
	GoogleSheetName       string        `mapstructure:"google_sheet_name"`
	GoogleCredentialsJSON string        `mapstructure:"google_credentials_json"`
	GoogleCredentialsFile string        `mapstructure:"google_credentials_file"`
	ExportBatchSize       int           `mapstructure:"export_batch_size"`
	ExportInterval        time.Duration `mapstructure:"export_interval"`
	ExportMaxAttempts     int           `mapstructure:"export_max_attempts"`

	// Analytics
	AnalyticsCacheTTL  time.Duration `mapstructure:"analytics_cache_ttl"`
	AnalyticsCacheSize int           `mapstructure:"analytics_cache_size"`

	LogLevel string `mapstructure:"log_level"`
}

var defaults = map[string]any{
	"port":                    "8081",
	"rate_limit_per_minute":   120,
	"sqlite_db_path":          "./data/fintrack.db",
	"amqp_url":                "",
	"amqp_exchange":           "fintrack",
	"amqp_queue":              "ledger_entries",
	"exporter":                ExporterMemory,
	"google_spreadsheet_id":   "",
	"google_sheet_name":       "Ledger",
	"google_credentials_json": "",
	"google_credentials_file": "",
	"export_batch_size":       50,
	"export_interval":         time.Minute,
	"export_max_attempts":     5,
	"analytics_cache_ttl":     5 * time.Minute,
	"analytics_cache_size":    256,
	"log_level":               "info",
}

// Load layers defaults, the optional TOML file named by FINTRACK_CONFIG and
// FINTRACK_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("toml")
	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate collects every problem and reports them together.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	validExporters := []string{ExporterMemory, ExporterSheets}
	if !slices.Contains(validExporters, c.Exporter) {
		errors = append(errors, fmt.Sprintf("invalid exporter '%s': must be one of %v", c.Exporter, validExporters))
	}
	if c.Exporter == ExporterSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using the sheets exporter")
		}
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "Google credentials are required for the sheets exporter: set google_credentials_json, google_credentials_file or GOOGLE_APPLICATION_CREDENTIALS")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if c.ExportMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid export max attempts %d: must be at least 1", c.ExportMaxAttempts))
	}

	if c.AnalyticsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid analytics cache TTL %v: must not be negative", c.AnalyticsCacheTTL))
	}
	if c.AnalyticsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid analytics cache size %d: must be at least 1", c.AnalyticsCacheSize))
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AMQPEnabled reports whether ledger events go through RabbitMQ.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}
