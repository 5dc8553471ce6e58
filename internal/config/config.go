// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.raggle/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Nuclia: API keys, knowledge box UID, zone, widget options
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: listen address, CORS origins, rate limiting
//   - Client: backend URL and local history file used by the CLI commands
//
// Security: Sensitive data (API keys, passwords) are never logged; config
// directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingWriterKey indicates the Nuclia writer API key is missing.
	ErrMissingWriterKey = errors.New("missing Nuclia writer API key")

	// ErrMissingReaderKey indicates the Nuclia reader API key is missing.
	ErrMissingReaderKey = errors.New("missing Nuclia reader API key")

	// ErrMissingKnowledgeBox indicates the knowledge box UID is missing.
	ErrMissingKnowledgeBox = errors.New("missing knowledge box UID")

	// ErrInvalidAPIBase indicates the Nuclia API base URL is invalid.
	ErrInvalidAPIBase = errors.New("invalid Nuclia API base URL")

	// ErrInvalidBackendURL indicates the backend URL used by the CLI is invalid.
	ErrInvalidBackendURL = errors.New("invalid backend URL")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Default values for the Nuclia service endpoints.
const (
	// DefaultZone is the Nuclia cloud zone the knowledge box lives in.
	DefaultZone = "aws-eu-central-1-1"

	// DefaultAPIBase is the Nuclia API root for the default zone.
	DefaultAPIBase = "https://aws-eu-central-1-1.rag.progress.cloud/api"
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// Nuclia service configuration
	NucliaWriterKey string `mapstructure:"nuclia_writer_key" json:"nuclia_writer_key"` // SENSITIVE: masked in MarshalJSON
	NucliaReaderKey string `mapstructure:"nuclia_reader_key" json:"nuclia_reader_key"` // SENSITIVE: masked in MarshalJSON
	KnowledgeBox    string `mapstructure:"knowledge_box" json:"knowledge_box"`
	Zone            string `mapstructure:"zone" json:"zone"`
	APIBase         string `mapstructure:"api_base" json:"api_base"`

	// Widget configuration handed to the hosted chat/search custom element.
	// Opaque to this codebase; forwarded verbatim by GET /nuclia-config.
	WidgetFeatures        string `mapstructure:"widget_features" json:"widget_features"`
	WidgetRAGStrategies   string `mapstructure:"widget_rag_strategies" json:"widget_rag_strategies"`
	WidgetGenerativeModel string `mapstructure:"widget_generative_model" json:"widget_generative_model"`
	WidgetFilters         string `mapstructure:"widget_filters" json:"widget_filters"`
	WidgetFeedback        string `mapstructure:"widget_feedback" json:"widget_feedback"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration (serve mode only)
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For headers (set true behind reverse proxy)
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Client configuration (CLI commands)
	BackendURL  string `mapstructure:"backend_url" json:"backend_url"`
	HistoryPath string `mapstructure:"history_path" json:"history_path"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".raggle")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults(configDir)
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Parse DATABASE_URL if set (highest priority for PostgreSQL config)
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	viper.SetDefault("zone", DefaultZone)
	viper.SetDefault("api_base", DefaultAPIBase)

	viper.SetDefault("widget_features", "answers,citations,suggestions")
	viper.SetDefault("widget_feedback", "answer")

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "raggle")
	viper.SetDefault("postgres_db_name", "raggle")
	viper.SetDefault("postgres_ssl_mode", "prefer")

	viper.SetDefault("listen_addr", "localhost:5000")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	viper.SetDefault("rate_burst", 60)

	viper.SetDefault("backend_url", "http://localhost:5000")
	viper.SetDefault("history_path", filepath.Join(configDir, "history.json"))
}

// bindEnvVariables binds environment variables to configuration keys.
// The RAGGLE_ prefix covers every key; the Nuclia settings additionally accept
// the provider's conventional variable names so existing deployments keep working.
func bindEnvVariables() {
	viper.SetEnvPrefix("RAGGLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		"nuclia_writer_key": "NUCLIA_WRITER_API_KEY",
		"nuclia_reader_key": "NUCLIA_READER_API_KEY",
		"knowledge_box":     "NUCLIA_KB_UID",
		"zone":              "NUCLIA_ZONE",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, "RAGGLE_"+strings.ToUpper(key), env); err != nil {
			slog.Warn("binding environment variable", "key", key, "error", err)
		}
	}
}

// MarshalJSON implements json.Marshaler, masking sensitive fields.
// This prevents credentials from leaking into logs or diagnostics output.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(c)
	if masked.NucliaWriterKey != "" {
		masked.NucliaWriterKey = "***"
	}
	if masked.NucliaReaderKey != "" {
		masked.NucliaReaderKey = "***"
	}
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	data, err := json.Marshal(masked)
	if err != nil {
		return nil, fmt.Errorf("marshaling masked config: %w", err)
	}
	return data, nil
}
