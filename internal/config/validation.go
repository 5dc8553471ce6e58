package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// validSSLModes are the PostgreSQL SSL modes accepted by the pgx driver.
// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
var validSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate validates configuration values common to every command.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config (defensive programming)
	if c == nil {
		return ErrConfigNil
	}

	// 1. Nuclia endpoint validation
	if c.APIBase == "" {
		return fmt.Errorf("%w: api_base cannot be empty", ErrInvalidAPIBase)
	}
	if u, err := url.Parse(c.APIBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q must be an http(s) URL", ErrInvalidAPIBase, c.APIBase)
	}

	// 2. CLI backend validation
	if c.BackendURL != "" {
		if u, err := url.Parse(c.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: %q must be an http(s) URL", ErrInvalidBackendURL, c.BackendURL)
		}
	}

	// 3. PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: got %q, valid values: %s",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, strings.Join(validSSLModes, ", "))
	}

	return nil
}

// ValidateServe validates the additional requirements of serve mode.
// The backend cannot proxy anything without credentials and a knowledge box,
// so these are checked at startup rather than per request.
func (c *Config) ValidateServe() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.NucliaWriterKey == "" {
		return fmt.Errorf("%w: set NUCLIA_WRITER_API_KEY or nuclia_writer_key in config.yaml",
			ErrMissingWriterKey)
	}
	if c.NucliaReaderKey == "" {
		return fmt.Errorf("%w: set NUCLIA_READER_API_KEY or nuclia_reader_key in config.yaml",
			ErrMissingReaderKey)
	}
	if c.KnowledgeBox == "" {
		return fmt.Errorf("%w: set NUCLIA_KB_UID or knowledge_box in config.yaml",
			ErrMissingKnowledgeBox)
	}
	return nil
}
