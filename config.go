// config.go loads the process configuration from environment variables.
//
// The config is built once at startup and passed explicitly to the client and
// tool handlers — no component reads the environment after this.
package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// defaultToken is the placeholder token some deployments ship with. Treated
// the same as no token at all when deciding whether to warn.
const defaultToken = "asdf"

// Config holds all environment-sourced settings. Immutable after LoadConfig.
type Config struct {
	// URL is the base URL of the TES service. Required.
	URL string `envconfig:"TES_URL"`

	// Token is the bearer token sent with every request. TES_AUTH_TOKEN is
	// accepted as a fallback for TES_TOKEN.
	Token    string `envconfig:"TES_TOKEN"`
	AltToken string `envconfig:"TES_AUTH_TOKEN"`

	RequestTimeout int     `envconfig:"TES_REQUEST_TIMEOUT" default:"60"` // seconds, per request
	MaxRetries     int     `envconfig:"TES_MAX_RETRIES" default:"3"`
	BackoffFactor  float64 `envconfig:"TES_BACKOFF_FACTOR" default:"1.0"`

	Host     string `envconfig:"MCP_HOST" default:"0.0.0.0"`
	Port     int    `envconfig:"MCP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// PollInterval is the base recommended delay between status checks, in
	// seconds. The wait tool scales it by task state and age.
	PollInterval int `envconfig:"TASK_POLL_INTERVAL" default:"5"`

	// PollMaxAttempts bounds how many checks a caller should make before
	// giving up. Advisory — surfaced in config dumps, never enforced here.
	PollMaxAttempts int `envconfig:"TASK_POLL_MAX_ATTEMPTS" default:"120"`
}

// LoadConfig reads the environment into a Config and resolves the token
// fallback. Parse failures (non-numeric values etc.) are returned as errors;
// semantic problems are reported by Validate.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.Token == "" {
		cfg.Token = cfg.AltToken
	}
	return cfg, nil
}

// Validate returns a list of human-readable configuration problems that must
// block startup. An empty list means the config is usable. A missing token is
// deliberately not in this list — it is advisory, see TokenMissing.
func (c Config) Validate() []string {
	var errs []string

	if c.URL == "" {
		errs = append(errs, "TES_URL environment variable is required")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "TES_REQUEST_TIMEOUT must be a positive integer")
	}
	if c.MaxRetries < 0 {
		errs = append(errs, "TES_MAX_RETRIES must be a non-negative integer")
	}
	if c.BackoffFactor <= 0 {
		errs = append(errs, "TES_BACKOFF_FACTOR must be a positive number")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "MCP_PORT must be a valid port number (1-65535)")
	}
	if c.PollInterval <= 0 {
		errs = append(errs, "TASK_POLL_INTERVAL must be a positive integer")
	}
	if c.PollMaxAttempts <= 0 {
		errs = append(errs, "TASK_POLL_MAX_ATTEMPTS must be a positive integer")
	}

	return errs
}

// TokenMissing reports whether no usable auth token is configured. The server
// still works against an open TES, so this only warrants a warning.
func (c Config) TokenMissing() bool {
	return c.Token == "" || c.Token == defaultToken
}

// Masked returns the config as loggable key/value pairs with the token hidden.
func (c Config) Masked() map[string]string {
	token := c.Token
	if token != "" && token != defaultToken {
		token = "***MASKED***"
	}
	set := func(v string) string {
		if v == "" {
			return "NOT_SET"
		}
		return v
	}
	return map[string]string{
		"TES_URL":                set(c.URL),
		"TES_TOKEN":              set(token),
		"TES_REQUEST_TIMEOUT":    fmt.Sprintf("%d", c.RequestTimeout),
		"TES_MAX_RETRIES":        fmt.Sprintf("%d", c.MaxRetries),
		"TES_BACKOFF_FACTOR":     fmt.Sprintf("%g", c.BackoffFactor),
		"MCP_HOST":               c.Host,
		"MCP_PORT":               fmt.Sprintf("%d", c.Port),
		"LOG_LEVEL":              c.LogLevel,
		"TASK_POLL_INTERVAL":     fmt.Sprintf("%d", c.PollInterval),
		"TASK_POLL_MAX_ATTEMPTS": fmt.Sprintf("%d", c.PollMaxAttempts),
	}
}
