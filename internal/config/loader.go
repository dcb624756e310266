package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name searched for in the working directory
// when no explicit path is given.
const DefaultConfigFile = ".logincheck.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
// Callers decide whether that is fatal: an explicit --config path that does
// not exist is an error, a missing default file just means defaults + env.
var ErrConfigNotFound = errors.New("configuration file not found")

// Environment variable names recognized by ApplyEnv. The same names gate the
// end-to-end test suite, so one exported set keeps them from drifting.
const (
	EnvBaseURL  = "LOGINCHECK_BASE_URL"
	EnvEmail    = "LOGINCHECK_EMAIL"
	EnvPassword = "LOGINCHECK_PASSWORD"
	EnvHeadless = "LOGINCHECK_HEADLESS"
	EnvArtifact = "LOGINCHECK_ARTIFACT_DIR"
	EnvTimeout  = "LOGINCHECK_LOGIN_TIMEOUT"
)

// Load reads a YAML config file into a Config pre-populated with defaults,
// so the file only needs to state what differs from them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from the LOGINCHECK_* environment variables.
// Variables that are unset leave the config untouched, so precedence is
// defaults < file < environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvEmail); v != "" {
		c.Email = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvHeadless, v, err)
		}
		c.Headless = headless
	}
	if v := os.Getenv(EnvArtifact); v != "" {
		c.ArtifactDir = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvTimeout, v, err)
		}
		c.LoginTimeout = d
	}
	return nil
}
