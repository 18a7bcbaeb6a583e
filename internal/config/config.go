// Package config resolves the process-wide, read-only settings of the server.
//
// Resolution order: built-in defaults, then an optional YAML file, then the
// environment. The result is never mutated after Load returns.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "http://localhost:9000"
	DefaultProjectKey = "default_project"
	DefaultUserAgent  = "sonarqube-mcp/1.0"
)

// Environment variable names.
const (
	EnvBaseURL    = "SONARQUBE_URL"
	EnvToken      = "SONARQUBE_TOKEN"
	EnvProjectKey = "PROJECT_KEY"
	EnvLogLevel   = "SONARQUBE_MCP_LOG_LEVEL"
	EnvLogFormat  = "SONARQUBE_MCP_LOG_FORMAT"
)

type Config struct {
	BaseURL           string `yaml:"sonarqube_url"`
	Token             string `yaml:"sonarqube_token"`
	DefaultProjectKey string `yaml:"project_key"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
	UserAgent         string `yaml:"user_agent"`
}

func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		DefaultProjectKey: DefaultProjectKey,
		LogLevel:          "info",
		LogFormat:         "text",
		UserAgent:         DefaultUserAgent,
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used. An empty token is accepted.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return cfg, nil
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

func (c *Config) applyEnv() {
	if v, ok := lookup(EnvBaseURL); ok {
		c.BaseURL = v
	}
	// An empty token is kept; surrounding whitespace is trimmed.
	if v, ok := os.LookupEnv(EnvToken); ok {
		c.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvProjectKey); ok {
		c.DefaultProjectKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.LogFormat = v
	}
}

// lookup treats an unset and an empty variable alike, so SONARQUBE_URL=""
// keeps the default rather than producing an unusable base URL.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	if c.Token != "" {
		c.Token = "****"
	}
	return c
}
