// Package config provides configuration loading and structs for the yomu server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Generation backends.
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Generation GenerationConfig `yaml:"generation"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Context    ContextConfig    `yaml:"context"`
	Session    SessionConfig    `yaml:"session"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// GenerationConfig selects and configures the text-generation backend.
type GenerationConfig struct {
	Backend  string        `yaml:"backend"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ExtractionConfig holds text extraction settings.
type ExtractionConfig struct {
	MinContentChars int       `yaml:"min_content_chars"`
	MaxUploadBytes  int64     `yaml:"max_upload_bytes"`
	OCR             OCRConfig `yaml:"ocr"`
}

// OCRConfig configures the recognition fallback for PDFs without a text layer.
type OCRConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Language string `yaml:"language"`
	DPI      int    `yaml:"dpi"`
}

// EnabledOrDefault reports whether OCR fallback is on; defaults to true when unset.
func (o *OCRConfig) EnabledOrDefault() bool {
	if o.Enabled != nil {
		return *o.Enabled
	}
	return true
}

// ContextConfig bounds the document slice sent with every prompt.
type ContextConfig struct {
	MaxDocumentChars int `yaml:"max_document_chars"`
}

// SessionConfig holds active-session settings.
type SessionConfig struct {
	RejectConcurrent bool `yaml:"reject_concurrent"`
}

// WatchConfig holds inbox watch settings. An empty Directory disables watching.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, applies environment
// overrides and defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	finish(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	finish(cfg, cwd)
	return cfg
}

func finish(cfg *Config, configDir string) {
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}
}

// Save writes the config to path. Used by `yomu init`.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
