package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvAPIKey  = "GEMINI_API_KEY"
	EnvModel   = "YOMU_GENERATION_MODEL"
	EnvBackend = "YOMU_GENERATION_BACKEND"
)

// LoadDotEnv loads a .env file from the working directory when present. Variables already set in
// the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides generation settings from the environment.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvAPIKey); ok && v != "" {
		cfg.Generation.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvModel); ok && v != "" {
		cfg.Generation.Model = v
	}
	if v, ok := os.LookupEnv(EnvBackend); ok && v != "" {
		cfg.Generation.Backend = v
	}
}
