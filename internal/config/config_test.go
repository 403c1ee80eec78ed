package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvModel, "")
	t.Setenv(EnvBackend, "")
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 45s
generation:
  backend: sdk
  model: gemini-test
  api_key: from-file
  timeout: 10s
extraction:
  min_content_chars: 25
  ocr:
    enabled: false
    language: deu
context:
  max_document_chars: 4000
session:
  reject_concurrent: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 45*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Generation.Backend != BackendSDK || cfg.Generation.Model != "gemini-test" || cfg.Generation.APIKey != "from-file" {
		t.Errorf("unexpected generation config: %+v", cfg.Generation)
	}
	if cfg.Generation.Timeout != 10*time.Second {
		t.Errorf("generation timeout = %v", cfg.Generation.Timeout)
	}
	if cfg.Generation.Endpoint != DefaultEndpoint {
		t.Errorf("endpoint should default, got %s", cfg.Generation.Endpoint)
	}
	if cfg.Extraction.MinContentChars != 25 {
		t.Errorf("min_content_chars = %d", cfg.Extraction.MinContentChars)
	}
	if cfg.Extraction.OCR.EnabledOrDefault() {
		t.Error("ocr should be disabled")
	}
	if cfg.Extraction.OCR.Language != "deu" || cfg.Extraction.OCR.DPI != 200 {
		t.Errorf("unexpected ocr config: %+v", cfg.Extraction.OCR)
	}
	if cfg.Context.MaxDocumentChars != 4000 {
		t.Errorf("max_document_chars = %d", cfg.Context.MaxDocumentChars)
	}
	if !cfg.Session.RejectConcurrent {
		t.Error("reject_concurrent should be true")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
watch:
  directory: "./inbox"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(filepath.Dir(path), "inbox")
	if cfg.Watch.Directory != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directory, want)
	}
}

func TestLoad_envOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvModel, "gemini-env")
	t.Setenv(EnvBackend, "")
	cfg, err := Load(writeConfig(t, `
generation:
  backend: sdk
  model: gemini-file
  api_key: from-file
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.APIKey != "from-env" || cfg.Generation.Model != "gemini-env" {
		t.Errorf("env should override file: %+v", cfg.Generation)
	}
	if cfg.Generation.Backend != BackendSDK {
		t.Errorf("empty env var must not override backend, got %s", cfg.Generation.Backend)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Generation.Backend != BackendREST || cfg.Generation.Model != DefaultModel {
		t.Errorf("default generation: got %+v", cfg.Generation)
	}
	if cfg.Extraction.MinContentChars != 10 {
		t.Errorf("default min_content_chars: got %d", cfg.Extraction.MinContentChars)
	}
	if cfg.Context.MaxDocumentChars != 8000 {
		t.Errorf("default max_document_chars: got %d", cfg.Context.MaxDocumentChars)
	}
	if !cfg.Extraction.OCR.EnabledOrDefault() {
		t.Error("ocr should default to enabled")
	}
	if len(cfg.Watch.Extensions) != 3 || cfg.Watch.Extensions[0] != ".pdf" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Session.RejectConcurrent {
		t.Error("submissions should queue by default")
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "k")
	cfg := Default()
	if cfg.Generation.APIKey != "k" {
		t.Errorf("Default should apply env, got %q", cfg.Generation.APIKey)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Default should apply defaults, got port %d", cfg.Server.Port)
	}
}

func TestSave(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "saved.yaml")
	cfg := &Config{
		Server:     ServerConfig{Host: "localhost", Port: 9090, RequestTimeout: 30 * time.Second},
		Generation: GenerationConfig{Model: "gemini-saved"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Server.RequestTimeout != 30*time.Second {
		t.Errorf("loaded request_timeout: got %v", loaded.Server.RequestTimeout)
	}
	if loaded.Generation.Model != "gemini-saved" {
		t.Errorf("loaded model: got %s", loaded.Generation.Model)
	}
}
