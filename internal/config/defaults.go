package config

import "time"

const (
	DefaultEndpoint         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel            = "gemini-2.0-flash"
	DefaultMinContentChars  = 10
	DefaultMaxDocumentChars = 8000
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	// Generation dominates request latency; the timeout covers extraction plus one call.
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Generation.Backend == "" {
		cfg.Generation.Backend = BackendREST
	}
	if cfg.Generation.Endpoint == "" {
		cfg.Generation.Endpoint = DefaultEndpoint
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultModel
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 60 * time.Second
	}
	if cfg.Extraction.MinContentChars == 0 {
		cfg.Extraction.MinContentChars = DefaultMinContentChars
	}
	if cfg.Extraction.MaxUploadBytes == 0 {
		cfg.Extraction.MaxUploadBytes = 32 << 20
	}
	if cfg.Extraction.OCR.Language == "" {
		cfg.Extraction.OCR.Language = "eng"
	}
	if cfg.Extraction.OCR.DPI == 0 {
		cfg.Extraction.OCR.DPI = 200
	}
	if cfg.Context.MaxDocumentChars == 0 {
		cfg.Context.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".txt"}
	}
}
