// Package generation talks to the remote text-generation service.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/yomu/internal/config"
	"go.uber.org/zap"
)

// Generator sends one prompt and returns the first candidate's text. A well-formed response
// without any candidate text yields "" and a nil error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// ServiceError is a transport or malformed-response failure of the generation service.
type ServiceError struct {
	Backend string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s generation: %v", e.Backend, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// New returns the Generator selected by cfg.Backend ("rest" or "sdk").
func New(ctx context.Context, cfg *config.GenerationConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation: no API key configured (set generation.api_key or GEMINI_API_KEY)")
	}
	switch strings.ToLower(cfg.Backend) {
	case "", config.BackendREST:
		return NewRESTClient(cfg.Endpoint, cfg.Model, cfg.APIKey,
			WithTimeout(cfg.Timeout), WithLogger(logger)), nil
	case config.BackendSDK:
		return NewSDKClient(ctx, cfg.Model, cfg.APIKey, logger)
	default:
		return nil, fmt.Errorf("generation: unknown backend %q", cfg.Backend)
	}
}
