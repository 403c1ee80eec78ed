package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const backendSDK = "sdk"

// SDKClient reaches the same service through the official Go SDK.
type SDKClient struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewSDKClient creates an SDK client authenticated with apiKey. Extra client options are
// applied after the key.
func NewSDKClient(ctx context.Context, model, apiKey string, logger *zap.Logger, opts ...option.ClientOption) (*SDKClient, error) {
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, &ServiceError{Backend: backendSDK, Err: fmt.Errorf("create client: %w", err)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SDKClient{client: cl, modelName: model, logger: logger}, nil
}

// Generate returns the text of the first part of the first candidate.
func (c *SDKClient) Generate(ctx context.Context, prompt string) (string, error) {
	m := c.client.GenerativeModel(c.modelName)
	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		c.logger.Info("generation blocked", zap.String("backend", backendSDK), zap.String("model", c.modelName), zap.Error(err))
		return "", nil
	}
	if err != nil {
		c.logger.Warn("generation failed", zap.String("backend", backendSDK), zap.String("model", c.modelName), zap.Error(err))
		return "", &ServiceError{Backend: backendSDK, Err: err}
	}
	c.logger.Debug("generation done",
		zap.String("backend", backendSDK),
		zap.String("model", c.modelName),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Int("candidates", len(resp.Candidates)),
		zap.Duration("took", time.Since(start)),
	)
	return candidateText(resp), nil
}

// candidateText returns the first part of the first candidate when it is text, otherwise "".
// A blocked prompt or candidate arrives as a BlockedError and is treated as no candidates.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	first := resp.Candidates[0]
	if first == nil || first.Content == nil || len(first.Content.Parts) == 0 {
		return ""
	}
	if t, ok := first.Content.Parts[0].(genai.Text); ok {
		return string(t)
	}
	return ""
}

// Close releases the SDK client.
func (c *SDKClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

var (
	_ Generator = (*SDKClient)(nil)
	_ Generator = (*RESTClient)(nil)
)
