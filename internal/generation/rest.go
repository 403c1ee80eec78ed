package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const backendREST = "rest"

// maxErrorBody caps how much of a failed response body ends up in an error message.
const maxErrorBody = 512

// RESTClient calls the generateContent endpoint with a plain JSON body.
type RESTClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// RESTOption configures a RESTClient.
type RESTOption func(*RESTClient)

// WithTimeout bounds each request. Zero leaves the http.Client without a timeout.
func WithTimeout(d time.Duration) RESTOption {
	return func(c *RESTClient) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) RESTOption {
	return func(c *RESTClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a logger for request diagnostics.
func WithLogger(l *zap.Logger) RESTOption {
	return func(c *RESTClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRESTClient returns a client posting to <endpoint>/models/<model>:generateContent.
func NewRESTClient(endpoint, model, apiKey string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		url:        strings.TrimRight(endpoint, "/") + "/models/" + model + ":generateContent",
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type restRequest struct {
	Contents []restContent `json:"contents"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

type restPart struct {
	Text string `json:"text"`
}

type restResponse struct {
	Candidates []struct {
		Content *restContent `json:"content"`
	} `json:"candidates"`
}

// firstText follows candidates[0].content.parts[0].text; any missing step yields "".
func (r *restResponse) firstText() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

// Generate posts prompt and returns the first candidate's text.
func (c *RESTClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(restRequest{Contents: []restContent{{Parts: []restPart{{Text: prompt}}}}})
	if err != nil {
		return "", c.fail(fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", c.fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.fail(fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(data)))
	}

	var out restResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", c.fail(fmt.Errorf("decode response: %w", err))
	}
	text := out.firstText()
	c.logger.Debug("generation done",
		zap.String("backend", backendREST),
		zap.String("model", c.model),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Int("candidates", len(out.Candidates)),
		zap.Duration("took", time.Since(start)),
	)
	return text, nil
}

// Close is a no-op; the http.Client holds no per-client resources.
func (c *RESTClient) Close() error {
	return nil
}

func (c *RESTClient) fail(err error) error {
	c.logger.Warn("generation failed", zap.String("backend", backendREST), zap.String("model", c.model), zap.Error(err))
	return &ServiceError{Backend: backendREST, Err: err}
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
