package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/yomu/internal/models"
)

// ErrNotAsked is returned by Client.Ask when the server had nothing to answer against.
var ErrNotAsked = errors.New("no document is loaded on the server")

// StatusConfig mirrors the config block of GET /api/v1/status.
type StatusConfig struct {
	GenerationBackend string   `json:"generation_backend"`
	GenerationModel   string   `json:"generation_model"`
	OCREnabled        bool     `json:"ocr_enabled"`
	OCRLanguage       string   `json:"ocr_language"`
	MinContentChars   int      `json:"min_content_chars"`
	MaxDocumentChars  int      `json:"max_document_chars"`
	MaxUploadBytes    int64    `json:"max_upload_bytes"`
	RejectConcurrent  bool     `json:"reject_concurrent"`
	SupportedFormats  []string `json:"supported_formats"`
	WatchDirectory    string   `json:"watch_directory,omitempty"`
}

// Status is the shape of GET /api/v1/status.
type Status struct {
	Busy           bool                 `json:"busy"`
	Turns          int                  `json:"turns"`
	Document       *models.DocumentInfo `json:"document"`
	WatchSubmitted int                  `json:"watch_submitted,omitempty"`
	Config         *StatusConfig        `json:"config,omitempty"`
}

// Client talks to a running yomu server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for serverURL. timeout bounds each request; generation can be slow.
func NewClient(serverURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ask posts a question. It returns ErrNotAsked when the server answered 204.
func (c *Client) Ask(ctx context.Context, query string) (*models.AnswerResponse, error) {
	body, err := json.Marshal(models.QuestionRequest{Query: query})
	if err != nil {
		return nil, err
	}
	var out models.AnswerResponse
	status, err := c.do(ctx, http.MethodPost, "/api/v1/questions", "application/json", bytes.NewReader(body), &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, ErrNotAsked
	}
	return &out, nil
}

// Upload submits the file at path. With summarize false the server skips the summary.
func (c *Client) Upload(ctx context.Context, path string, summarize bool) (*models.SubmitResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	endpoint := "/api/v1/documents"
	if !summarize {
		endpoint += "?summarize=false"
	}
	var out models.SubmitResponse
	if _, err := c.do(ctx, http.MethodPost, endpoint, mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the conversation of the active document.
func (c *Client) History(ctx context.Context) (*models.HistoryResponse, error) {
	var out models.HistoryResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/history", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the server status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/status", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends the request and decodes a 2xx JSON body into out. Error responses carry the server's
// diagnostic in the returned error.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
