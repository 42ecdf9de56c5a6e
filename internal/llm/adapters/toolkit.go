// Package adapters provides Provider implementations for the generation services.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/azyu/ploomer/internal/llm"
)

const (
	// DefaultToolkitURL is the hosted completion service the app talks to by default.
	DefaultToolkitURL = "https://toolkit.rork.com"

	defaultTimeout = 60 * time.Second

	toolkitTextPath  = "/text/llm/"
	toolkitImagePath = "/images/generate/"
)

// ToolkitAdapter talks to the toolkit completion service: one POST per
// completion, no streaming, no retries.
type ToolkitAdapter struct {
	client  *http.Client
	baseURL string
	token   string
}

// ToolkitOption configures a ToolkitAdapter.
type ToolkitOption func(*ToolkitAdapter)

// WithTimeout sets a custom timeout for requests.
func WithTimeout(timeout time.Duration) ToolkitOption {
	return func(a *ToolkitAdapter) {
		a.client.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ToolkitOption {
	return func(a *ToolkitAdapter) {
		a.client = client
	}
}

// WithBearerToken sends token in the Authorization header.
func WithBearerToken(token string) ToolkitOption {
	return func(a *ToolkitAdapter) {
		a.token = token
	}
}

// NewToolkitAdapter creates an adapter for the service at baseURL. An empty
// baseURL selects DefaultToolkitURL.
func NewToolkitAdapter(baseURL string, opts ...ToolkitOption) *ToolkitAdapter {
	if baseURL == "" {
		baseURL = DefaultToolkitURL
	}

	adapter := &ToolkitAdapter{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

type toolkitMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolkitTextRequest struct {
	Messages []toolkitMessage `json:"messages"`
}

type toolkitTextResponse struct {
	Completion string `json:"completion"`
}

type toolkitImageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

type toolkitImageResponse struct {
	Image struct {
		Base64Data string `json:"base64Data"`
		MimeType   string `json:"mimeType"`
	} `json:"image"`
	Size string `json:"size"`
}

// Chat posts the conversation and returns the completion as an assistant message.
func (a *ToolkitAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body := toolkitTextRequest{Messages: make([]toolkitMessage, len(req.Messages))}
	for i, msg := range req.Messages {
		body.Messages[i] = toolkitMessage{Role: msg.Role, Content: msg.Content}
	}

	var resp toolkitTextResponse
	if err := a.post(ctx, toolkitTextPath, body, &resp); err != nil {
		return nil, err
	}

	return &llm.ChatResponse{
		Message: llm.NewAssistantMessage(resp.Completion),
		Model:   "toolkit",
	}, nil
}

// GenerateImage asks the image endpoint for a picture of prompt.
func (a *ToolkitAdapter) GenerateImage(ctx context.Context, prompt, size string) (*llm.Image, error) {
	if size == "" {
		size = llm.DefaultImageSize
	}

	var resp toolkitImageResponse
	if err := a.post(ctx, toolkitImagePath, toolkitImageRequest{Prompt: prompt, Size: size}, &resp); err != nil {
		return nil, err
	}
	if resp.Image.Base64Data == "" {
		return nil, fmt.Errorf("%w: no image data in response", llm.ErrAPIError)
	}

	return &llm.Image{
		Base64Data: resp.Image.Base64Data,
		MimeType:   resp.Image.MimeType,
		Size:       resp.Size,
	}, nil
}

func (a *ToolkitAdapter) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if a.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("request timed out: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("request canceled: %w", err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// handleErrorResponse maps an HTTP failure to the llm error taxonomy.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.ErrInvalidAPIKey
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", llm.ErrModelNotFound, resp.Request.URL.Path)
	case http.StatusTooManyRequests:
		return llm.ErrRateLimited
	case http.StatusRequestEntityTooLarge:
		return llm.ErrContextTooLong
	default:
		return fmt.Errorf("%w: HTTP %d - %s", llm.ErrAPIError, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// Capabilities returns what little is known about the hosted model.
func (a *ToolkitAdapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{
		MaxContextTokens: 16000,
		MaxOutputTokens:  2048,
		TokenizerType:    "cl100k_base",
		Models:           []string{"toolkit"},
	}
}

// Close releases idle connections.
func (a *ToolkitAdapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// BaseURL returns the service root.
func (a *ToolkitAdapter) BaseURL() string {
	return a.baseURL
}

var (
	_ llm.Provider       = (*ToolkitAdapter)(nil)
	_ llm.ImageGenerator = (*ToolkitAdapter)(nil)
)
