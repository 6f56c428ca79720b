// Package remote provides the HTTP client for the AI generation backend.
// The backend is treated as an opaque RPC: one request, one response, no
// interpretation beyond success or failure and the returned text.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scribefox/creditgate/ports"
)

// DefaultTimeout bounds a single generation call. A hung remote must not
// leave the caller in a loading state forever; on timeout no debit occurs.
const DefaultTimeout = 60 * time.Second

// Generator invokes the generation backend over HTTP.
//
// API contract:
//
//	POST /v1/generate
//	Request:  {"prompt": "...", "service": "news_generator", "user_id": "...", "options": {...}}
//	Response: {"text": "...", "sources": [{"uri": "...", "title": "..."}]}
type Generator struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// GeneratorConfig configures the remote generator.
type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewGenerator creates a remote generator client.
func NewGenerator(cfg GeneratorConfig) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

type generateRequest struct {
	Prompt  string         `json:"prompt"`
	Service string         `json:"service"`
	UserID  string         `json:"user_id,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Generate invokes the backend. Context cancellation propagates to the
// underlying request.
func (g *Generator) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	payload, err := json.Marshal(generateRequest{
		Prompt:  req.Prompt,
		Service: string(req.Service),
		UserID:  req.UserID,
		Options: req.Options,
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("generation call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ports.GenerationResult{}, &GenerationError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var result ports.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ports.GenerationResult{}, fmt.Errorf("decode response: %w", err)
	}
	if result.Text == "" {
		return ports.GenerationResult{}, &GenerationError{
			StatusCode: resp.StatusCode,
			Message:    "empty generation payload",
		}
	}
	return result, nil
}

// GenerationError represents a failure reported by the backend.
type GenerationError struct {
	StatusCode int
	Message    string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation backend error %d: %s", e.StatusCode, e.Message)
}

// Ensure interface compliance.
var _ ports.Generator = (*Generator)(nil)
