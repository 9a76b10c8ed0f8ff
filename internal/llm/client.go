// Package llm is the client for the hosted chat-completion provider. The
// provider is treated as an opaque collaborator: one Generate capability,
// retried on transport failures, with JSON dug out of whatever text comes
// back.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/config"
	"github.com/lexical-app/lexical/internal/domain"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	requestTimeout     = 30 * time.Second
)

// Options tune a single generation call. Zero values fall back to the
// provider defaults above.
type Options struct {
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	System      string  `json:"-"`
}

// Result is a successful generation.
type Result struct {
	Content string
	Usage   domain.Usage
}

// Generator is the capability the rest of the service programs against.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (*Result, error)
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Client from the loaded configuration.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage domain.Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate sends one prompt and returns the raw text completion.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (*Result, error) {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}

	var messages []apiMessage
	if opts.System != "" {
		messages = append(messages, apiMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, apiMessage{Role: "user", Content: prompt})

	reqBody := apiRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://lexical-app.com")
	req.Header.Set("X-Title", "LexiCal - Law Syllabus to Calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var parsed apiResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			apiErr.Code = parsed.Error.Code
			apiErr.Message = parsed.Error.Message
		}
		c.logger.Warn("provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code))
		return nil, apiErr
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: apiResp.Error.Code, Message: apiResp.Error.Message}
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	return &Result{
		Content: apiResp.Choices[0].Message.Content,
		Usage:   apiResp.Usage,
	}, nil
}
