// Package llm is the client for the OpenAI-compatible chat completions API
// that performs the actual transcription.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
	defaultTimeout   = 2 * time.Minute
)

// ClientConfig holds the settings for constructing a Client.
type ClientConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Retry     RetryPolicy
}

// Client handles communication with the chat completions API. Construct it
// explicitly and pass it to whoever needs it; there is no package-level client.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	retry      RetryPolicy
	httpClient *http.Client
	logger     *observability.Logger
}

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the API request structure
type Request struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatMessage represents the assistant message in a completion choice
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewClient creates a new API client. Zero-valued config fields fall back
// to the defaults above.
func NewClient(cfg ClientConfig, logger *observability.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		retry:      cfg.Retry,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.WithComponent("llm"),
	}
}

// Model returns the model name requests are sent for.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the API endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ExtractText sends the fixed transcription instruction together with the
// encoded image and returns the model's answer with surrounding whitespace
// trimmed. An empty answer is an error, never an empty success.
func (c *Client) ExtractText(ctx context.Context, img *domain.EncodedImage) (string, error) {
	body, err := json.Marshal(c.buildRequest(img))
	if err != nil {
		return "", domain.APIError("Failed to marshal request", err)
	}

	url := c.baseURL + "/chat/completions"
	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		// Clone the request body for each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/ahmadbhutta823/text-extract-from-images")
		req.Header.Set("X-Title", "Autoclave Text Extractor")

		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.APIError("Failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))), nil)
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.APIError("Failed to decode response", err)
	}

	if len(parsed.Choices) == 0 {
		return "", domain.APIError("empty response from model", nil)
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", domain.APIError("empty response from model", nil)
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("chars", len(text)).
		Msg("Received extraction")

	return text, nil
}

// Probe verifies the API is reachable with the configured credentials by
// listing available models.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return domain.APIError("Failed to build probe request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.APIError("Failed to connect to "+c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))), nil)
	}

	return nil
}

// buildRequest constructs the chat completions request for one image
func (c *Client) buildRequest(img *domain.EncodedImage) *Request {
	msg := Message{
		Role: "user",
		Content: []ContentPart{
			{
				Type: "text",
				Text: extractionInstruction,
			},
			{
				Type: "image_url",
				ImageURL: &ImageURL{
					URL: img.DataURI(),
				},
			},
		},
	}

	return &Request{
		Model:     c.model,
		Messages:  []Message{msg},
		MaxTokens: c.maxTokens,
	}
}
