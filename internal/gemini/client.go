// Package gemini implements the model client for the Google Gemini
// generateContent API. The client issues exactly one request per call and
// maps transport outcomes to the typed error taxonomy; retry policy, if
// any, belongs to the caller.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"replyassist/internal/types"
)

// defaultSafetySettings relax the conversational categories enough that
// ordinary chat banter is not refused outright; genuinely unsafe prompts
// still come back with a block reason the parser surfaces.
var defaultSafetySettings = []SafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Client calls the Gemini API over plain HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Gemini client. A nil logger disables logging.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if strings.TrimSpace(config.Model) == "" {
		config.Model = DefaultConfig().Model
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Generate sends prompt to the model and returns the raw response
// payload for the parser to interpret. The client inspects nothing
// beyond the HTTP status.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (*Response, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, types.Validationf("API key not configured")
	}

	reqBody := Request{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: GenerationConfig{
			Temperature:     c.config.Temperature,
			MaxOutputTokens: c.config.MaxOutputTokens,
			TopP:            c.config.TopP,
			TopK:            c.config.TopK,
		},
		SafetySettings: defaultSafetySettings,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.config.BaseURL, c.config.Model, apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("calling generateContent",
		zap.String("model", c.config.Model),
		zap.Int("prompt_len", len(prompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.Error(err))
		return nil, &types.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := extractErrorMessage(body)
		c.logger.Warn("API returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		switch resp.StatusCode {
		case http.StatusBadRequest:
			return nil, &types.InvalidRequestError{Message: message}
		case http.StatusForbidden:
			return nil, &types.PermissionError{Message: message}
		case http.StatusTooManyRequests:
			return nil, &types.RateLimitError{Message: message}
		default:
			return nil, &types.APIError{StatusCode: resp.StatusCode, Message: message}
		}
	}

	var payload Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &types.APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unparseable response body: %v", err)}
	}

	c.logger.Debug("generateContent completed",
		zap.Int("candidates", len(payload.Candidates)),
		zap.Int("total_tokens", payload.UsageMetadata.TotalTokenCount))
	return &payload, nil
}

// extractErrorMessage pulls error.message out of a structured error body,
// falling back to the raw body text.
func extractErrorMessage(body []byte) string {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}
