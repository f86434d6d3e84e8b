package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tumbuhin/farmforecast/internal/models"
)

var (
	ErrNoAPIKey      = errors.New("AI API key not configured")
	ErrEmptyResponse = errors.New("empty AI response")
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type ClientConfig struct {
	APIKey  string
	URL     string
	Model   string
	Referer string
	Title   string
}

// Client calls an OpenAI-compatible chat completions endpoint (OpenRouter).
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg: cfg,
		// Callers bound each request with a context deadline.
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete sends one chat request and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []chatMessage) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", c.cfg.Referer)
	req.Header.Set("X-Title", c.cfg.Title)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.Warn("AI provider returned an error", "status", resp.StatusCode, "body", string(detail))
		return "", fmt.Errorf("openrouter API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return chat.Choices[0].Message.Content, nil
}

// GeneratePredictions summarizes the reports, asks the model for
// predictions and parses the reply.
func (c *Client) GeneratePredictions(ctx context.Context, reports []models.Report) ([]models.Prediction, error) {
	if len(reports) == 0 {
		return nil, nil
	}

	summary := Summarize(reports)
	content, err := c.Complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(summary)},
	})
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return ParsePredictions(content, summary)
}
