// Package deepseek implements the LanguageModel port against an
// OpenAI-compatible chat completions endpoint.
package deepseek

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

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LanguageModel = (*Client)(nil)

const (
	defaultURL       = "https://api.deepseek.com/chat/completions"
	defaultModel     = "deepseek-chat"
	defaultMaxTokens = 2000
)

// Config configures a Client.
type Config struct {
	APIKey string
	URL    string // full chat completions URL
	Model  string

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends chat completion requests. Temperature is pinned to zero so
// tool selection stays repeatable.
type Client struct {
	apiKey string
	url    string
	model  string
	http   *http.Client
}

// NewClient creates a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		model:  cfg.Model,
		http:   httpClient,
	}
}

// Complete sends prompt as a single user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []chatMessage{{Role: "user", Content: prompt}}

	choice, err := c.send(ctx, chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return "", err
	}
	if choice.Content == "" {
		return "", errors.New("deepseek returned empty content")
	}
	return choice.Content, nil
}

// ChatWithTools sends the conversation behind the assistant system prompt.
// When tools are given the model is required to call one of them.
func (c *Client) ChatWithTools(ctx context.Context, messages []model.ChatMessage, tools []model.ToolDefinition) (*model.ChatCompletion, error) {
	full := make([]chatMessage, 0, len(messages)+1)
	full = append(full, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range messages {
		full = append(full, chatMessage{Role: m.Role, Content: m.Content})
	}

	req := chatRequest{
		Model:     c.model,
		Messages:  full,
		MaxTokens: defaultMaxTokens,
	}
	if len(tools) > 0 {
		req.Tools = make([]chatTool, 0, len(tools))
		for _, t := range tools {
			req.Tools = append(req.Tools, chatTool{
				Type: "function",
				Function: chatFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		req.ToolChoice = "required"
	}

	choice, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	completion := &model.ChatCompletion{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, model.ToolCall{
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return completion, nil
}

// send posts one request and returns the first choice's message.
func (c *Client) send(ctx context.Context, body chatRequest) (*responseMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepseek request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read deepseek response: %w", err)
	}

	slog.Debug("deepseek request",
		"messages", len(body.Messages),
		"tools", len(body.Tools),
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepseek error status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse deepseek response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("deepseek returned no choices")
	}
	return &parsed.Choices[0].Message, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message responseMessage `json:"message"`
	} `json:"choices"`
}

type responseMessage struct {
	Content   string `json:"content"`
	ToolCalls []struct {
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}
