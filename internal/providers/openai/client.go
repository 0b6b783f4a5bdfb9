// Package openai talks to an OpenAI-compatible chat-completions endpoint.
// It is the only place the generation backend is touched; callers see
// plain results or an error wrapping domain.ErrBackendFailure.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardpro/internal/domain"
)

const defaultTimeout = 90 * time.Second

// Options configures the client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client is a thin chat-completions client.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// Result carries generated text together with token accounting.
type Result struct {
	Text      string
	TokensIn  int
	TokensOut int
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// NewClient validates options and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Complete performs one chat completion. Any transport or model failure
// comes back wrapping domain.ErrBackendFailure.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (Result, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	payload := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return Result{}, fmt.Errorf("%w: encode request: %v", domain.ErrBackendFailure, err)
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", domain.ErrBackendFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: status %d", domain.ErrBackendFailure, resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", domain.ErrBackendFailure, err)
	}
	if len(decoded.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty choices", domain.ErrBackendFailure)
	}

	return Result{
		Text:      strings.TrimSpace(decoded.Choices[0].Message.Content),
		TokensIn:  decoded.Usage.PromptTokens,
		TokensOut: decoded.Usage.CompletionTokens,
	}, nil
}

// Questions asks for product-specific clarifying questions.
func (c *Client) Questions(ctx context.Context, marketplace, productName string) (string, error) {
	res, err := c.Complete(ctx, "", QuestionsPrompt(marketplace, productName), 0.6, 500)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Card generates a full listing card.
func (c *Client) Card(ctx context.Context, marketplace, productName, details string) (Result, error) {
	return c.Complete(ctx, SystemPrompt, CardPrompt(marketplace, productName, details), 0.7, 2000)
}

// Analyze reviews a competitor's listing and produces an improved version.
func (c *Client) Analyze(ctx context.Context, marketplace, competitorText string) (Result, error) {
	return c.Complete(ctx, SystemPrompt, AnalyzePrompt(marketplace, competitorText), 0.7, 2500)
}

// Rewrite re-renders an existing card in the given style.
func (c *Client) Rewrite(ctx context.Context, marketplace, originalText, style string) (Result, error) {
	return c.Complete(ctx, SystemPrompt, RewritePrompt(marketplace, originalText, style), 0.8, 2000)
}
