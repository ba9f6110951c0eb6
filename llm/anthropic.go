package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicModel   = "claude-sonnet-4-20250514"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// AnthropicProvider talks to the Anthropic Messages API
type AnthropicProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewAnthropicProvider(cfg ProviderConfig, httpClient *http.Client) *AnthropicProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &AnthropicProvider{cfg: cfg, httpClient: httpClient}
}

var _ Provider = (*AnthropicProvider)(nil)

func (p *AnthropicProvider) Name() Name { return Anthropic }

func (p *AnthropicProvider) IsConfigured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

func (p *AnthropicProvider) DefaultModel() string {
	return modelOrDefault("", p.cfg.Model, defaultAnthropicModel)
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Temperature   *float64           `json:"temperature,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, Anthropic)
	}

	// The system prompt travels outside the message list
	messages := make([]anthropicMessage, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, anthropicMessage{Role: string(RoleUser), Content: req.Prompt})

	body, err := json.Marshal(anthropicRequest{
		Model:         modelOrDefault(req.Model, p.cfg.Model, defaultAnthropicModel),
		MaxTokens:     maxTokensOrDefault(req.MaxTokens),
		System:        req.SystemPrompt,
		Messages:      messages,
		Temperature:   req.Temperature,
		StopSequences: req.StopSequences,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp anthropicErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("anthropic api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("anthropic api error: %s", resp.Status)
	}

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("anthropic decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	return &Response{
		Content: text.String(),
		Model:   out.Model,
		Usage: Usage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
			TotalTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
		},
		FinishReason: out.StopReason,
		Duration:     time.Since(start),
	}, nil
}
