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

const defaultOllamaModel = "llama3.1"

// OllamaProvider talks to a local or remote Ollama server via /api/chat
type OllamaProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

// NewOllamaProvider builds an Ollama provider. BaseURL doubles as the credential.
func NewOllamaProvider(cfg ProviderConfig, httpClient *http.Client) *OllamaProvider {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return &OllamaProvider{cfg: cfg, httpClient: httpClient}
}

var _ Provider = (*OllamaProvider)(nil)

func (p *OllamaProvider) Name() Name { return Ollama }

func (p *OllamaProvider) IsConfigured() bool {
	return p.cfg.BaseURL != ""
}

func (p *OllamaProvider) DefaultModel() string {
	return modelOrDefault("", p.cfg.Model, defaultOllamaModel)
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options"`
}

type ollamaChatResponse struct {
	Model      string            `json:"model"`
	Message    ollamaChatMessage `json:"message"`
	DoneReason string            `json:"done_reason"`
}

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, Ollama)
	}

	messages := make([]ollamaChatMessage, 0, len(req.Messages)+2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, ollamaChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, ollamaChatMessage{Role: string(RoleUser), Content: req.Prompt})

	body, err := json.Marshal(ollamaChatRequest{
		Model:    modelOrDefault(req.Model, p.cfg.Model, defaultOllamaModel),
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
			Stop:        req.StopSequences,
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return nil, fmt.Errorf("ollama api error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("ollama api error: %s", resp.Status)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama decode response: %w", err)
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	// Ollama token counts are not reliable across models, so usage is estimated
	var promptText strings.Builder
	for _, m := range messages {
		promptText.WriteString(m.Content)
	}
	input := estimateTokens(promptText.String())
	output := estimateTokens(out.Message.Content)

	return &Response{
		Content:      out.Message.Content,
		Model:        out.Model,
		Usage:        Usage{InputTokens: input, OutputTokens: output, TotalTokens: input + output},
		FinishReason: out.DoneReason,
		Duration:     time.Since(start),
	}, nil
}
