package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider talks to the OpenAI chat completions API
type OpenAIProvider struct {
	cfg ProviderConfig

	once   sync.Once
	client *openai.Client
}

func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	return &OpenAIProvider{cfg: cfg}
}

var _ Provider = (*OpenAIProvider)(nil)

func (p *OpenAIProvider) Name() Name { return OpenAI }

func (p *OpenAIProvider) IsConfigured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

func (p *OpenAIProvider) DefaultModel() string {
	return modelOrDefault("", p.cfg.Model, defaultOpenAIModel)
}

func (p *OpenAIProvider) getClient() *openai.Client {
	p.once.Do(func() {
		clientConfig := openai.DefaultConfig(p.cfg.APIKey)
		if p.cfg.BaseURL != "" {
			clientConfig.BaseURL = strings.TrimRight(p.cfg.BaseURL, "/")
		}
		p.client = openai.NewClientWithConfig(clientConfig)
	})
	return p.client
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, OpenAI)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:     modelOrDefault(req.Model, p.cfg.Model, defaultOpenAIModel),
		Messages:  messages,
		MaxTokens: maxTokensOrDefault(req.MaxTokens),
		Stop:      req.StopSequences,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	start := time.Now()
	resp, err := p.getClient().CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		FinishReason: string(resp.Choices[0].FinishReason),
		Duration:     time.Since(start),
	}, nil
}
