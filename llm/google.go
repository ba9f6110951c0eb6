package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const defaultGoogleModel = "gemini-2.5-flash"

// GoogleProvider talks to the Gemini API through the genai SDK
type GoogleProvider struct {
	cfg ProviderConfig

	mu     sync.Mutex
	client *genai.Client
}

func NewGoogleProvider(cfg ProviderConfig) *GoogleProvider {
	return &GoogleProvider{cfg: cfg}
}

var _ Provider = (*GoogleProvider)(nil)

func (p *GoogleProvider) Name() Name { return Google }

func (p *GoogleProvider) IsConfigured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

func (p *GoogleProvider) DefaultModel() string {
	return modelOrDefault("", p.cfg.Model, defaultGoogleModel)
}

func (p *GoogleProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("google client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *GoogleProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, Google)
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}})

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokensOrDefault(req.MaxTokens)),
		StopSequences:   req.StopSequences,
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		genConfig.Temperature = &t
	}

	model := modelOrDefault(req.Model, p.cfg.Model, defaultGoogleModel)

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("google api error: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("google: %w", ErrEmptyResponse)
	}

	out := &Response{
		Content:  text,
		Model:    model,
		Duration: time.Since(start),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}
