package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/oar-cd/shipyard/config"
)

// RegistryConfig describes every provider the registry may build
type RegistryConfig struct {
	Providers       map[Name]ProviderConfig
	DefaultProvider Name
	MaxTokens       int
	HTTPClient      *http.Client // used by the REST backends, nil for the default client
}

// Registry builds providers lazily and keeps one instance per name
type Registry struct {
	cfg RegistryConfig

	mu        sync.Mutex
	providers map[Name]Provider
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Providers == nil {
		cfg.Providers = map[Name]ProviderConfig{}
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = OpenAI
	}
	return &Registry{cfg: cfg, providers: make(map[Name]Provider)}
}

// NewRegistryFromConfig maps application credentials onto provider configs
func NewRegistryFromConfig(c *config.Config) *Registry {
	defaultProvider, err := ParseName(c.DefaultLLMProvider)
	if err != nil {
		slog.Warn("Unknown default LLM provider, falling back to openai",
			"layer", "llm",
			"provider", c.DefaultLLMProvider)
		defaultProvider = OpenAI
	}
	return NewRegistry(RegistryConfig{
		Providers: map[Name]ProviderConfig{
			OpenAI:    {APIKey: c.OpenAIAPIKey, Model: c.LLMModel(string(OpenAI))},
			Anthropic: {APIKey: c.AnthropicAPIKey, Model: c.LLMModel(string(Anthropic))},
			Google:    {APIKey: c.GoogleAPIKey, Model: c.LLMModel(string(Google))},
			Ollama:    {BaseURL: c.OllamaBaseURL, Model: c.LLMModel(string(Ollama))},
		},
		DefaultProvider: defaultProvider,
		MaxTokens:       c.LLMMaxTokens,
	})
}

// Get returns the provider for name, building it on first use
func (r *Registry) Get(name Name) (Provider, error) {
	if _, err := ParseName(string(name)); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}

	pc := r.cfg.Providers[name]
	var p Provider
	switch name {
	case OpenAI:
		p = NewOpenAIProvider(pc)
	case Anthropic:
		p = NewAnthropicProvider(pc, r.cfg.HTTPClient)
	case Google:
		p = NewGoogleProvider(pc)
	case Ollama:
		p = NewOllamaProvider(pc, r.cfg.HTTPClient)
	}
	r.providers[name] = p
	return p, nil
}

// DefaultProvider returns the configured default provider name
func (r *Registry) DefaultProvider() Name {
	return r.cfg.DefaultProvider
}

// ConfiguredProviders lists providers whose credential is present, in display order
func (r *Registry) ConfiguredProviders() []Name {
	var names []Name
	for _, name := range AllNames {
		p, err := r.Get(name)
		if err != nil {
			continue
		}
		if p.IsConfigured() {
			names = append(names, name)
		}
	}
	return names
}

// Resolve picks the provider to use; an empty name selects the default
func (r *Registry) Resolve(name string) (Provider, error) {
	n := r.cfg.DefaultProvider
	if name != "" {
		parsed, err := ParseName(name)
		if err != nil {
			return nil, err
		}
		n = parsed
	}
	p, err := r.Get(n)
	if err != nil {
		return nil, err
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, n)
	}
	return p, nil
}

// Generate dispatches req to the named provider. A missing credential fails before any I/O.
func (r *Registry) Generate(ctx context.Context, name string, req Request) (*Response, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = r.cfg.MaxTokens
	}

	slog.Debug("Calling LLM provider",
		"layer", "llm",
		"operation", "generate",
		"provider", p.Name(),
		"model", modelOrDefault(req.Model, "", p.DefaultModel()))

	resp, err := p.Generate(ctx, req)
	if err != nil {
		slog.Error("LLM generation failed",
			"layer", "llm",
			"operation", "generate",
			"provider", p.Name(),
			"error", err)
		return nil, err
	}
	return resp, nil
}
