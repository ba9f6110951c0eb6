// Package llm provides a uniform interface over the supported LLM backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Name identifies an LLM provider
type Name string

const (
	OpenAI    Name = "openai"
	Anthropic Name = "anthropic"
	Google    Name = "google"
	Ollama    Name = "ollama"
)

// AllNames lists every supported provider in display order
var AllNames = []Name{OpenAI, Anthropic, Google, Ollama}

func (n Name) String() string {
	return string(n)
}

// ParseName parses a provider name
func ParseName(s string) (Name, error) {
	for _, n := range AllNames {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, s)
}

var (
	// ErrProviderNotConfigured is returned before any network I/O when the provider credential is missing
	ErrProviderNotConfigured = errors.New("llm provider is not configured")
	ErrUnknownProvider       = errors.New("unknown llm provider")
	ErrEmptyResponse         = errors.New("llm returned an empty response")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of chat history
type Message struct {
	Role    Role
	Content string
}

type Request struct {
	Prompt        string
	Messages      []Message // prior turns, sent before Prompt
	SystemPrompt  string
	Model         string // provider default when empty
	MaxTokens     int
	Temperature   *float64
	StopSequences []string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Response struct {
	Content      string
	Model        string
	Usage        Usage
	FinishReason string
	Duration     time.Duration
}

// Provider is implemented by every LLM backend
type Provider interface {
	Name() Name
	// IsConfigured reports whether the credential is present. It never performs I/O.
	IsConfigured() bool
	DefaultModel() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// ProviderConfig holds what a backend needs to talk to its API
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string // overrides the built-in default model
}

const defaultMaxTokens = 4096

func modelOrDefault(requested, configured, builtin string) string {
	if requested != "" {
		return requested
	}
	if configured != "" {
		return configured
	}
	return builtin
}

func maxTokensOrDefault(n int) int {
	if n > 0 {
		return n
	}
	return defaultMaxTokens
}

// estimateTokens approximates a token count at about four characters per token
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
