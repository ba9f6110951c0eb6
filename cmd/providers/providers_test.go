package providers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/llm"
)

func TestNewCmdProviders(t *testing.T) {
	cfg := &config.Config{
		DefaultLLMProvider: "anthropic",
		AnthropicAPIKey:    "sk-ant-0123456789",
		VercelToken:        "vercel-secret-token",
		LLMModels:          map[string]string{"anthropic": "claude-custom"},
	}
	app.SetConfigForTesting(cfg)
	app.SetLLMRegistryForTesting(llm.NewRegistryFromConfig(cfg))

	cmd := NewCmdProviders()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	out := stdout.String()
	assert.Contains(t, out, "llm (default)")
	assert.Contains(t, out, "claude-custom")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "github-pages")
	assert.Contains(t, out, "(not set)")

	// Credentials never appear in clear text
	assert.NotContains(t, out, "sk-ant-0123456789")
	assert.NotContains(t, out, "vercel-secret-token")
	assert.Contains(t, out, "sk-***********789")
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
}
