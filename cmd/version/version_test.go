package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/app"
)

func TestNewCmdVersion(t *testing.T) {
	cmd := NewCmdVersion()

	// Test command configuration
	assert.Equal(t, "version", cmd.Use)
	assert.Equal(t, "Show version information", cmd.Short)
	assert.Contains(t, cmd.Long, "Display version information for Shipyard")
	assert.NotNil(t, cmd.RunE)

	// Test command has no flags
	assert.Empty(t, cmd.Flags().FlagUsages())
	assert.Empty(t, cmd.Commands())
	assert.True(t, cmd.Runnable())
}

func TestVersionVariable(t *testing.T) {
	assert.NotEmpty(t, app.Version)
	assert.Equal(t, "dev", app.Version) // Default build-time value
}

func TestRunVersion(t *testing.T) {
	cmd := NewCmdVersion()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev\n", stdout.String())
}
