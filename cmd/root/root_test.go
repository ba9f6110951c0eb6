package root

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/encryption"
)

func TestNewCmdRoot(t *testing.T) {
	cmd := NewCmdRoot("/test/data/dir")

	assert.Equal(t, "shipyard", cmd.Use)
	assert.Equal(t, "Generate web apps with LLMs and ship them to the web", cmd.Short)
	assert.Contains(t, cmd.Long, "pushes it to GitHub")
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.PersistentPreRunE)
	assert.True(t, cmd.Runnable())

	subcommandNames := make([]string, 0, len(cmd.Commands()))
	for _, subcmd := range cmd.Commands() {
		subcommandNames = append(subcommandNames, subcmd.Name())
	}
	for _, expected := range []string{"project", "server", "providers", "token", "user", "version"} {
		assert.Contains(t, subcommandNames, expected, "Expected subcommand %s not found", expected)
	}
}

func TestNewCmdRootFlags(t *testing.T) {
	defaultDataDir := "/test/data/dir"
	cmd := NewCmdRoot(defaultDataDir)

	dataDirFlag := cmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, dataDirFlag)
	assert.Equal(t, "d", dataDirFlag.Shorthand)
	assert.Equal(t, defaultDataDir, dataDirFlag.DefValue)

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Equal(t, "l", logLevelFlag.Shorthand)

	noColorFlag := cmd.PersistentFlags().Lookup("no-color")
	require.NotNil(t, noColorFlag)
	assert.Equal(t, "c", noColorFlag.Shorthand)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRootInitializesApplication(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	t.Setenv("SHIPYARD_ENCRYPTION_KEY", key)
	dataDir := t.TempDir()

	cmd := NewCmdRoot("/unused")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--data-dir", dataDir, "project", "list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "No projects found.")
	assert.FileExists(t, filepath.Join(dataDir, "shipyard.db"))
}

func TestRootFailsWithoutEncryptionKey(t *testing.T) {
	t.Setenv("SHIPYARD_ENCRYPTION_KEY", "")

	cmd := NewCmdRoot(t.TempDir())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--data-dir", t.TempDir(), "project", "list"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "encryption key is required")
}

func TestVersionSkipsInitialization(t *testing.T) {
	t.Setenv("SHIPYARD_ENCRYPTION_KEY", "")

	cmd := NewCmdRoot(t.TempDir())
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev\n", stdout.String())
}
