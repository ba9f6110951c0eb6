package token

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/encryption"
)

func initApp(t *testing.T, jwtSecret string) {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	dataDir := t.TempDir()
	require.NoError(t, app.InitializeWithConfig(&config.Config{
		DataDir:            dataDir,
		DatabasePath:       filepath.Join(dataDir, "shipyard.db"),
		TmpDir:             filepath.Join(dataDir, "tmp"),
		DefaultLLMProvider: "openai",
		EncryptionKey:      key,
		JWTSecret:          jwtSecret,
	}))
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCmdToken()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(stdout.String()), err
}

func TestNewCmdToken_Operator(t *testing.T) {
	initApp(t, "0123456789abcdef0123456789abcdef")

	token, err := run(t)
	require.NoError(t, err)

	tokens, err := app.GetTokenService()
	require.NoError(t, err)
	principal, err := tokens.ParseToken(token)
	require.NoError(t, err)

	operator, err := app.GetOperator()
	require.NoError(t, err)
	assert.Equal(t, operator, principal)

	entries, err := app.GetAuditRecorder().List(domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditCategoryAuthentication, entries[0].Category)
	assert.Equal(t, "token_issued", entries[0].Details["event"])
}

func TestNewCmdToken_ForUser(t *testing.T) {
	initApp(t, "0123456789abcdef0123456789abcdef")
	user, err := app.GetUserRepository().Create(&domain.User{
		ID:    uuid.New(),
		Email: "dev@example.com",
		Role:  domain.RoleUser,
	})
	require.NoError(t, err)

	tokens, err := app.GetTokenService()
	require.NoError(t, err)

	for _, args := range [][]string{
		{"--email", "dev@example.com"},
		{"--user-id", user.ID.String(), "--ttl", "1h"},
	} {
		token, err := run(t, args...)
		require.NoError(t, err)

		principal, err := tokens.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, domain.Principal{ID: user.ID, Role: domain.RoleUser}, principal)
	}
}

func TestNewCmdToken_Errors(t *testing.T) {
	initApp(t, "0123456789abcdef0123456789abcdef")

	_, err := run(t, "--email", "missing@example.com")
	assert.EqualError(t, err, "user not found")

	_, err = run(t, "--user-id", "nope")
	assert.ErrorContains(t, err, "invalid user ID")

	_, err = run(t, "--ttl=-1h")
	assert.ErrorContains(t, err, "must be positive")

	_, err = run(t, "--email", "a@example.com", "--user-id", uuid.NewString())
	assert.Error(t, err)
}

func TestNewCmdToken_NoSecret(t *testing.T) {
	initApp(t, "")

	_, err := run(t)
	assert.ErrorIs(t, err, app.ErrTokensNotConfigured)
}
