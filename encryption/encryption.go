// Package encryption protects secrets stored in the database.
package encryption

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// tokenTTL is effectively unlimited, stored secrets must not expire
const tokenTTL = time.Hour * 24 * 365 * 100

// EncryptionService handles encryption/decryption of sensitive data
type EncryptionService struct {
	key *fernet.Key
}

// NewEncryptionService creates a new encryption service with the provided key
func NewEncryptionService(keyString string) (*EncryptionService, error) {
	if keyString == "" {
		return nil, fmt.Errorf("encryption key cannot be empty")
	}

	key, err := fernet.DecodeKey(keyString)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	return &EncryptionService{key: key}, nil
}

// GenerateKey returns a new random fernet key in its encoded form
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt encrypts plaintext and returns a base64-encoded token
func (e *EncryptionService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	token, err := fernet.EncryptAndSign([]byte(plaintext), e.key)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(token), nil
}

// Decrypt decrypts a base64-encoded token and returns plaintext
func (e *EncryptionService) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	tokenBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("invalid token format: %w", err)
	}

	plaintext := fernet.VerifyAndDecrypt(tokenBytes, tokenTTL, []*fernet.Key{e.key})
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt token: invalid or expired")
	}

	return string(plaintext), nil
}

// EncryptEnvVariables serializes and encrypts deployment environment variables.
// An empty map yields an empty token.
func (e *EncryptionService) EncryptEnvVariables(vars map[string]string) (string, error) {
	if len(vars) == 0 {
		return "", nil
	}

	data, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to serialize env variables: %w", err)
	}

	encrypted, err := e.Encrypt(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt env variables: %w", err)
	}
	return encrypted, nil
}

// DecryptEnvVariables reverses EncryptEnvVariables
func (e *EncryptionService) DecryptEnvVariables(token string) (map[string]string, error) {
	if token == "" {
		return nil, nil
	}

	data, err := e.Decrypt(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt env variables: %w", err)
	}

	var vars map[string]string
	if err := json.Unmarshal([]byte(data), &vars); err != nil {
		return nil, fmt.Errorf("failed to deserialize env variables: %w", err)
	}
	return vars, nil
}
