// Package config loads Shipyard configuration from defaults, a YAML file, .env files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oar-cd/shipyard/logging"
)

const (
	TmpDir       = "tmp"
	DatabaseFile = "shipyard.db"
	EnvFile      = ".env"
)

// LLMProviderNames lists the LLM provider identifiers accepted in configuration
var LLMProviderNames = []string{"openai", "anthropic", "google", "ollama"}

// EnvProvider abstracts environment variable access for testing
type EnvProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// DefaultEnvProvider implements EnvProvider using real OS functions
type DefaultEnvProvider struct{}

func (p *DefaultEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (p *DefaultEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// dotenvProvider serves values from .env files for keys missing in the wrapped provider
type dotenvProvider struct {
	EnvProvider
	values map[string]string
}

func (p *dotenvProvider) Getenv(key string) string {
	if v := p.EnvProvider.Getenv(key); v != "" {
		return v
	}
	return p.values[key]
}

// GetDefaultDataDir returns the default data directory following the XDG Base Directory specification
func GetDefaultDataDir() string {
	return getDefaultDataDirWithEnv(&DefaultEnvProvider{})
}

func getDefaultDataDirWithEnv(env EnvProvider) string {
	if xdgDataHome := env.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "shipyard")
	}

	homeDir, _ := env.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "shipyard")
}

// Config holds configuration for all services
type Config struct {
	// Core paths
	DataDir      string
	DatabasePath string
	TmpDir       string

	// Logging
	LogLevel     string
	ColorEnabled bool

	// HTTP server
	HTTPHost string
	HTTPPort int

	// Git
	GitTimeout time.Duration

	// Deploy target polling
	DeployPollInterval time.Duration
	DeployTimeout      time.Duration
	VercelTeamID       string

	// LLM
	DefaultLLMProvider string
	LLMModels          map[string]string // per-provider model overrides
	LLMMaxTokens       int

	// Credentials
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string
	OllamaBaseURL   string
	GitHubToken     string
	VercelToken     string
	NetlifyToken    string

	// Secrets
	EncryptionKey string
	JWTSecret     string

	// Rate limiting, disabled when RedisAddr is empty
	RedisAddr         string
	RedisPassword     string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Stale run watcher
	WatcherPollInterval time.Duration
	StaleAfter          time.Duration

	env EnvProvider
}

// yamlConfig mirrors the layout of the YAML configuration file
type yamlConfig struct {
	DataDir  string `yaml:"data_dir"`
	Database string `yaml:"database_path"`
	LogLevel string `yaml:"log_level"`
	Color    *bool  `yaml:"color_enabled"`
	HTTP     struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"http"`
	Git struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"git"`
	Deploy struct {
		PollInterval string `yaml:"poll_interval"`
		Timeout      string `yaml:"timeout"`
		VercelTeamID string `yaml:"vercel_team_id"`
	} `yaml:"deploy"`
	LLM struct {
		DefaultProvider string            `yaml:"default_provider"`
		Models          map[string]string `yaml:"models"`
		MaxTokens       int               `yaml:"max_tokens"`
		OllamaBaseURL   string            `yaml:"ollama_base_url"`
	} `yaml:"llm"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
	Watcher struct {
		PollInterval string `yaml:"poll_interval"`
		StaleAfter   string `yaml:"stale_after"`
	} `yaml:"watcher"`
	EncryptionKey string `yaml:"encryption_key"`
	JWTSecret     string `yaml:"jwt_secret"`
}

// NewConfig creates a configuration from an optional YAML file and an optional data directory override
func NewConfig(configPath, cliDataDir string) (*Config, error) {
	return NewConfigWithEnv(&DefaultEnvProvider{}, configPath, cliDataDir)
}

// NewConfigWithEnv creates a configuration with a custom environment provider (for testing)
func NewConfigWithEnv(env EnvProvider, configPath, cliDataDir string) (*Config, error) {
	c := &Config{env: env}

	c.setDefaults()

	if configPath != "" {
		if err := c.loadFromYamlFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// The data directory may come from the environment, which decides where .env lives
	if v := env.Getenv("SHIPYARD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if cliDataDir != "" {
		c.DataDir = cliDataDir
	}

	c.env = &dotenvProvider{EnvProvider: env, values: readDotenv(c.DataDir)}

	if err := c.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cliDataDir != "" {
		c.DataDir = cliDataDir
	}

	c.derivePaths()

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// readDotenv reads .env from the working directory and then the data directory.
// Missing files are ignored, earlier files take precedence.
func readDotenv(dataDir string) map[string]string {
	values := map[string]string{}
	for _, path := range []string{EnvFile, filepath.Join(dataDir, EnvFile)} {
		vars, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		for k, v := range vars {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}
	return values
}

// setDefaults sets sensible default values
func (c *Config) setDefaults() {
	c.DataDir = getDefaultDataDirWithEnv(c.env)
	c.LogLevel = "info"
	c.ColorEnabled = true
	c.HTTPHost = "127.0.0.1"
	c.HTTPPort = 8080
	c.GitTimeout = 2 * time.Minute
	c.DeployPollInterval = 5 * time.Second
	c.DeployTimeout = 5 * time.Minute
	c.DefaultLLMProvider = "openai"
	c.LLMModels = map[string]string{}
	c.LLMMaxTokens = 8192
	c.RateLimitRequests = 10
	c.RateLimitWindow = time.Minute
	c.WatcherPollInterval = time.Minute
	c.StaleAfter = 30 * time.Minute
	// No default encryption key or JWT secret, they must be provided explicitly
}

func (c *Config) loadFromYamlFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	setString(&c.DataDir, y.DataDir)
	setString(&c.DatabasePath, y.Database)
	setString(&c.LogLevel, y.LogLevel)
	if y.Color != nil {
		c.ColorEnabled = *y.Color
	}
	setString(&c.HTTPHost, y.HTTP.Host)
	if y.HTTP.Port != 0 {
		c.HTTPPort = y.HTTP.Port
	}
	setString(&c.VercelTeamID, y.Deploy.VercelTeamID)
	setString(&c.DefaultLLMProvider, y.LLM.DefaultProvider)
	for provider, model := range y.LLM.Models {
		c.LLMModels[provider] = model
	}
	if y.LLM.MaxTokens != 0 {
		c.LLMMaxTokens = y.LLM.MaxTokens
	}
	setString(&c.OllamaBaseURL, y.LLM.OllamaBaseURL)
	setString(&c.RedisAddr, y.Redis.Addr)
	setString(&c.RedisPassword, y.Redis.Password)
	if y.RateLimit.Requests != 0 {
		c.RateLimitRequests = y.RateLimit.Requests
	}
	setString(&c.EncryptionKey, y.EncryptionKey)
	setString(&c.JWTSecret, y.JWTSecret)

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"git.timeout", y.Git.Timeout, &c.GitTimeout},
		{"deploy.poll_interval", y.Deploy.PollInterval, &c.DeployPollInterval},
		{"deploy.timeout", y.Deploy.Timeout, &c.DeployTimeout},
		{"rate_limit.window", y.RateLimit.Window, &c.RateLimitWindow},
		{"watcher.poll_interval", y.Watcher.PollInterval, &c.WatcherPollInterval},
		{"watcher.stale_after", y.Watcher.StaleAfter, &c.StaleAfter},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	stringVars := map[string]*string{
		"SHIPYARD_DATA_DIR":             &c.DataDir,
		"SHIPYARD_DATABASE_PATH":        &c.DatabasePath,
		"SHIPYARD_LOG_LEVEL":            &c.LogLevel,
		"SHIPYARD_HTTP_HOST":            &c.HTTPHost,
		"SHIPYARD_DEFAULT_LLM_PROVIDER": &c.DefaultLLMProvider,
		"SHIPYARD_ENCRYPTION_KEY":       &c.EncryptionKey,
		"SHIPYARD_JWT_SECRET":           &c.JWTSecret,
		"SHIPYARD_REDIS_ADDR":           &c.RedisAddr,
		"SHIPYARD_REDIS_PASSWORD":       &c.RedisPassword,
		"OPENAI_API_KEY":                &c.OpenAIAPIKey,
		"ANTHROPIC_API_KEY":             &c.AnthropicAPIKey,
		"GOOGLE_API_KEY":                &c.GoogleAPIKey,
		"OLLAMA_BASE_URL":               &c.OllamaBaseURL,
		"GITHUB_TOKEN":                  &c.GitHubToken,
		"VERCEL_TOKEN":                  &c.VercelToken,
		"VERCEL_TEAM_ID":                &c.VercelTeamID,
		"NETLIFY_TOKEN":                 &c.NetlifyToken,
	}
	for key, dst := range stringVars {
		setString(dst, c.env.Getenv(key))
	}

	if v := c.env.Getenv("SHIPYARD_COLOR_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.ColorEnabled = enabled
		}
	}

	ints := map[string]*int{
		"SHIPYARD_HTTP_PORT":           &c.HTTPPort,
		"SHIPYARD_LLM_MAX_TOKENS":      &c.LLMMaxTokens,
		"SHIPYARD_RATE_LIMIT_REQUESTS": &c.RateLimitRequests,
	}
	for key, dst := range ints {
		if v := c.env.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"SHIPYARD_GIT_TIMEOUT":           &c.GitTimeout,
		"SHIPYARD_DEPLOY_POLL_INTERVAL":  &c.DeployPollInterval,
		"SHIPYARD_DEPLOY_TIMEOUT":        &c.DeployTimeout,
		"SHIPYARD_RATE_LIMIT_WINDOW":     &c.RateLimitWindow,
		"SHIPYARD_WATCHER_POLL_INTERVAL": &c.WatcherPollInterval,
		"SHIPYARD_STALE_AFTER":           &c.StaleAfter,
	}
	for key, dst := range durations {
		if err := setDuration(dst, c.env.Getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	for _, provider := range LLMProviderNames {
		key := "SHIPYARD_" + strings.ToUpper(provider) + "_MODEL"
		if v := c.env.Getenv(key); v != "" {
			c.LLMModels[provider] = v
		}
	}

	return nil
}

// derivePaths calculates dependent paths from the base DataDir
func (c *Config) derivePaths() {
	c.TmpDir = filepath.Join(c.DataDir, TmpDir)

	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, DatabaseFile)
	}
}

// validate ensures configuration values are valid
func (c *Config) validate() error {
	if !slices.Contains(logging.ValidLogLevels(), c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of %s)", c.LogLevel, strings.Join(logging.ValidLogLevels(), ", "))
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d (must be 1-65535)", c.HTTPPort)
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"git timeout", c.GitTimeout},
		{"deploy poll interval", c.DeployPollInterval},
		{"deploy timeout", c.DeployTimeout},
		{"rate limit window", c.RateLimitWindow},
		{"watcher poll interval", c.WatcherPollInterval},
		{"stale after", c.StaleAfter},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got: %v", p.name, p.value)
		}
	}

	if !slices.Contains(LLMProviderNames, c.DefaultLLMProvider) {
		return fmt.Errorf("invalid default LLM provider: %s", c.DefaultLLMProvider)
	}

	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM max tokens must be positive, got: %d", c.LLMMaxTokens)
	}

	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got: %d", c.RateLimitRequests)
	}

	if c.EncryptionKey == "" {
		return fmt.Errorf(
			"encryption key is required - set SHIPYARD_ENCRYPTION_KEY environment variable or add it to %s",
			filepath.Join(c.DataDir, EnvFile),
		)
	}

	return nil
}

// ValidateForServer checks the settings only the HTTP server needs
func (c *Config) ValidateForServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required - set SHIPYARD_JWT_SECRET environment variable")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	return nil
}

// RateLimitEnabled reports whether a redis backend for rate limiting is configured
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != ""
}

// LLMModel returns the configured model override for a provider, or an empty string
func (c *Config) LLMModel(provider string) string {
	return c.LLMModels[provider]
}


func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
