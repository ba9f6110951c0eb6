// Package app provides the main application context for Shipyard, managing the database and services.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/auth"
	"github.com/oar-cd/shipyard/codegen"
	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/db"
	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/encryption"
	"github.com/oar-cd/shipyard/git"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
	"github.com/oar-cd/shipyard/ratelimit"
	"github.com/oar-cd/shipyard/repository"
	"github.com/oar-cd/shipyard/sourcehost"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	database       *gorm.DB
	projectService project.ProjectManager
	auditRecorder  *audit.Recorder
	llmRegistry    *llm.Registry
	userRepository repository.UserRepository
	tokenService   *auth.TokenService
	limiter        *ratelimit.FixedWindowLimiter
	appConfig      *config.Config
	operator       *domain.Principal
)

// OperatorEmail identifies the built-in administrator the CLI acts as
const OperatorEmail = "operator@shipyard.local"

// ErrTokensNotConfigured is returned by GetTokenService when no JWT secret is set
var ErrTokensNotConfigured = errors.New("JWT secret is not configured - set SHIPYARD_JWT_SECRET")

// InitializeWithConfig initializes the app with a pre-configured Config
func InitializeWithConfig(cfg *config.Config) error {
	var err error

	// Store the provided config
	appConfig = cfg
	operator = nil

	// Ensure required directories exist
	if err := os.MkdirAll(appConfig.DataDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(appConfig.TmpDir, 0o755); err != nil {
		return err
	}

	// Initialize database and run migrations
	database, err = db.InitDB(appConfig.DatabasePath)
	if err != nil {
		return err
	}

	encryptionSvc, err := encryption.NewEncryptionService(appConfig.EncryptionKey)
	if err != nil {
		return err
	}

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(database)
	generationRepo := repository.NewGenerationRepository(database)
	deploymentRepo := repository.NewDeploymentRepository(database, encryptionSvc)
	userRepository = repository.NewUserRepository(database)
	auditRecorder = audit.NewRecorder(repository.NewAuditRepository(database))

	// External adapters
	llmRegistry = llm.NewRegistryFromConfig(appConfig)
	github := sourcehost.NewGitHub(appConfig.GitHubToken, git.NewGitService(appConfig.TmpDir, appConfig.GitTimeout))
	vercel := deploytarget.NewVercel(deploytarget.VercelConfig{
		Token:        appConfig.VercelToken,
		TeamID:       appConfig.VercelTeamID,
		PollInterval: appConfig.DeployPollInterval,
		Timeout:      appConfig.DeployTimeout,
	})

	// Initialize services with dependency injection
	projectService = project.NewProjectService(
		projectRepo,
		generationRepo,
		deploymentRepo,
		auditRecorder,
		llmRegistry,
		codegen.NewRegexParser(),
		pipeline.NewOrchestrator(github, vercel),
	)

	tokenService = nil
	if appConfig.JWTSecret != "" {
		tokenService, err = auth.NewTokenService(appConfig.JWTSecret)
		if err != nil {
			return err
		}
	}

	limiter = nil
	if appConfig.RateLimitEnabled() {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(
			appConfig.RedisAddr,
			appConfig.RedisPassword,
			"",
			appConfig.RateLimitRequests,
			appConfig.RateLimitWindow,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
	}

	slog.Debug("Application initialized",
		"data_dir", appConfig.DataDir,
		"llm_providers", llmRegistry.ConfiguredProviders(),
		"deploy_providers", deploytarget.ConfiguredProviders(appConfig),
		"rate_limit", appConfig.RateLimitEnabled())
	return nil
}

// Close releases the database and the rate limiter connection
func Close() error {
	var errs []error
	if limiter != nil {
		errs = append(errs, limiter.Close())
	}
	if database != nil {
		sqlDB, err := database.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func GetProjectService() project.ProjectManager {
	return projectService
}

func GetAuditRecorder() *audit.Recorder {
	return auditRecorder
}

func GetLLMRegistry() *llm.Registry {
	return llmRegistry
}

func GetUserRepository() repository.UserRepository {
	return userRepository
}

func GetTokenService() (*auth.TokenService, error) {
	if tokenService == nil {
		return nil, ErrTokensNotConfigured
	}
	return tokenService, nil
}

// GetLimiter returns the configured rate limiter, or false when rate limiting is off
func GetLimiter() (*ratelimit.FixedWindowLimiter, bool) {
	return limiter, limiter != nil
}

func GetConfig() *config.Config {
	return appConfig
}

// GetOperator returns the principal CLI commands run as, creating the operator user on first use
func GetOperator() (domain.Principal, error) {
	if operator != nil {
		return *operator, nil
	}
	if userRepository == nil {
		return domain.Principal{}, errors.New("application is not initialized")
	}

	user, err := userRepository.FindByEmail(OperatorEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = userRepository.Create(&domain.User{
			ID:    uuid.New(),
			Email: OperatorEmail,
			Name:  "Shipyard Operator",
			Role:  domain.RoleAdmin,
		})
		if err == nil {
			slog.Info("Created operator user", "user_id", user.ID)
		}
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to resolve operator user: %w", err)
	}

	operator = &domain.Principal{ID: user.ID, Role: user.Role}
	return *operator, nil
}

// SetOperatorForTesting allows overriding the CLI principal for testing purposes
func SetOperatorForTesting(principal domain.Principal) {
	operator = &principal
}

// SetProjectServiceForTesting allows overriding the project service for testing purposes
func SetProjectServiceForTesting(service project.ProjectManager) {
	projectService = service
}

// SetLLMRegistryForTesting allows overriding the LLM registry for testing purposes
func SetLLMRegistryForTesting(registry *llm.Registry) {
	llmRegistry = registry
}

// SetConfigForTesting allows overriding the config for testing purposes
func SetConfigForTesting(cfg *config.Config) {
	appConfig = cfg
}
