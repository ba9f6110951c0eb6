// Package git pushes generated files to a remote repository using an in-process git implementation.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/oar-cd/shipyard/domain"
)

const (
	DefaultBranch = "main"
	remoteName    = "origin"

	botName  = "Shipyard Bot"
	botEmail = "bot@shipyard.dev"
)

var ErrNoFiles = errors.New("no files to push")

// HTTPAuth is basic auth for HTTPS remotes. Token based hosts accept any username.
type HTTPAuth struct {
	Username string
	Token    string
}

type PushRequest struct {
	RemoteURL     string
	Files         []domain.GeneratedFile
	CommitMessage string
	Auth          *HTTPAuth // nil for unauthenticated remotes
}

type GitService struct {
	tmpDir  string
	timeout time.Duration
}

// NewGitService creates a service that stages work under tmpDir. A zero timeout disables the push deadline.
func NewGitService(tmpDir string, timeout time.Duration) *GitService {
	return &GitService{
		tmpDir:  tmpDir,
		timeout: timeout,
	}
}

func (s *GitService) createAuthMethod(auth *HTTPAuth) transport.AuthMethod {
	if auth == nil || auth.Token == "" {
		return nil
	}
	username := auth.Username
	if username == "" {
		username = "x-access-token"
	}
	return &http.BasicAuth{
		Username: username,
		Password: auth.Token,
	}
}

// PushFiles writes the files into a scratch repository, commits them on the default
// branch and pushes to the remote. A rejected push is retried once with force.
// The scratch directory is always removed.
func (s *GitService) PushFiles(ctx context.Context, req PushRequest) (string, error) {
	if len(req.Files) == 0 {
		return "", ErrNoFiles
	}

	if s.tmpDir != "" {
		if err := os.MkdirAll(s.tmpDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create tmp dir: %w", err)
		}
	}
	workingDir, err := os.MkdirTemp(s.tmpDir, "push-*")
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_push_tmpdir",
			"error", err)
		return "", fmt.Errorf("failed to create working dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workingDir); err != nil {
			slog.Warn("Failed to remove working dir",
				"layer", "git",
				"working_dir", workingDir,
				"error", err)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	slog.Info("Pushing files to repository",
		"remote_url", redactURL(req.RemoteURL),
		"file_count", len(req.Files))

	repo, err := git.PlainInitWithOptions(workingDir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch),
		},
	})
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_init",
			"working_dir", workingDir,
			"error", err)
		return "", err
	}

	if err := writeFiles(workingDir, req.Files); err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_write_files",
			"working_dir", workingDir,
			"error", err)
		return "", err
	}

	commitHash, err := s.commitAll(repo, req.CommitMessage)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_commit",
			"working_dir", workingDir,
			"error", err)
		return "", err
	}

	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: remoteName,
		URLs: []string{req.RemoteURL},
	}); err != nil {
		return "", err
	}

	if err := s.push(ctx, repo, req.Auth); err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_push",
			"remote_url", redactURL(req.RemoteURL),
			"error", err)
		return "", err
	}

	slog.Info("Files pushed successfully",
		"remote_url", redactURL(req.RemoteURL),
		"commit", commitHash)
	return commitHash, nil
}

func (s *GitService) commitAll(repo *git.Repository, message string) (string, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return "", err
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage files: %w", err)
	}

	if message == "" {
		message = "Initial commit"
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  botName,
			Email: botEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit files: %w", err)
	}
	return hash.String(), nil
}

func (s *GitService) push(ctx context.Context, repo *git.Repository, auth *HTTPAuth) error {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", DefaultBranch, DefaultBranch))
	opts := &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       s.createAuthMethod(auth),
	}

	err := repo.PushContext(ctx, opts)
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	slog.Warn("Push rejected, retrying with force",
		"layer", "git",
		"operation", "git_push",
		"error", err)

	opts.Force = true
	err = repo.PushContext(ctx, opts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// writeFiles writes every file below dir, creating parent directories. Paths
// that would escape dir are rejected.
func writeFiles(dir string, files []domain.GeneratedFile) error {
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("invalid file path %q", f.Path)
		}
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(full, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}
