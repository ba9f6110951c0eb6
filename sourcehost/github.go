// Package sourcehost makes sure a remote repository exists and pushes generated files to it.
package sourcehost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v69/github"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/git"
)

var ErrNotConfigured = errors.New("source host is not configured")

// FilePusher pushes files to a remote git URL and returns the commit hash
type FilePusher interface {
	PushFiles(ctx context.Context, req git.PushRequest) (string, error)
}

type PushRequest struct {
	Owner         string // authenticated user when empty
	Repo          string
	Files         []domain.GeneratedFile
	CommitMessage string
	Private       bool
	Description   string
}

type PushResult struct {
	Owner      string
	Repo       string
	RepoURL    string
	CommitHash string
}

// GitHub creates repositories through the REST API and pushes over HTTPS
type GitHub struct {
	token  string
	client *github.Client
	pusher FilePusher
}

type Option func(*GitHub)

// WithBaseURL points the API client at a different host, used for GitHub Enterprise and tests
func WithBaseURL(baseURL string) Option {
	return func(g *GitHub) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			slog.Warn("Ignoring invalid GitHub base URL", "layer", "sourcehost", "base_url", baseURL, "error", err)
			return
		}
		g.client.BaseURL = u
	}
}

func NewGitHub(token string, pusher FilePusher, opts ...Option) *GitHub {
	g := &GitHub{
		token:  token,
		client: github.NewClient(nil).WithAuthToken(token),
		pusher: pusher,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsConfigured reports whether a token is present
func (g *GitHub) IsConfigured() bool {
	return strings.TrimSpace(g.token) != ""
}

// PushFiles ensures the repository exists and pushes the files as a single commit
func (g *GitHub) PushFiles(ctx context.Context, req PushRequest) (*PushResult, error) {
	if !g.IsConfigured() {
		return nil, ErrNotConfigured
	}

	repo, owner, err := g.ensureRepository(ctx, req)
	if err != nil {
		return nil, err
	}

	cloneURL := repo.GetCloneURL()
	if cloneURL == "" {
		return nil, fmt.Errorf("repository %s/%s has no clone URL", owner, req.Repo)
	}

	commitHash, err := g.pusher.PushFiles(ctx, git.PushRequest{
		RemoteURL:     cloneURL,
		Files:         req.Files,
		CommitMessage: req.CommitMessage,
		Auth:          &git.HTTPAuth{Token: g.token},
	})
	if err != nil {
		return nil, err
	}

	return &PushResult{
		Owner:      owner,
		Repo:       req.Repo,
		RepoURL:    repo.GetHTMLURL(),
		CommitHash: commitHash,
	}, nil
}

func (g *GitHub) ensureRepository(ctx context.Context, req PushRequest) (*github.Repository, string, error) {
	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "sourcehost",
			"operation", "github_get_user",
			"error", err)
		return nil, "", fmt.Errorf("github api error: %w", err)
	}
	login := user.GetLogin()

	owner := req.Owner
	if owner == "" {
		owner = login
	}

	repo, resp, err := g.client.Repositories.Get(ctx, owner, req.Repo)
	if err == nil {
		slog.Debug("Repository already exists", "owner", owner, "repo", req.Repo)
		return repo, owner, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		slog.Error("Service operation failed",
			"layer", "sourcehost",
			"operation", "github_get_repo",
			"owner", owner,
			"repo", req.Repo,
			"error", err)
		return nil, "", fmt.Errorf("github api error: %w", err)
	}

	// An empty org creates the repository for the authenticated user
	org := ""
	if !strings.EqualFold(owner, login) {
		org = owner
	}

	newRepo := &github.Repository{
		Name:     github.Ptr(req.Repo),
		Private:  github.Ptr(req.Private),
		AutoInit: github.Ptr(false),
	}
	if req.Description != "" {
		newRepo.Description = github.Ptr(req.Description)
	}

	created, _, err := g.client.Repositories.Create(ctx, org, newRepo)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "sourcehost",
			"operation", "github_create_repo",
			"owner", owner,
			"repo", req.Repo,
			"error", err)
		return nil, "", fmt.Errorf("github api error: %w", err)
	}

	slog.Info("Repository created", "owner", owner, "repo", req.Repo, "private", req.Private)
	return created, owner, nil
}
