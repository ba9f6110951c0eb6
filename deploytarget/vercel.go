package deploytarget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultVercelBaseURL = "https://api.vercel.com"
	DefaultPollInterval  = 5 * time.Second
	DefaultTimeout       = 5 * time.Minute
)

// Vercel ready states
const (
	StateQueued       = "QUEUED"
	StateInitializing = "INITIALIZING"
	StateBuilding     = "BUILDING"
	StateReady        = "READY"
	StateError        = "ERROR"
	StateCanceled     = "CANCELED"
)

type VercelConfig struct {
	Token        string
	TeamID       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Vercel deploys GitHub repositories through the Vercel REST API
type Vercel struct {
	token        string
	teamID       string
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

func NewVercel(cfg VercelConfig) *Vercel {
	v := &Vercel{
		token:        strings.TrimSpace(cfg.Token),
		teamID:       cfg.TeamID,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		httpClient:   cfg.HTTPClient,
	}
	if v.baseURL == "" {
		v.baseURL = defaultVercelBaseURL
	}
	if v.pollInterval <= 0 {
		v.pollInterval = DefaultPollInterval
	}
	if v.timeout <= 0 {
		v.timeout = DefaultTimeout
	}
	if v.httpClient == nil {
		v.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return v
}

func (v *Vercel) IsConfigured() bool {
	return v.token != ""
}

type vercelProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type vercelGitRepository struct {
	Type string `json:"type"`
	Repo string `json:"repo"`
}

type vercelCreateProjectRequest struct {
	Name            string               `json:"name"`
	Framework       *string              `json:"framework,omitempty"`
	BuildCommand    *string              `json:"buildCommand,omitempty"`
	OutputDirectory *string              `json:"outputDirectory,omitempty"`
	GitRepository   *vercelGitRepository `json:"gitRepository,omitempty"`
}

type vercelEnvVar struct {
	Key    string   `json:"key"`
	Value  string   `json:"value"`
	Type   string   `json:"type"`
	Target []string `json:"target"`
}

type vercelGitSource struct {
	Type string `json:"type"`
	Org  string `json:"org"`
	Repo string `json:"repo"`
	Ref  string `json:"ref"`
}

type vercelCreateDeploymentRequest struct {
	Name      string          `json:"name"`
	Project   string          `json:"project"`
	Target    string          `json:"target"`
	GitSource vercelGitSource `json:"gitSource"`
}

type vercelDeployment struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	ReadyState string `json:"readyState"`
}

type vercelErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// apiError carries the HTTP status so callers can tell a missing resource from a failure
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return "vercel api error: " + e.Message
}

// Deploy provisions the project, sets its environment and waits for the deployment to finish
func (v *Vercel) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	if !v.IsConfigured() {
		return nil, fmt.Errorf("%w: vercel", ErrNotConfigured)
	}

	project, err := v.ensureProject(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(req.EnvVariables) > 0 {
		if err := v.upsertEnv(ctx, project.ID, req.EnvVariables); err != nil {
			return nil, err
		}
	}

	deployment, err := v.createDeployment(ctx, project, req)
	if err != nil {
		return nil, err
	}

	slog.Info("Vercel deployment created",
		"project", project.Name,
		"deployment_id", deployment.ID,
		"ready_state", deployment.ReadyState)

	return v.waitForDeployment(ctx, deployment.ID)
}

func (v *Vercel) ensureProject(ctx context.Context, req DeployRequest) (*vercelProject, error) {
	var project vercelProject
	err := v.doJSON(ctx, http.MethodGet, "/v9/projects/"+url.PathEscape(req.ProjectName), nil, nil, &project)
	if err == nil {
		return &project, nil
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		slog.Error("Service operation failed",
			"layer", "deploytarget",
			"operation", "vercel_get_project",
			"project", req.ProjectName,
			"error", err)
		return nil, err
	}

	body := vercelCreateProjectRequest{
		Name:            req.ProjectName,
		Framework:       optional(req.Framework),
		BuildCommand:    optional(req.BuildCommand),
		OutputDirectory: optional(req.OutputDirectory),
	}
	if req.RepoOwner != "" && req.RepoName != "" {
		body.GitRepository = &vercelGitRepository{Type: "github", Repo: req.RepoOwner + "/" + req.RepoName}
	}

	if err := v.doJSON(ctx, http.MethodPost, "/v10/projects", nil, body, &project); err != nil {
		slog.Error("Service operation failed",
			"layer", "deploytarget",
			"operation", "vercel_create_project",
			"project", req.ProjectName,
			"error", err)
		return nil, err
	}

	slog.Info("Vercel project created", "project", project.Name, "project_id", project.ID)
	return &project, nil
}

func (v *Vercel) upsertEnv(ctx context.Context, projectID string, env map[string]string) error {
	vars := make([]vercelEnvVar, 0, len(env))
	for key, value := range env {
		vars = append(vars, vercelEnvVar{
			Key:    key,
			Value:  value,
			Type:   "encrypted",
			Target: []string{"production", "preview"},
		})
	}

	query := url.Values{"upsert": []string{"true"}}
	if err := v.doJSON(ctx, http.MethodPost, "/v10/projects/"+url.PathEscape(projectID)+"/env", query, vars, nil); err != nil {
		slog.Error("Service operation failed",
			"layer", "deploytarget",
			"operation", "vercel_upsert_env",
			"project_id", projectID,
			"error", err)
		return err
	}
	return nil
}

func (v *Vercel) createDeployment(ctx context.Context, project *vercelProject, req DeployRequest) (*vercelDeployment, error) {
	body := vercelCreateDeploymentRequest{
		Name:    project.Name,
		Project: project.ID,
		Target:  "production",
		GitSource: vercelGitSource{
			Type: "github",
			Org:  req.RepoOwner,
			Repo: req.RepoName,
			Ref:  "main",
		},
	}

	var deployment vercelDeployment
	if err := v.doJSON(ctx, http.MethodPost, "/v13/deployments", nil, body, &deployment); err != nil {
		slog.Error("Service operation failed",
			"layer", "deploytarget",
			"operation", "vercel_create_deployment",
			"project_id", project.ID,
			"error", err)
		return nil, err
	}
	return &deployment, nil
}

// waitForDeployment polls until the deployment reaches a terminal state or the timeout elapses
func (v *Vercel) waitForDeployment(ctx context.Context, deploymentID string) (*DeployResult, error) {
	deadline := time.NewTimer(v.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	for {
		var deployment vercelDeployment
		if err := v.doJSON(ctx, http.MethodGet, "/v13/deployments/"+url.PathEscape(deploymentID), nil, nil, &deployment); err != nil {
			return nil, err
		}

		slog.Debug("Polled Vercel deployment", "deployment_id", deploymentID, "ready_state", deployment.ReadyState)

		switch deployment.ReadyState {
		case StateReady:
			return &DeployResult{URL: liveURL(deployment.URL), DeploymentID: deployment.ID}, nil
		case StateError, StateCanceled:
			return nil, &TerminalStateError{State: deployment.ReadyState}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			slog.Warn("Vercel deployment timed out",
				"deployment_id", deploymentID,
				"timeout", v.timeout,
				"ready_state", deployment.ReadyState)
			return nil, ErrDeploymentTimeout
		case <-ticker.C:
		}
	}
}

func (v *Vercel) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if v.teamID != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("teamId", v.teamID)
	}
	endpoint := v.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+v.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vercel request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp vercelErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return &apiError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vercel decode response: %w", err)
	}
	return nil
}

func liveURL(host string) string {
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
