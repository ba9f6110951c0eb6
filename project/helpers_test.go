package project_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/codegen"
	"github.com/oar-cd/shipyard/db"
	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/encryption"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/logging"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
	"github.com/oar-cd/shipyard/repository"
	"github.com/oar-cd/shipyard/sourcehost"
)

// TestMain sets up global test configuration before running any tests
func TestMain(m *testing.M) {
	logging.InitLogging("debug")
	os.Exit(m.Run())
}

const todoResponse = `Sure! Here is the project:
{"files":[{"path":"index.js","content":"console.log('todo')"}]}`

// stubProvider is a configured llm.Provider whose Generate is never called directly
type stubProvider struct{}

func (stubProvider) Name() llm.Name { return llm.Anthropic }
func (stubProvider) IsConfigured() bool { return true }
func (stubProvider) DefaultModel() string { return "stub-model" }
func (stubProvider) Generate(context.Context, llm.Request) (*llm.Response, error) {
	panic("stubProvider.Generate should not be called")
}

// stubLLM implements project.LLMGateway
type stubLLM struct {
	resolveErr error
	content    string
	err        error
	panicMsg   string
	block      chan struct{} // when set, Generate waits for it to close
	calls      atomic.Int32
	lastReq    llm.Request
	mu         sync.Mutex
}

func (s *stubLLM) Resolve(string) (llm.Provider, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return stubProvider{}, nil
}

func (s *stubLLM) Generate(_ context.Context, _ string, req llm.Request) (*llm.Response, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{
		Content:  s.content,
		Model:    "stub-model-2025",
		Usage:    llm.Usage{InputTokens: 120, OutputTokens: 45, TotalTokens: 165},
		Duration: 1500 * time.Millisecond,
	}, nil
}

// stubSource implements pipeline.SourceHost
type stubSource struct {
	calls atomic.Int32
	err   error
	block chan struct{} // when set, PushFiles waits for it to close
}

func (s *stubSource) PushFiles(_ context.Context, req sourcehost.PushRequest) (*sourcehost.PushResult, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return &sourcehost.PushResult{
		Owner:      "octo",
		Repo:       req.Repo,
		RepoURL:    "https://github.com/octo/" + req.Repo,
		CommitHash: "deadbeef",
	}, nil
}

// newFakeVercel serves a Vercel API whose deployment moves through states on successive polls
func newFakeVercel(t *testing.T, states ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v9/projects/{name}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "prj_1", "name": r.PathValue("name")})
	})
	mux.HandleFunc("POST /v10/projects/{id}/env", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /v13/deployments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "dpl_1", "readyState": deploytarget.StateQueued})
	})
	mux.HandleFunc("GET /v13/deployments/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := int(polls.Add(1)) - 1
		state := states[min(n, len(states)-1)]
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "dpl_1", "url": "todo-app.vercel.app", "readyState": state})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

type testEnv struct {
	db          *gorm.DB
	service     *project.ProjectService
	projects    repository.ProjectRepository
	generations repository.GenerationRepository
	deployments repository.DeploymentRepository
	audit       *audit.Recorder
	llm         *stubLLM
	source      *stubSource
	owner       domain.Principal
	other       domain.Principal
	admin       domain.Principal
}

type envOptions struct {
	vercelStates  []string
	vercelTimeout time.Duration
	// wrapProjects decorates the project repository handed to the service
	wrapProjects func(repository.ProjectRepository) repository.ProjectRepository
}

// gatedProjects holds the first UpdateMetadata call until release is closed
type gatedProjects struct {
	repository.ProjectRepository
	gated   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedProjects(repo repository.ProjectRepository) *gatedProjects {
	return &gatedProjects{
		ProjectRepository: repo,
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (g *gatedProjects) UpdateMetadata(p *domain.Project) (bool, error) {
	if g.gated.CompareAndSwap(false, true) {
		close(g.entered)
		<-g.release
	}
	return g.ProjectRepository.UpdateMetadata(p)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.InitDatabase(db.DBConfig{Path: db.MemoryPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(database))
	return database
}

func setupEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	database := setupTestDB(t)

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptionSvc, err := encryption.NewEncryptionService(key)
	require.NoError(t, err)

	env := &testEnv{
		db:          database,
		projects:    repository.NewProjectRepository(database),
		generations: repository.NewGenerationRepository(database),
		deployments: repository.NewDeploymentRepository(database, encryptionSvc),
		audit:       audit.NewRecorder(repository.NewAuditRepository(database)),
		llm:         &stubLLM{content: todoResponse},
		source:      &stubSource{},
	}

	users := repository.NewUserRepository(database)
	for _, p := range []struct {
		dst  *domain.Principal
		role domain.Role
	}{{&env.owner, domain.RoleUser}, {&env.other, domain.RoleUser}, {&env.admin, domain.RoleAdmin}} {
		u, err := users.Create(&domain.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "u", Role: p.role})
		require.NoError(t, err)
		*p.dst = domain.Principal{ID: u.ID, Role: p.role}
	}

	states := opts.vercelStates
	if len(states) == 0 {
		states = []string{deploytarget.StateReady}
	}
	timeout := opts.vercelTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	srv, _ := newFakeVercel(t, states...)
	vercel := deploytarget.NewVercel(deploytarget.VercelConfig{
		Token:        "vercel-token",
		BaseURL:      srv.URL,
		PollInterval: 5 * time.Millisecond,
		Timeout:      timeout,
	})

	projects := env.projects
	if opts.wrapProjects != nil {
		projects = opts.wrapProjects(projects)
	}

	env.service = project.NewProjectService(
		projects,
		env.generations,
		env.deployments,
		env.audit,
		env.llm,
		codegen.NewRegexParser(),
		pipeline.NewOrchestrator(env.source, vercel),
	)
	return env
}

func (e *testEnv) createProject(t *testing.T) *domain.Project {
	t.Helper()
	prompt := "Build a todo app"
	p, err := e.service.Create(context.Background(), e.owner, project.CreateInput{
		Name:      "Todo App",
		TechStack: []domain.TechStackItem{{Name: "React", Category: domain.TechStackFrontend}},
		Prompt:    &prompt,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) generatedProject(t *testing.T) *domain.Project {
	t.Helper()
	p := e.createProject(t)
	_, err := e.service.Generate(context.Background(), e.owner, p.ID, project.GenerateOptions{})
	require.NoError(t, err)
	found, err := e.projects.FindByID(p.ID)
	require.NoError(t, err)
	return found
}

func (e *testEnv) auditEntries(t *testing.T, filter domain.AuditFilter) []*domain.AuditLogEntry {
	t.Helper()
	entries, err := e.audit.List(filter)
	require.NoError(t, err)
	return entries
}
