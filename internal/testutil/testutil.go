package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/writing-assistant/internal/api"
	"github.com/dom/writing-assistant/internal/config"
	"github.com/dom/writing-assistant/internal/gateway"
	"github.com/dom/writing-assistant/internal/logging"
	"github.com/dom/writing-assistant/internal/repository"
	repoPostgres "github.com/dom/writing-assistant/internal/repository/postgres"
	"github.com/dom/writing-assistant/internal/service"
	"github.com/dom/writing-assistant/internal/session"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer, connects to it and
// applies the embedded migrations.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_writing_assistant"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := repoPostgres.NewConnection(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB.DB = db
	testDB.DSN = dsn
	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"completions", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Environment:    "test",
		LogLevel:       "disabled",
		SessionSecrets: []string{"test-session-secret-for-testing-only"},
		OpenAIKey:      "test-openai-key",
		GatewayTimeout: 2 * time.Second,
		StartingTokens: 1000,
		BcryptCost:     bcrypt.MinCost,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server     *httptest.Server
	DB         *TestDB
	Repos      *repository.Repositories
	Services   *service.Services
	Sessions   *session.Manager
	Completion *FakeCompletion
	Config     *config.Config
}

// NewTestServer creates a complete test server backed by a fresh database
// and a fake completion service.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	fake := NewFakeCompletion(t)

	cfg := TestConfig()
	cfg.CompletionURL = fake.URL()

	sessions, err := session.NewManager(cfg.SessionSecrets, cfg.IsProduction())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	repos := repoPostgres.NewRepositories(testDB.DB)
	client := gateway.NewClient(cfg.CompletionURL, cfg.OpenAIKey, cfg.GatewayTimeout)
	services := service.NewServices(repos, client, cfg)
	router := api.NewRouter(services, sessions, logging.NewWithWriter(io.Discard, cfg.LogLevel, cfg.Environment))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:     server,
		DB:         testDB,
		Repos:      repos,
		Services:   services,
		Sessions:   sessions,
		Completion: fake,
		Config:     cfg,
	}
}

// URL returns the full URL for a path on the test server
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// Client returns an HTTP client with its own cookie jar that does not follow
// redirects, so tests can inspect 303 responses directly.
func (ts *TestServer) Client(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
