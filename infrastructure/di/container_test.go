package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ideagraph/infrastructure/config"
	"ideagraph/infrastructure/messaging"
	"ideagraph/infrastructure/persistence/memory"
	"ideagraph/infrastructure/persistence/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func baseConfig() *config.Config {
	return &config.Config{
		Environment:          "test",
		JWTSigningMethod:     "HS256",
		JWTSecret:            "secret",
		RateLimitPerMinute:   60,
		StoreBackend:         "memory",
		LLMProvider:          "mock",
		LLMTimeout:           time.Second,
		EventsBackend:        "log",
		OptimisticMaxRetries: 3,
		ServiceName:          "ideagraph_test",
	}
}

func TestInitializeContainer_Memory(t *testing.T) {
	cfg := baseConfig()

	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, c.Watcher)
	assert.NotNil(t, c.Service)

	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitializeContainer_SQLiteWithRetrieval(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "ideagraph.db")
	cfg.RAGEnabled = true
	cfg.EmbeddingProvider = "ollama"
	cfg.RAGTopK = 2
	cfg.RAGMaxTokens = 200

	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeContainer_BadPromptsFile(t *testing.T) {
	cfg := baseConfig()
	cfg.PromptsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvideProjectRepository(t *testing.T) {
	cfg := baseConfig()

	repo, err := ProvideProjectRepository(cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.InMemoryProjectStore{}, repo)

	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "p.db")
	db, closeDB, err := ProvideSQLiteDB(cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeDB()
	repo, err = ProvideProjectRepository(cfg, db, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.ProjectStore{}, repo)

	cfg.StoreBackend = "cassandra"
	_, err = ProvideProjectRepository(cfg, nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideEventPublisher_DefaultsToLog(t *testing.T) {
	p := ProvideEventPublisher(baseConfig(), nil, zap.NewNop())
	assert.IsType(t, &messaging.LogPublisher{}, p)
}
