package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ideagraph/application/prompts"
	"ideagraph/application/services"
	"ideagraph/infrastructure/llm"
	"ideagraph/infrastructure/messaging"
	"ideagraph/infrastructure/observability"
	"ideagraph/infrastructure/persistence/memory"
	"ideagraph/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	testSecret = "test-secret"
	testIssuer = "ideagraph-test"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type server struct {
	t       *testing.T
	handler http.Handler
	metrics *observability.Collector
}

func newServer(t *testing.T, ratePerMinute int, ready ReadyFunc) *server {
	t.Helper()
	logger := zap.NewNop()

	catalog, err := prompts.NewCatalog(nil, logger)
	require.NoError(t, err)
	metrics := observability.NewCollector("test")

	service := services.NewProjectService(
		memory.NewInMemoryProjectStore(),
		llm.NewMockProvider(),
		nil, nil,
		messaging.NewLogPublisher(logger),
		catalog,
		metrics,
		noop.NewTracerProvider().Tracer("test"),
		services.Options{MaxAttempts: 3, RetryBaseDelay: time.Millisecond},
		logger,
	)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        testIssuer,
	})
	require.NoError(t, err)

	router := NewRouter(service, validator, auth.NewUserRateLimiter(ratePerMinute), metrics, ready, RouterConfig{}, logger)
	return &server{t: t, handler: router.Setup(), metrics: metrics}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := auth.SignHS256(testSecret, subject, testIssuer, nil, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)
	return signed
}

func (s *server) do(method, path, user string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(s.t, user))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

type projectView struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Version     int    `json:"version"`
	Opportunity *struct {
		Market string `json:"market"`
	} `json:"opportunity"`
	ProjectRating *struct {
		Opportunity int `json:"opportunity"`
	} `json:"projectRating"`
	Nodes []struct {
		ID     string `json:"id"`
		Label  string `json:"label"`
		Prompt string `json:"prompt"`
	} `json:"nodes"`
	Edges []struct {
		Source string `json:"source"`
		Target string `json:"target"`
	} `json:"edges"`
}

func createProject(t *testing.T, s *server, owner string) projectView {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/projects", owner, map[string]interface{}{
		"name":  "Clinic scheduling",
		"nodes": []map[string]interface{}{{"id": "A", "label": "Idea", "prompt": "", "position": map[string]float64{"x": 0, "y": 0}}},
		"edges": []interface{}{},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p projectView
	decodeData(t, rec, &p)
	return p
}

func TestRouter_OpsEndpoints(t *testing.T) {
	s := newServer(t, 100, nil)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestRouter_ReadinessFailure(t *testing.T) {
	s := newServer(t, 100, func(context.Context) error { return errors.New("store down") })

	rec := s.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Authentication(t *testing.T) {
	s := newServer(t, 100, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "UNAUTHORIZED", body.Type)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	s := newServer(t, 2, nil)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/projects", "alice", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/projects", "alice", nil).Code)

	rec := s.do(http.MethodGet, "/api/v1/projects", "alice", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT", decodeError(t, rec).Type)

	// Limits are per user.
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/projects", "bob", nil).Code)
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	s := newServer(t, 100, nil)

	// Create: stored, then tagged by the model
	p := createProject(t, s, "alice")
	assert.Equal(t, "alice", p.Owner)
	require.NotNil(t, p.Opportunity)
	assert.Equal(t, "Small businesses", p.Opportunity.Market)
	assert.Equal(t, 2, p.Version)

	base := "/api/v1/projects/" + p.ID

	// Converse
	rec := s.do(http.MethodPost, base+"/converse", "alice", map[string]interface{}{
		"parentNodeId": "A",
		"prompt":       "who pays?",
		"title":        "Buyers",
		"position":     map[string]float64{"x": 0, "y": 120},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var conv struct {
		NewNode struct {
			ID     string `json:"id"`
			Label  string `json:"label"`
			Prompt string `json:"prompt"`
			Title  string `json:"title"`
		} `json:"newNode"`
		NewEdge struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"newEdge"`
	}
	decodeData(t, rec, &conv)
	assert.Equal(t, "Mock answer: who pays?", conv.NewNode.Label)
	assert.Equal(t, "who pays?", conv.NewNode.Prompt)
	assert.Equal(t, "Buyers", conv.NewNode.Title)
	assert.Equal(t, "A", conv.NewEdge.Source)
	assert.Equal(t, conv.NewNode.ID, conv.NewEdge.Target)

	// Regenerate the child
	rec = s.do(http.MethodPatch, base+"/nodes/"+conv.NewNode.ID, "alice", map[string]string{"newPrompt": "who else pays?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var regenerated struct {
		Label  string `json:"label"`
		Prompt string `json:"prompt"`
	}
	decodeData(t, rec, &regenerated)
	assert.Equal(t, "Mock answer: who else pays?", regenerated.Label)

	// Regenerating a root is a validation error
	rec = s.do(http.MethodPatch, base+"/nodes/A", "alice", map[string]string{"newPrompt": "again"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Positions
	rec = s.do(http.MethodPatch, base+"/nodes/positions", "alice", map[string]interface{}{
		"updates": []map[string]interface{}{{"id": "A", "position": map[string]float64{"x": 5, "y": 6}}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var moved struct {
		Applied int `json:"applied"`
	}
	decodeData(t, rec, &moved)
	assert.Equal(t, 1, moved.Applied)

	// Synthesize with no body covers the whole forest
	rec = s.do(http.MethodPost, base+"/synthesize", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Document string `json:"document"`
	}
	decodeData(t, rec, &report)
	assert.Contains(t, report.Document, "# Mock report")

	// Rate
	rec = s.do(http.MethodPost, base+"/rate", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Pitch
	rec = s.do(http.MethodPost, base+"/pitch", "alice", map[string]interface{}{
		"nodeIds":          []string{"A"},
		"validationMetric": "waitlist signups",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pitch struct {
		Pitch string `json:"pitch"`
	}
	decodeData(t, rec, &pitch)
	assert.Contains(t, pitch.Pitch, "Suggested community")

	// Delete the child and check the stored project
	rec = s.do(http.MethodDelete, base+"/nodes/"+conv.NewNode.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, base, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var final projectView
	decodeData(t, rec, &final)
	require.Len(t, final.Nodes, 1)
	assert.Empty(t, final.Edges)
	require.NotNil(t, final.ProjectRating)
	assert.Equal(t, 6, final.ProjectRating.Opportunity)

	// List
	rec = s.do(http.MethodGet, "/api/v1/projects", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decodeData(t, rec, &list)
	assert.Equal(t, 1, list.Count)
}

func TestRouter_OwnershipIsNotFound(t *testing.T) {
	s := newServer(t, 100, nil)
	p := createProject(t, s, "alice")

	rec := s.do(http.MethodGet, "/api/v1/projects/"+p.ID, "mallory", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Type)

	rec = s.do(http.MethodDelete, "/api/v1/projects/"+p.ID+"/nodes/A", "mallory", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newServer(t, 100, nil)
	p := createProject(t, s, "alice")
	base := "/api/v1/projects/" + p.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"converse without position", http.MethodPost, base + "/converse", map[string]string{"parentNodeId": "A", "prompt": "q"}},
		{"converse position without y", http.MethodPost, base + "/converse", map[string]interface{}{"parentNodeId": "A", "prompt": "q", "position": map[string]float64{"x": 5}}},
		{"document with blank content", http.MethodPost, "/api/v1/documents", map[string]string{"content": "   "}},
		{"converse unknown field", http.MethodPost, base + "/converse", map[string]string{"bogus": "x"}},
		{"pitch without nodes", http.MethodPost, base + "/pitch", map[string]string{"validationMetric": "m"}},
		{"create without name", http.MethodPost, "/api/v1/projects", map[string]interface{}{"nodes": []interface{}{}, "edges": []interface{}{}}},
		{"document while retrieval disabled", http.MethodPost, "/api/v1/documents", map[string]string{"content": "notes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION", decodeError(t, rec).Type)
		})
	}
}

func TestRouter_AnalyzeIdea(t *testing.T) {
	s := newServer(t, 100, nil)

	rec := s.do(http.MethodPost, "/api/v1/ideas/analyze", "alice", map[string]string{"idea": "Uber for dog walking"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var analysis struct {
		Analysis   string   `json:"analysis"`
		Variations []string `json:"variations"`
	}
	decodeData(t, rec, &analysis)
	assert.NotEmpty(t, analysis.Analysis)
	assert.Len(t, analysis.Variations, 5)
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newServer(t, 100, nil)

	rec := s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
