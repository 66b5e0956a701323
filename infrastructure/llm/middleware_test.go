package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ideagraph/application/ports"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu       sync.Mutex
	requests []error
	states   []string
}

func (r *recorder) RecordLLMRequest(provider string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, err)
}

func (r *recorder) RecordBreakerState(name, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) Middleware {
		return func(next ports.LanguageModel) ports.LanguageModel {
			return ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
				calls = append(calls, name)
				return next.Complete(ctx, prompt)
			})
		}
	}
	base := ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
		calls = append(calls, "base")
		return "ok", nil
	})

	out, err := Chain(base, tag("outer"), tag("inner")).Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"outer", "inner", "base"}, calls)
}

func TestWithTimeout(t *testing.T) {
	slow := ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "late", nil
		}
	})

	_, err := WithTimeout(10*time.Millisecond)(slow).Complete(context.Background(), "p")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithCircuitBreaker_OpensAfterFailures(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Minute

	calls := 0
	failing := ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("vendor down")
	})
	model := WithCircuitBreaker(cfg, rec, zap.NewNop())(failing)

	for i := 0; i < 2; i++ {
		_, err := model.Complete(context.Background(), "p")
		require.Error(t, err)
	}
	_, err := model.Complete(context.Background(), "p")

	assert.True(t, pkgerrors.IsUpstream(err))
	assert.Equal(t, 2, calls, "open breaker does not reach the vendor")
	assert.Contains(t, rec.states, "open")
}

func TestWithCircuitBreaker_CancellationIsNotAFailure(t *testing.T) {
	cfg := DefaultBreakerConfig("cancel")
	cfg.MinRequests = 1
	cfg.FailureThreshold = 0.1
	cancelled := ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", context.Canceled
	})
	model := WithCircuitBreaker(cfg, nil, zap.NewNop())(cancelled)

	for i := 0; i < 3; i++ {
		_, err := model.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestWithMetrics(t *testing.T) {
	rec := &recorder{}
	model := WithMetrics("mock", rec)(NewMockProvider())

	_, err := model.Complete(context.Background(), "nothing recognisable")

	require.Error(t, err)
	require.Len(t, rec.requests, 1)
	assert.Error(t, rec.requests[0])
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "rating", prompt: "You are a venture capitalist...", want: `"why_now"`},
		{name: "tag", prompt: "You are a market research analyst.", want: `"market"`},
		{name: "analysis", prompt: "You are an expert project analyst.", want: `"variations"`},
		{name: "converse", prompt: "Conversation History\n\nUser's Question:\nwho pays?\n\nYour Answer:", want: "Mock answer: who pays?"},
		{name: "regenerate", prompt: "History: - Idea\n\nQuestion: why now?\n\nAnswer:", want: "Mock answer: why now?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Complete(context.Background(), tt.prompt)
			require.NoError(t, err)
			assert.True(t, strings.Contains(out, tt.want), out)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	model, err := NewFromConfig(context.Background(), Config{Provider: ProviderMock, Timeout: time.Second}, nil, zap.NewNop())
	require.NoError(t, err)
	out, err := model.Complete(context.Background(), "User's Question:\nhello\n")
	require.NoError(t, err)
	assert.Equal(t, "Mock answer: hello", out)

	_, err = NewFromConfig(context.Background(), Config{Provider: ProviderAnthropic}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), Config{Provider: "carrier-pigeon"}, nil, zap.NewNop())
	assert.Error(t, err)
}
