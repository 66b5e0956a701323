package llm

import (
	"context"
	"errors"
	"time"

	"ideagraph/application/ports"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Recorder receives per-request model measurements
type Recorder interface {
	RecordLLMRequest(provider string, duration time.Duration, err error)
	RecordBreakerState(name string, state string)
}

// BreakerConfig holds the circuit breaker settings
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default breaker settings
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// WithTimeout bounds every completion
func WithTimeout(d time.Duration) Middleware {
	return func(next ports.LanguageModel) ports.LanguageModel {
		if d <= 0 {
			return next
		}
		return ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, prompt)
		})
	}
}

// WithCircuitBreaker stops calling the model after repeated failures.
// Caller cancellations do not count against the model.
func WithCircuitBreaker(cfg BreakerConfig, recorder Recorder, logger *zap.Logger) Middleware {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if recorder != nil {
				recorder.RecordBreakerState(name, to.String())
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return func(next ports.LanguageModel) ports.LanguageModel {
		return ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
			out, err := cb.Execute(func() (interface{}, error) {
				return next.Complete(ctx, prompt)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return "", pkgerrors.NewUpstreamError("language model", err)
			}
			if err != nil {
				return "", err
			}
			return out.(string), nil
		})
	}
}

// WithMetrics records latency and outcome per call
func WithMetrics(provider string, recorder Recorder) Middleware {
	return func(next ports.LanguageModel) ports.LanguageModel {
		if recorder == nil {
			return next
		}
		return ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
			start := time.Now()
			out, err := next.Complete(ctx, prompt)
			recorder.RecordLLMRequest(provider, time.Since(start), err)
			return out, err
		})
	}
}

// WithLogging logs failed completions
func WithLogging(provider string, logger *zap.Logger) Middleware {
	return func(next ports.LanguageModel) ports.LanguageModel {
		return ports.LanguageModelFunc(func(ctx context.Context, prompt string) (string, error) {
			start := time.Now()
			out, err := next.Complete(ctx, prompt)
			if err != nil {
				logger.Warn("Model call failed",
					zap.String("provider", provider),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
			}
			return out, err
		})
	}
}
