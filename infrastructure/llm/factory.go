package llm

import (
	"context"
	"fmt"
	"time"

	"ideagraph/application/ports"

	"go.uber.org/zap"
)

// Config selects and tunes the model behind the service
type Config struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	OllamaHost      string

	BreakerFailureRatio float64
	BreakerMinRequests  int
	BreakerTimeout      time.Duration
}

var defaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3.1",
	ProviderGemini:    "gemini-2.5-flash",
}

// NewFromConfig builds the vendor client and wraps it with
// logging, metrics, the circuit breaker and the per-call timeout, outermost first.
func NewFromConfig(ctx context.Context, cfg Config, recorder Recorder, logger *zap.Logger) (ports.LanguageModel, error) {
	logger = logger.Named("llm")
	opts := CompletionOptions{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if opts.Model == "" {
		opts.Model = defaultModels[cfg.Provider]
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}

	var base ports.LanguageModel
	switch cfg.Provider {
	case ProviderMock, "":
		base = NewMockProvider()
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		base = NewAnthropicClient(cfg.AnthropicAPIKey, opts)
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		base = NewOpenAIClient(cfg.OpenAIAPIKey, opts)
	case ProviderOllama:
		client, err := NewOllamaClient(cfg.OllamaHost, opts)
		if err != nil {
			return nil, err
		}
		base = client
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, opts)
		if err != nil {
			return nil, err
		}
		base = client
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderMock
	}
	breaker := DefaultBreakerConfig("llm-" + provider)
	if cfg.BreakerFailureRatio > 0 {
		breaker.FailureThreshold = cfg.BreakerFailureRatio
	}
	if cfg.BreakerMinRequests > 0 {
		breaker.MinRequests = uint32(cfg.BreakerMinRequests)
	}
	if cfg.BreakerTimeout > 0 {
		breaker.Timeout = cfg.BreakerTimeout
	}

	logger.Info("Language model configured",
		zap.String("provider", provider),
		zap.String("model", opts.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	return Chain(base,
		WithLogging(provider, logger),
		WithMetrics(provider, recorder),
		WithCircuitBreaker(breaker, recorder, logger),
		WithTimeout(cfg.Timeout),
	), nil
}
