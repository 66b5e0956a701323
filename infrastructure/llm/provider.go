// Package llm adapts hosted and local language models to ports.LanguageModel.
package llm

import (
	"ideagraph/application/ports"
)

// Provider names accepted by NewFromConfig
const (
	ProviderMock      = "mock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

// CompletionOptions configures every request a client sends
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Middleware wraps a model with additional behavior
type Middleware func(next ports.LanguageModel) ports.LanguageModel

// Chain applies middlewares so the first one listed runs outermost
func Chain(base ports.LanguageModel, middlewares ...Middleware) ports.LanguageModel {
	model := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		model = middlewares[i](model)
	}
	return model
}
