package ports

import "context"

// LanguageModel turns a fully assembled prompt into a completion.
// Callers must assume the output may carry extra prose, may time out,
// and may violate the requested shape.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LanguageModelFunc adapts a function to LanguageModel
type LanguageModelFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f
func (f LanguageModelFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
