package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIClient completes prompts with the Responses API
type OpenAIClient struct {
	client openai.Client
	opts   CompletionOptions
}

// NewOpenAIClient creates a client for the given API key
func NewOpenAIClient(apiKey string, opts CompletionOptions) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		opts:   opts,
	}
}

// Complete sends the prompt as plain input text
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model:           c.opts.Model,
		MaxOutputTokens: openai.Int(int64(c.opts.MaxTokens)),
		Temperature:     openai.Float(c.opts.Temperature),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("openai returned no response")
	}
	return resp.OutputText(), nil
}
