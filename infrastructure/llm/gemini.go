package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient completes prompts with the Gemini API
type GeminiClient struct {
	client *genai.Client
	opts   CompletionOptions
}

// NewGeminiClient creates a client for the given API key
func NewGeminiClient(ctx context.Context, apiKey string, opts CompletionOptions) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, opts: opts}, nil
}

// Complete generates content for a single text prompt
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := float32(c.opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(c.opts.MaxTokens),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("gemini returned no response")
	}
	return result.Text(), nil
}
