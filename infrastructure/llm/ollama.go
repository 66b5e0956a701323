package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaHost is used when no host is configured
const DefaultOllamaHost = "http://localhost:11434"

// OllamaClient completes prompts against a local Ollama server
type OllamaClient struct {
	client *api.Client
	opts   CompletionOptions
}

// NewOllamaClient creates a client for hostURL, falling back to the default host
func NewOllamaClient(hostURL string, opts CompletionOptions) (*OllamaClient, error) {
	client, err := newOllamaAPI(hostURL)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{client: client, opts: opts}, nil
}

func newOllamaAPI(hostURL string) (*api.Client, error) {
	if hostURL == "" {
		hostURL = DefaultOllamaHost
	}
	parsed, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", hostURL, err)
	}
	return api.NewClient(parsed, http.DefaultClient), nil
}

// Complete runs a non-streaming chat with one user message
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.opts.Model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": c.opts.Temperature,
			"num_predict": c.opts.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama completion failed: %w", err)
	}
	return response.Message.Content, nil
}
