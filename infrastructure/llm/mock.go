package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider answers by recognising the prompt kind, for development without a vendor key
type MockProvider struct {
	available bool
}

// NewMockProvider creates a new mock language model
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

// Complete returns a canned answer shaped like the real one
func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case strings.Contains(prompt, "venture capitalist"):
		return `{"opportunity": 6, "problem": 7, "feasibility": 5, "why_now": 6, "feedback": "Mock assessment: a real problem with an unproven channel."}`, nil
	case strings.Contains(prompt, "market research analyst"):
		return `{"market": "Small businesses", "type": "SaaS", "competitors": ["Incumbent Co"], "trend": "Automation of routine work"}`, nil
	case strings.Contains(prompt, "expert project analyst"):
		return `{"analysis": "Mock analysis of the idea.", "variations": ["Variation one", "Variation two", "Variation three", "Variation four", "Variation five"]}`, nil
	case strings.Contains(prompt, "technical writer"):
		return "# Mock report\n\nThis report summarises the research notes.", nil
	case strings.Contains(prompt, "stealth marketing"):
		return "Has anyone else run into this problem? Curious how you handle it.\n\nSuggested community: r/Entrepreneur", nil
	}

	if q := after(prompt, "User's Question:\n"); q != "" {
		return "Mock answer: " + q, nil
	}
	if q := after(prompt, "Question: "); q != "" {
		return "Mock answer: " + q, nil
	}
	return "", fmt.Errorf("unsupported prompt type")
}

// after returns the first line following marker
func after(prompt, marker string) string {
	i := strings.Index(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(marker):]
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
