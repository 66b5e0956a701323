package utils

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts prompt tokens. Every supported vendor is approximated
// with the GPT-4 encoding, which is close enough for budgeting.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a counter backed by the GPT-4 codec
func NewTokenCounter() (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &TokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in text, estimating 4 chars per token without a codec
func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.codec == nil {
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// Truncate cuts text so it fits within limit tokens
func (tc *TokenCounter) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	current := tc.Count(text)
	if current <= limit {
		return text
	}
	if tc != nil && tc.codec != nil {
		if ids, _, err := tc.codec.Encode(text); err == nil && len(ids) > limit {
			if out, err := tc.codec.Decode(ids[:limit]); err == nil {
				return out
			}
		}
	}
	charLimit := int(float64(len(text)) * float64(limit) / float64(current) * 0.9)
	if charLimit >= len(text) {
		return text
	}
	return text[:charLimit]
}
