package services

import (
	"time"
)

// Options tunes the project service
type Options struct {
	// MaxAttempts bounds the optimistic load-mutate-save loop
	MaxAttempts int
	// RetryBaseDelay is the first backoff after a version conflict; it doubles per attempt
	RetryBaseDelay time.Duration
	// OpportunityTagRequired fails project creation when tagging fails
	OpportunityTagRequired bool
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		MaxAttempts:    3,
		RetryBaseDelay: 100 * time.Millisecond,
	}
}

// Metrics receives operational measurements from the service
type Metrics interface {
	RecordOperation(operation string, duration time.Duration, err error)
	RecordPromptTokens(template string, tokens int)
	RecordVersionConflict(operation string)
	RecordOpportunityTagFailure()
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RecordOperation(string, time.Duration, error) {}
func (NopMetrics) RecordPromptTokens(string, int)               {}
func (NopMetrics) RecordVersionConflict(string)                 {}
func (NopMetrics) RecordOpportunityTagFailure()                 {}
