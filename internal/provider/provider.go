// Package provider is the model API client named as an external
// collaborator by spec §1 ("the model API clients and prompt
// templating... interact with the core only through the interfaces
// defined in §6"). It exposes one narrow interface, Model, that
// internal/agent drives; this package owns no prompt construction of its
// own.
package provider

import (
	"context"
	"fmt"
)

// Message is a role-tagged turn sent to a Model.
type Message struct {
	Role    string
	Content string
}

// ModelArguments configures a Model, grounded on
// original_source/theseus_agent/model.py's ModelArguments dataclass.
type ModelArguments struct {
	ModelName   string
	Temperature float64
	APIKey      string
	APIBase     string
}

// Model is the external-collaborator interface the Agent predictor
// drives (spec §4.3: "selects a prompt builder... [then] the model").
type Model interface {
	Query(ctx context.Context, messages []Message, systemPrompt string) (string, error)
}

// RateLimitError signals the backend rejected the request for rate
// limiting (spec §4.3 "rate-limit errors from the model").
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("provider: rate limited: %v", e.Err) }
func (e *RateLimitError) Unwrap() error { return e.Err }
