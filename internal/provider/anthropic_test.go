package provider

import (
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/require"
)

func TestToAnthropicMessagesMapsRoles(t *testing.T) {
	out := toAnthropicMessages([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	require.Len(t, out, 2)
}

func TestIsRateLimitDetectsStatus429(t *testing.T) {
	err := &anthropic.Error{StatusCode: 429}
	require.True(t, isRateLimit(err))
	require.False(t, isRateLimit(errors.New("boom")))
}

func TestRateLimitErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	rl := &RateLimitError{Err: inner}
	require.ErrorIs(t, rl, inner)
}
