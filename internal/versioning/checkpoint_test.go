package versioning

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theseusxyz/theseus/internal/config"
)

func TestNewCheckpointIDIsEightCharsAndUnique(t *testing.T) {
	a := NewCheckpointID()
	b := NewCheckpointID()
	require.Len(t, a, 8)
	require.Len(t, b, 8)
	require.NotEqual(t, a, b)
}

func TestNewCheckpointDeepCopiesHistoryAndState(t *testing.T) {
	history := []config.ChatMessage{{Role: "user", Content: "hi"}}
	state := config.SessionState{Task: "do it", Extra: map[string]any{"k": 1}}

	cp := NewCheckpoint("abc123", "msg", 4, history, state, config.AuthorAgent)

	history[0].Content = "mutated"
	state.Extra["k"] = 2

	require.Equal(t, "hi", cp.AgentHistory[0].Content)
	require.Equal(t, 1, cp.State.Extra["k"])
	require.Equal(t, "abc123", cp.CommitHash)
	require.Equal(t, 4, cp.EventID)
	require.Equal(t, config.AuthorAgent, cp.Author)
}
