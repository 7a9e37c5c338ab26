package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/provider"
)

type fakeModel struct {
	output string
	err    error
}

func (f *fakeModel) Query(ctx context.Context, messages []provider.Message, systemPrompt string) (string, error) {
	return f.output, f.err
}

func newTestAgent(t *testing.T, model provider.Model) (*Agent, *config.SessionConfig) {
	t.Helper()
	ac := &config.AgentConfig{Model: "claude-3-5-sonnet", PromptType: config.PromptAnthropic}
	sc := &config.SessionConfig{VersioningType: config.VersioningNone}
	config.InitState(sc)
	sc.AgentConfigs = []config.AgentConfig{*ac}
	a := New("root", &sc.AgentConfigs[0], sc, model)
	return a, sc
}

func TestPredictHappyPathAppendsHistoryAndReturnsParsedTriple(t *testing.T) {
	model := &fakeModel{output: "<THOUGHT>I will list files</THOUGHT><COMMAND>ls()</COMMAND>"}
	a, sc := newTestAgent(t, model)
	log := eventlog.New()

	thought, action, output := a.Predict(context.Background(), "do the task", "observation text", SessionView{Cwd: "/tmp", Path: "/tmp"}, log, 0)

	require.Equal(t, "I will list files", thought)
	require.Equal(t, "ls()", action)
	require.Equal(t, model.output, output)
	require.Len(t, sc.AgentConfigs[0].ChatHistory, 2)
	require.Equal(t, "user", sc.AgentConfigs[0].ChatHistory[0].Role)
	require.Equal(t, "assistant", sc.AgentConfigs[0].ChatHistory[1].Role)
}

func TestPredictHallucinationSentinel(t *testing.T) {
	model := &fakeModel{output: "I forgot the tags"}
	a, _ := newTestAgent(t, model)
	log := eventlog.New()

	thought, action, output := a.Predict(context.Background(), "task", "obs", SessionView{}, log, 0)

	require.Equal(t, SentinelHallucination, thought)
	require.Equal(t, SentinelHallucination, action)
	require.Equal(t, model.output, output)
}

func TestPredictModelErrorAppendsErrorEvent(t *testing.T) {
	model := &fakeModel{err: errBoom}
	a, _ := newTestAgent(t, model)
	log := eventlog.New()

	thought, action, output := a.Predict(context.Background(), "task", "obs", SessionView{}, log, 0)

	require.Equal(t, SentinelError, thought)
	require.Equal(t, SentinelError, action)
	require.Equal(t, SentinelError, output)
	require.Equal(t, 1, log.Len())
	ev, _ := log.At(0)
	require.Equal(t, eventlog.Error, ev.Type)
}

func TestPredictRateLimitAppendsRateLimitEvent(t *testing.T) {
	model := &fakeModel{err: &provider.RateLimitError{Err: errBoom}}
	a, _ := newTestAgent(t, model)
	log := eventlog.New()

	a.Predict(context.Background(), "task", "obs", SessionView{}, log, 0)

	ev, _ := log.At(0)
	require.Equal(t, eventlog.RateLimit, ev.Type)
}

func TestPredictConsumesQueuedInterrupt(t *testing.T) {
	model := &fakeModel{output: "<THOUGHT>ack</THOUGHT><COMMAND>noop()</COMMAND>"}
	a, sc := newTestAgent(t, model)
	a.QueueInterrupt("stop what you're doing")
	log := eventlog.New()

	a.Predict(context.Background(), "task", "obs", SessionView{}, log, 0)

	require.Empty(t, a.interrupt)
	require.Contains(t, sc.AgentConfigs[0].ChatHistory[0].Content, "INTERRUPTED")
}

func TestResetClearsHistoryInterruptAndScratchpad(t *testing.T) {
	a, sc := newTestAgent(t, &fakeModel{})
	a.QueueInterrupt("x")
	sc.AgentConfigs[0].ChatHistory = []config.ChatMessage{{Role: "user", Content: "hi"}}
	sc.State.Scratchpad = "note"

	a.Reset()

	require.Empty(t, a.agentConfig.ChatHistory)
	require.Empty(t, a.interrupt)
	require.Empty(t, sc.State.Scratchpad)
}

var errBoom = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }
