package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theseusxyz/theseus/internal/agent"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/environment"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/provider"
	"github.com/theseusxyz/theseus/internal/tool"
)

type fakeModel struct {
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeModel) Query(ctx context.Context, messages []provider.Message, systemPrompt string) (string, error) {
	i := f.calls
	f.calls++
	var out string
	var err error
	if i < len(f.outputs) {
		out = f.outputs[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return out, err
}

type fakeTool struct {
	name     string
	output   string
	lastArgs []string
}

func (t *fakeTool) Name() string                                        { return t.name }
func (t *fakeTool) Setup(ctx context.Context, tc *tool.Context) error   { return nil }
func (t *fakeTool) Cleanup(ctx context.Context, tc *tool.Context) error { return nil }
func (t *fakeTool) Documentation() string                               { return t.name + "()" }
func (t *fakeTool) Function(ctx context.Context, tc *tool.Context, args []string) (string, error) {
	t.lastArgs = args
	return t.output, nil
}

func newTestRuntime(t *testing.T, model provider.Model, tools ...tool.Tool) (*Runtime, *config.SessionConfig, *eventlog.Log) {
	t.Helper()
	sc := &config.SessionConfig{VersioningType: config.VersioningNone, DefaultEnvironment: "local", Path: t.TempDir()}
	config.InitState(sc)
	sc.AgentConfigs = []config.AgentConfig{{Model: "claude-3-5-sonnet", PromptType: config.PromptAnthropic}}

	log_ := eventlog.New()
	a := agent.New("root", &sc.AgentConfigs[0], sc, model)

	local := environment.NewLocal(log_, sc.Path)
	for _, tl := range tools {
		local.RegisterTools(map[string]tool.Tool{tl.Name(): tl})
	}
	envs := map[string]environment.Environment{"local": local}

	rt := NewRuntime("t1", sc, log_, a, envs, nil)
	return rt, sc, log_
}

func TestStepTaskAppendsEmptyModelRequest(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.Task, Content: "do it"})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	require.Equal(t, 2, log_.Len())
	mr, _ := log_.At(1)
	require.Equal(t, eventlog.ModelRequest, mr.Type)
	require.Equal(t, "", mr.Content)
}

func TestStepModelRequestHappyPathAppendsModelResponse(t *testing.T) {
	model := &fakeModel{outputs: []string{"<THOUGHT>go</THOUGHT><COMMAND>ls()</COMMAND>"}}
	rt, _, log_ := newTestRuntime(t, model)
	log_.Append(eventlog.Event{Type: eventlog.ModelRequest, Content: ""})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	resp, ok := log_.At(1)
	require.True(t, ok)
	require.Equal(t, eventlog.ModelResponse, resp.Type)
	reply := resp.Content.(ModelReply)
	require.Equal(t, "ls()", reply.Action)
}

func TestStepModelRequestHallucinationReappendsRawOutput(t *testing.T) {
	model := &fakeModel{outputs: []string{"not in the right format"}}
	rt, _, log_ := newTestRuntime(t, model)
	log_.Append(eventlog.Event{Type: eventlog.ModelRequest, Content: ""})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	again, _ := log_.At(1)
	require.Equal(t, eventlog.ModelRequest, again.Type)
	require.Equal(t, "not in the right format", again.Content)
}

func TestStepModelResponseParsesIntoToolRequest(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.ModelResponse, Content: ModelReply{Thought: "t", Action: `create_file("a.txt")`, Output: "raw"}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	req, _ := log_.At(1)
	require.Equal(t, eventlog.ToolRequest, req.Type)
	call := req.Content.(ToolCall)
	require.Equal(t, "create_file", call.Tool)
	require.Equal(t, []string{"a.txt"}, call.Args)
}

func TestStepModelResponseParseErrorAppendsToolResponse(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.ModelResponse, Content: ModelReply{Action: "not a command"}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	resp, _ := log_.At(1)
	require.Equal(t, eventlog.ToolResponse, resp.Type)
}

func TestStepToolRequestTerminalToolAppendsStop(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.ToolRequest, Content: ToolCall{Tool: "submit", Args: []string{"done"}}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	stop, _ := log_.At(1)
	require.Equal(t, eventlog.Stop, stop.Type)
	payload := stop.Content.(StopPayload)
	require.Equal(t, "submit", payload.Type)
	require.Equal(t, "done", payload.Message)
}

func TestStepToolRequestDispatchesToRegisteredTool(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{}, &fakeTool{name: "create_file", output: "created"})
	log_.Append(eventlog.Event{Type: eventlog.ToolRequest, Content: ToolCall{Tool: "create_file", Args: []string{"a.txt"}}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	resp, _ := log_.At(1)
	require.Equal(t, eventlog.ToolResponse, resp.Type)
	require.Equal(t, "created", resp.Content)
}

func TestStepToolRequestUnknownToolFallsThroughToShell(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	local := rt.Environments["local"].(*environment.Local)
	local.SetDefaultTool(&fakeTool{name: "shell", output: "shell output"})

	log_.Append(eventlog.Event{Type: eventlog.ToolRequest, Content: ToolCall{Tool: "mystery_tool", Args: []string{"x"}}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	events := log_.All()
	require.Equal(t, eventlog.ShellRequest, events[1].Type)
	require.Equal(t, eventlog.ShellResponse, events[2].Type)
	require.Equal(t, eventlog.ToolResponse, events[3].Type)
	require.Equal(t, "shell output", events[3].Content)
}

func TestStepToolRequestFallthroughPrependsCommandNameToArgs(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	local := rt.Environments["local"].(*environment.Local)
	shell := &fakeTool{name: "shell"}
	local.SetDefaultTool(shell)

	log_.Append(eventlog.Event{Type: eventlog.ToolRequest, Content: ToolCall{Tool: "grep", Args: []string{"foo", "bar"}}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	require.Equal(t, []string{"grep", "foo", "bar"}, shell.lastArgs)
}

func TestStepToolResponseAppendsModelRequest(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.ToolResponse, Content: "ok"})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	mr, _ := log_.At(1)
	require.Equal(t, eventlog.ModelRequest, mr.Type)
	require.Equal(t, "ok", mr.Content)
}

func TestStepInterruptQueuesOntoAgentWithoutNewEvent(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.Interrupt, Content: "look at this"})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	require.Equal(t, 1, log_.Len())
	require.True(t, rt.Agent.HasPendingInterrupt())
}

func TestStepErrorAppendsStop(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.Error, Content: "boom"})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	stop, _ := log_.At(1)
	require.Equal(t, eventlog.Stop, stop.Type)
	payload := stop.Content.(StopPayload)
	require.Equal(t, "error", payload.Type)
}

func TestStepStopNonSubmitTerminatesLoop(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.Stop, Content: StopPayload{Type: "exit"}})
	ev, _ := log_.At(0)

	require.False(t, rt.step(context.Background(), ev))
}

func TestStepStopSubmitAppendsNewTask(t *testing.T) {
	rt, sc, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.Stop, Content: StopPayload{Type: "submit"}})
	ev, _ := log_.At(0)

	require.True(t, rt.step(context.Background(), ev))
	task, _ := log_.At(1)
	require.Equal(t, eventlog.Task, task.Type)
	require.Contains(t, sc.Task, "ask user for revisions")
}

func TestRunTerminatesOnStopEvent(t *testing.T) {
	rt, _, log_ := newTestRuntime(t, &fakeModel{})
	log_.Append(eventlog.Event{Type: eventlog.Stop, Content: StopPayload{Type: "exit"}})
	rt.setStatus(StatusRunning)

	done := make(chan struct{})
	go func() {
		rt.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	require.Equal(t, StatusTerminated, rt.Status())
}
