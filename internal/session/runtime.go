// Package session implements the session runtime: the single-threaded
// cooperative event loop of spec §4.4, its lifecycle control surface
// (spec §6.1), and the supporting concerns (ignore-file loading, git
// error suspension) that sit around it.
package session

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/theseusxyz/theseus/internal/agent"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/environment"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/logging"
	"github.com/theseusxyz/theseus/internal/versioning"
)

// Status is the runtime's cooperative scheduling state (spec §4.4, §5).
type Status string

const (
	StatusRunning     Status = "running"
	StatusPaused      Status = "paused"
	StatusTerminating Status = "terminating"
	StatusTerminated  Status = "terminated"
)

// pausePoll and catchUpPoll match spec §4.4 ("a paused status causes the
// loop to poll every 2s") and the implicit wait for new appends once the
// loop catches up to the end of the log.
const (
	pausePoll   = 2 * time.Second
	catchUpPoll = 100 * time.Millisecond
)

// terminalTools are the tool names whose invocation ends the session
// (spec §4.4 ToolRequest row).
var terminalTools = map[string]struct{}{
	"submit":     {},
	"exit":       {},
	"stop":       {},
	"exit_error": {},
	"exit_api":   {},
}

// ToolCall is the ModelResponse-derived payload of a ToolRequest event.
type ToolCall struct {
	Tool string   `json:"tool"`
	Args []string `json:"args"`
}

// ModelReply is the ModelResponse event payload (spec §4.4: "append
// ModelResponse carrying JSON of {thought, action, output}").
type ModelReply struct {
	Thought string `json:"thought"`
	Action  string `json:"action"`
	Output  string `json:"output"`
}

// StopPayload is the Stop event payload (spec §4.4/§7).
type StopPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Telemetry is the out-of-scope telemetry collaborator named by spec §1
// ("telemetry... external collaborators with named interfaces only").
// A nil Telemetry on Runtime is a valid no-op.
type Telemetry interface {
	Capture(event string, props map[string]any)
}

// Runtime drives one session's event loop. It owns no HTTP or
// persistence concerns directly; Service wires those around it.
type Runtime struct {
	Name   string
	Config *config.SessionConfig
	Log    *eventlog.Log
	Agent  *agent.Agent

	Environments       map[string]environment.Environment
	DefaultEnvironment string

	Resolver  versioning.Resolver
	Telemetry Telemetry

	log zerolog.Logger

	statusMu sync.RWMutex
	status   Status

	eventID int

	terminatedCh chan struct{}
	closeOnce    sync.Once
}

// NewRuntime constructs a Runtime wired to the given collaborators,
// starting its loop position at event_id 0.
func NewRuntime(name string, sc *config.SessionConfig, log_ *eventlog.Log, a *agent.Agent, envs map[string]environment.Environment, resolver versioning.Resolver) *Runtime {
	return NewRuntimeAt(name, sc, log_, a, envs, resolver, 0)
}

// NewRuntimeAt is NewRuntime plus an explicit starting event_id, used to
// resume a restored session exactly where its loop last left off
// (spec §6.4 round-trip).
func NewRuntimeAt(name string, sc *config.SessionConfig, log_ *eventlog.Log, a *agent.Agent, envs map[string]environment.Environment, resolver versioning.Resolver, eventID int) *Runtime {
	return &Runtime{
		Name:               name,
		Config:             sc,
		Log:                log_,
		Agent:              a,
		Environments:       envs,
		DefaultEnvironment: sc.DefaultEnvironment,
		Resolver:           resolver,
		log:                logging.Session(name),
		status:             StatusPaused,
		eventID:            eventID,
		terminatedCh:       make(chan struct{}),
	}
}

// Status returns the runtime's current scheduling state.
func (r *Runtime) Status() Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func (r *Runtime) setStatus(s Status) {
	r.statusMu.Lock()
	r.status = s
	r.statusMu.Unlock()
}

// EventID returns the index the loop is currently positioned at.
func (r *Runtime) EventID() int {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.eventID
}

// Pause toggles the runtime to paused (spec §6.1 pause/resume).
func (r *Runtime) Pause() { r.setStatus(StatusPaused) }

// Resume toggles the runtime back to running.
func (r *Runtime) Resume() { r.setStatus(StatusRunning) }

// Terminate requests termination and blocks until the loop reaches
// terminated (spec §5: "terminate() sets status terminating and spins
// until terminated").
func (r *Runtime) Terminate() {
	if r.Status() == StatusTerminated {
		return
	}
	r.setStatus(StatusTerminating)
	<-r.terminatedCh
}

// markTerminated closes terminatedCh exactly once so concurrent
// Terminate callers all unblock.
func (r *Runtime) markTerminated() {
	r.setStatus(StatusTerminated)
	r.closeOnce.Do(func() { close(r.terminatedCh) })
}

// GitSetup runs one versioning action, matching spec §6.1's
// create/start/reset dispatch ("start loop with action=new/load/reset").
func (r *Runtime) GitSetup(ctx context.Context, action string) versioning.Outcome {
	switch action {
	case "new":
		return versioning.New(ctx, r.Config.Path, r.Config, r.Resolver)
	case "load":
		return versioning.Load(ctx, r.Config.Path, r.Config, r.Resolver)
	case "reset":
		return versioning.Reset(ctx, r.Config.Path, r.Config, r.Resolver)
	case "teardown":
		return versioning.Teardown(ctx, r.Config.Path, r.Config)
	default:
		return versioning.OutcomeSuccess
	}
}

// Start runs git_setup(action) (skipped when action is empty, e.g.
// revert's "skips git_setup") then enters the event loop. It returns
// once the runtime reaches terminated; callers that want a background
// worker should invoke this in its own goroutine (spec §5: "each
// session owns one long-running worker").
func (r *Runtime) Start(ctx context.Context, action string) {
	if action != "" {
		outcome := r.GitSetup(ctx, action)
		if outcome != versioning.OutcomeSuccess {
			r.Log.Append(eventlog.Event{Type: eventlog.GitCorrupted, Content: string(outcome), Producer: "runtime"})
			r.markTerminated()
			return
		}
	}
	if r.Telemetry != nil {
		r.Telemetry.Capture("session_start", map[string]any{"name": r.Name, "action": action})
	}
	r.setStatus(StatusRunning)
	r.Run(ctx)
}

// Run executes the event loop from the runtime's current event_id
// (spec §4.4), returning when status reaches terminated.
func (r *Runtime) Run(ctx context.Context) {
	defer func() {
		if r.Telemetry != nil {
			r.Telemetry.Capture("session_stop", map[string]any{"name": r.Name})
		}
	}()
	defer r.closeOnce.Do(func() { close(r.terminatedCh) })

	for {
		switch r.Status() {
		case StatusTerminating:
			r.setStatus(StatusTerminated)
			return
		case StatusTerminated:
			return
		case StatusPaused:
			if !r.sleepInterruptible(ctx, pausePoll) {
				r.setStatus(StatusTerminated)
				return
			}
			continue
		}

		if r.eventID >= r.Log.Len() {
			if !r.sleepInterruptible(ctx, catchUpPoll) {
				r.setStatus(StatusTerminated)
				return
			}
			continue
		}

		ev, ok := r.Log.At(r.eventID)
		if !ok {
			continue
		}

		if !r.step(ctx, ev) {
			r.setStatus(StatusTerminated)
			return
		}
		r.eventID++
	}
}

// sleepInterruptible waits for d, waking early (and returning false) if
// ctx is cancelled or status transitions to terminating, matching spec
// §5's "all [suspension points] are cancellable by a terminating
// transition, which is checked... during the rate-limit sleep."
func (r *Runtime) sleepInterruptible(ctx context.Context, d time.Duration) bool {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return true
		case <-ticker.C:
			if r.Status() == StatusTerminating {
				return false
			}
		}
	}
}

// step dispatches one event per the spec §4.4 table. It returns false
// for the "Stop with type != submit" row and when a RateLimit sleep is
// cut short, signalling Run to set terminated and exit immediately
// rather than advance event_id.
func (r *Runtime) step(ctx context.Context, ev eventlog.Event) bool {
	switch ev.Type {
	case eventlog.Task:
		r.Log.Append(eventlog.Event{Type: eventlog.ModelRequest, Content: "", Producer: "runtime"})

	case eventlog.ModelRequest:
		r.stepModelRequest(ctx, ev)

	case eventlog.ModelResponse:
		r.stepModelResponse(ev)

	case eventlog.ToolRequest:
		r.stepToolRequest(ctx, ev)

	case eventlog.ToolResponse:
		r.Log.Append(eventlog.Event{Type: eventlog.ModelRequest, Content: contentString(ev.Content), Producer: "runtime"})

	case eventlog.RateLimit:
		if !r.sleepInterruptible(ctx, 60*time.Second) {
			return false
		}
		r.Log.Append(eventlog.Event{Type: eventlog.ModelRequest, Content: ev.Content, Producer: "runtime"})

	case eventlog.Interrupt:
		msg, _ := ev.Content.(string)
		if r.Agent.HasPendingInterrupt() {
			r.log.Info().Msg("concatenating interrupt onto pending buffer")
		}
		r.Agent.QueueInterrupt(msg)

	case eventlog.Error:
		r.Log.Append(eventlog.Event{Type: eventlog.Stop, Content: StopPayload{Type: "error", Message: contentString(ev.Content)}, Producer: "runtime"})

	case eventlog.Stop:
		return r.stepStop(ev)
	}
	return true
}

func (r *Runtime) stepModelRequest(ctx context.Context, ev eventlog.Event) {
	r.refreshEditorFiles()

	observation := contentString(ev.Content)
	view := agent.SessionView{
		Cwd:         r.Config.Path,
		Path:        r.Config.Path,
		CommandDocs: r.commandDocs(),
	}

	thought, action, output := r.Agent.Predict(ctx, r.Config.Task, observation, view, r.Log, ev.Index)
	switch thought {
	case agent.SentinelHallucination:
		r.Log.Append(eventlog.Event{Type: eventlog.ModelRequest, Content: output, Producer: "runtime"})
	case agent.SentinelError:
		// Predict already appended RateLimit/Error; loop quietly.
	default:
		r.Log.Append(eventlog.Event{
			Type:     eventlog.ModelResponse,
			Content:  ModelReply{Thought: thought, Action: action, Output: output},
			Producer: r.Agent.Name,
		})
	}
}

func (r *Runtime) stepModelResponse(ev eventlog.Event) {
	reply, ok := ev.Content.(ModelReply)
	if !ok {
		r.Log.Append(eventlog.Event{Type: eventlog.Error, Content: "session: malformed ModelResponse content", Producer: "runtime"})
		return
	}
	name, args, err := agent.ParseCommand(reply.Action)
	if err != nil {
		r.Log.Append(eventlog.Event{Type: eventlog.ToolResponse, Content: err.Error(), Producer: "runtime"})
		return
	}
	r.Log.Append(eventlog.Event{Type: eventlog.ToolRequest, Content: ToolCall{Tool: name, Args: args}, Producer: "runtime"})
}

func (r *Runtime) stepToolRequest(ctx context.Context, ev eventlog.Event) {
	call, ok := ev.Content.(ToolCall)
	if !ok {
		r.Log.Append(eventlog.Event{Type: eventlog.Error, Content: "session: malformed ToolRequest content", Producer: "runtime"})
		return
	}

	if _, terminal := terminalTools[call.Tool]; terminal {
		msg := ""
		if len(call.Args) > 0 {
			msg = call.Args[0]
		}
		r.Log.Append(eventlog.Event{Type: eventlog.Stop, Content: StopPayload{Type: call.Tool, Message: msg}, Producer: "runtime"})
		return
	}

	r.dispatchTool(ctx, call)
}

func (r *Runtime) stepStop(ev eventlog.Event) bool {
	payload, ok := ev.Content.(StopPayload)
	if !ok {
		payload = StopPayload{Type: "error", Message: contentString(ev.Content)}
	}
	if payload.Type != "submit" {
		return false
	}
	r.Config.Task = "you have completed your task, ask user for revisions or a new one"
	r.Log.Append(eventlog.Event{Type: eventlog.Task, Content: r.Config.Task, Producer: "runtime"})
	return true
}

func contentString(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	return ""
}

// commandDocs renders every registered tool's Documentation() across
// every environment, sorted by tool name for determinism (the teacher's
// analogue to Python dict iteration order, which Go maps lack).
func (r *Runtime) commandDocs() string {
	seen := make(map[string]string)
	for _, env := range r.Environments {
		for _, name := range env.ToolNames() {
			if t, found := env.Tool(name); found {
				seen[name] = t.Documentation()
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(seen[name])
		b.WriteString("\n")
	}
	return b.String()
}
