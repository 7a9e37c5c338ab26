package agent

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/provider"
)

// Sentinel values Predict returns in place of an error (spec §4.3, §4.4):
// the session event loop branches on these rather than on a Go error,
// matching conversational_agent.py's ("error", "error", "error") /
// ("hallucination", "hallucination", msg) return-tuple convention.
const (
	SentinelError         = "error"
	SentinelHallucination = "hallucination"
)

// SessionView is the explicit, read-only record of session state Predict
// needs (spec §9: "pass context as an explicit record; do not rely on
// closure capture"). The caller renders CommandDocs once per call from
// whatever environments/tools are registered, keeping this package free
// of a dependency on internal/tool or internal/environment.
type SessionView struct {
	Cwd         string
	Path        string
	CommandDocs string
}

// Agent predicts the next (thought, action, raw_output) triple for one
// named agent slot in a session, grounded on
// original_source/theseus_agent/agents/conversational_agent.py's
// ConversationalAgent.
type Agent struct {
	Name          string
	model         provider.Model
	agentConfig   *config.AgentConfig
	sessionConfig *config.SessionConfig
	interrupt     string
}

// New constructs an Agent bound to one AgentConfig slot within a
// SessionConfig and the Model that will answer its prompts.
func New(name string, agentConfig *config.AgentConfig, sessionConfig *config.SessionConfig, model provider.Model) *Agent {
	return &Agent{
		Name:          name,
		model:         model,
		agentConfig:   agentConfig,
		sessionConfig: sessionConfig,
	}
}

// interruptJoin is the exact phrase session.py's step_event splices
// between two interrupts that arrive before either is consumed
// (SPEC_FULL.md SUPPLEMENTED FEATURES #6).
const interruptJoin = "You have been interrupted, pay attention to this message "

// QueueInterrupt appends an interrupt message onto the pending buffer
// Predict consumes on its next call (spec §4.4 "Interrupt": "append the
// provided message onto the Agent's pending interrupt buffer
// (concatenating if one already exists)").
func (a *Agent) QueueInterrupt(message string) {
	if a.interrupt == "" {
		a.interrupt = message
		return
	}
	a.interrupt = a.interrupt + " " + interruptJoin + " " + message
}

// HasPendingInterrupt reports whether an interrupt is queued but not
// yet consumed by Predict.
func (a *Agent) HasPendingInterrupt() bool {
	return a.interrupt != ""
}

// Reset clears chat history, the pending interrupt and the scratchpad,
// grounded on ConversationalAgent.reset.
func (a *Agent) Reset() {
	a.agentConfig.ChatHistory = nil
	a.interrupt = ""
	a.sessionConfig.State.Scratchpad = ""
}

// Predict builds a prompt from task/observation/session state, queries
// the model, and parses the reply. eventID is the event log index the
// triggering ModelRequest was read at, used to stamp any Checkpoint
// scheduled by an ask_user call.
func (a *Agent) Predict(ctx context.Context, task, observation string, view SessionView, log_ *eventlog.Log, eventID int) (thought, action, output string) {
	if a.interrupt != "" {
		observation = observation + ". also YOU HAVE BEEN **INTERRUPTED**. You got the following message :   " + a.interrupt + "   : **INTERRUPTED**"
		a.interrupt = ""
	}

	a.agentConfig.ChatHistory = append(a.agentConfig.ChatHistory, config.ChatMessage{Role: "user", Content: observation})

	promptType := a.agentConfig.PromptType
	if promptType == "" {
		promptType = DefaultPromptFamily(a.agentConfig.Model)
		a.agentConfig.PromptType = promptType
	}
	builder, ok := promptBuilders[promptType]
	if !ok {
		builder = buildAnthropicPrompt
	}

	editor := ConvertEditorToView(a.sessionConfig.State.EditorView, pageSize(a.sessionConfig))
	messages, systemPrompt := builder(promptInput{
		Task:        task,
		History:     a.agentConfig.ChatHistory,
		Editor:      editor,
		Cwd:         view.Cwd,
		Path:        view.Path,
		CommandDocs: view.CommandDocs,
		Scratchpad:  a.sessionConfig.State.Scratchpad,
	})

	raw, err := a.model.Query(ctx, messages, systemPrompt)
	if err != nil {
		var rl *provider.RateLimitError
		if errors.As(err, &rl) {
			log_.Append(eventlog.Event{Type: eventlog.RateLimit, Content: observation, Producer: a.Name})
		} else {
			log_.Append(eventlog.Event{Type: eventlog.Error, Content: err.Error(), Producer: a.Name})
		}
		return SentinelError, SentinelError, SentinelError
	}

	thought, action, scratchpad, ok := ParseResponse(raw)
	if !ok {
		// The runtime re-appends a ModelRequest carrying this raw text
		// (spec §4.4 "on hallucination re-append ModelRequest with the
		// raw output so the model sees its own malformed reply"), so the
		// third element must be the model's actual text, not a fixed
		// message.
		return SentinelHallucination, SentinelHallucination, raw
	}

	if toolName, args, perr := ParseCommand(action); perr == nil {
		MaybeScheduleCheckpoint(ctx, a.sessionConfig, log_, eventID, toolName, args)
	}
	if scratchpad != "" {
		a.sessionConfig.State.Scratchpad = scratchpad
	}

	a.agentConfig.ChatHistory = append(a.agentConfig.ChatHistory, config.ChatMessage{Role: "assistant", Content: raw})

	log.Info().Str("agent", a.Name).Str("thought", thought).Str("action", action).Msg("predicted")

	return thought, action, raw
}

func pageSize(sc *config.SessionConfig) int {
	if v, ok := sc.State.Extra["PAGE_SIZE"].(int); ok && v > 0 {
		return v
	}
	return config.DefaultPageSize
}
