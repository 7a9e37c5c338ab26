// Package environment implements the polymorphic execution targets a
// Session dispatches tools into: a persistent local shell, a blocking
// user-input environment, and an optional container variant (spec §4.2).
package environment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/tool"
)

// Environment is the contract every variant implements: setup/teardown
// lifecycle, command execution, and a tool registry with a default
// fallback tool (spec §2, §4.2).
type Environment interface {
	// Name identifies the environment variant ("local", "user_environment",
	// "container").
	Name() string

	// Setup prepares the environment for use.
	Setup(ctx context.Context) error

	// Teardown releases the environment's resources.
	Teardown(ctx context.Context) error

	// Execute runs cmd and returns its combined output and exit code.
	// Every call appends an EnvironmentRequest event before and an
	// EnvironmentResponse event after (the user environment appends
	// UserRequest and UserResponse instead).
	Execute(ctx context.Context, cmd string, timeoutSeconds int) (output string, exitCode int, err error)

	// RegisterTools adds tools dispatched by this environment.
	RegisterTools(tools map[string]tool.Tool)

	// SetDefaultTool sets the tool invoked when a command name has no
	// registered tool (spec §7 "Tool-not-found").
	SetDefaultTool(t tool.Tool)

	// DefaultTool returns the fallback tool, or nil if none is set.
	DefaultTool() tool.Tool

	// Tool looks up a tool registered on this environment by name.
	Tool(name string) (tool.Tool, bool)

	// ToolNames lists every tool name registered on this environment,
	// used to render the agent's command documentation (spec §4.3).
	ToolNames() []string

	// Save serializes environment-variant-specific state for persistence
	// (spec §6.4): {type, path, cwd, old_dir, ...}.
	Save() map[string]any
}

// Base provides the tool registry plumbing shared by every variant, so
// concrete environments only need to implement Execute/Setup/Teardown.
type Base struct {
	EventLog    *eventlog.Log
	tools       map[string]tool.Tool
	defaultTool tool.Tool
}

// NewBase constructs a Base wired to the given event log.
func NewBase(log *eventlog.Log) Base {
	return Base{EventLog: log, tools: make(map[string]tool.Tool)}
}

func (b *Base) RegisterTools(tools map[string]tool.Tool) {
	if b.tools == nil {
		b.tools = make(map[string]tool.Tool)
	}
	for name, t := range tools {
		b.tools[name] = t
	}
}

func (b *Base) SetDefaultTool(t tool.Tool) { b.defaultTool = t }

func (b *Base) DefaultTool() tool.Tool { return b.defaultTool }

func (b *Base) Tool(name string) (tool.Tool, bool) {
	t, ok := b.tools[name]
	return t, ok
}

func (b *Base) ToolNames() []string {
	names := make([]string, 0, len(b.tools))
	for name := range b.tools {
		names = append(names, name)
	}
	return names
}

// appendRequest appends an EnvironmentRequest event, matching the
// original's execute() wrapping (shell_environment.py, user_environment.py).
func (b *Base) appendRequest(name, content string) {
	if b.EventLog == nil {
		return
	}
	b.EventLog.Append(eventlog.Event{
		Type:     eventlog.EnvironmentRequest,
		Content:  content,
		Producer: "tool",
		Consumer: name,
	})
}

// appendResponse appends an EnvironmentResponse event.
func (b *Base) appendResponse(name string, content any) {
	if b.EventLog == nil {
		return
	}
	b.EventLog.Append(eventlog.Event{
		Type:     eventlog.EnvironmentResponse,
		Content:  content,
		Producer: name,
		Consumer: "tool",
	})
}

// ErrCrashed signals a fatal environment failure (spec §4.2, §7: "Shell
// environment crash: fatal; terminate the session").
type ErrCrashed struct {
	Environment string
	Cause       error
}

func (e *ErrCrashed) Error() string {
	return fmt.Sprintf("environment %s crashed: %v", e.Environment, e.Cause)
}

func (e *ErrCrashed) Unwrap() error { return e.Cause }

func logErrorf(format string, args ...any) {
	log.Error().Msgf(format, args...)
}
