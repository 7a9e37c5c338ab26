package session

import (
	"context"
	"fmt"

	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/tool"
)

// dispatchTool implements spec §4.4's ToolRequest fallthrough: locate
// the environment owning tool_name, invoke it, append ToolResponse; on
// "not found" fall through to the default environment's default tool
// (the shell), wrapping the call in ShellRequest/ShellResponse.
func (r *Runtime) dispatchTool(ctx context.Context, call ToolCall) {
	if env, t, ok := r.findTool(call.Tool); ok {
		out, err := t.Function(ctx, r.toolContext(env), call.Args)
		if err != nil {
			out = err.Error()
		}
		r.Log.Append(eventlog.Event{Type: eventlog.ToolResponse, Content: out, Producer: call.Tool})
		return
	}
	r.dispatchDefaultTool(ctx, call)
}

func (r *Runtime) findTool(name string) (env environmentHandle, t tool.Tool, ok bool) {
	for envName, e := range r.Environments {
		if found, exists := e.Tool(name); exists {
			return environmentHandle{name: envName, env: e}, found, true
		}
	}
	return environmentHandle{}, nil, false
}

// dispatchDefaultTool handles spec §7's "Tool-not-found" recovery: the
// default environment's default tool (normally the shell) runs the raw
// command, bracketed by ShellRequest/ShellResponse events (around any
// EnvironmentRequest/EnvironmentResponse pair the environment's own
// Execute appends) and followed by a ToolResponse.
func (r *Runtime) dispatchDefaultTool(ctx context.Context, call ToolCall) {
	env, ok := r.Environments[r.DefaultEnvironment]
	if !ok {
		r.Log.Append(eventlog.Event{
			Type:     eventlog.ToolResponse,
			Content:  fmt.Sprintf("tool %q not found and no default environment configured", call.Tool),
			Producer: "runtime",
		})
		return
	}
	defaultTool := env.DefaultTool()
	if defaultTool == nil {
		r.Log.Append(eventlog.Event{
			Type:     eventlog.ToolResponse,
			Content:  fmt.Sprintf("tool %q not found and default environment has no default tool", call.Tool),
			Producer: "runtime",
		})
		return
	}

	cmd := renderShellCommand(call)
	r.Log.Append(eventlog.Event{Type: eventlog.ShellRequest, Content: cmd, Producer: "runtime"})
	args := append([]string{call.Tool}, call.Args...)
	out, err := defaultTool.Function(ctx, r.toolContext(environmentHandle{name: r.DefaultEnvironment, env: env}), args)
	if err != nil {
		out = err.Error()
	}
	r.Log.Append(eventlog.Event{Type: eventlog.ShellResponse, Content: out, Producer: r.DefaultEnvironment})
	r.Log.Append(eventlog.Event{Type: eventlog.ToolResponse, Content: out, Producer: r.DefaultEnvironment})
}

// renderShellCommand reconstructs the function-call text so the shell
// fallback's ShellRequest event shows what the model actually asked for.
func renderShellCommand(call ToolCall) string {
	cmd := call.Tool + "("
	for i, a := range call.Args {
		if i > 0 {
			cmd += ", "
		}
		cmd += a
	}
	return cmd + ")"
}

type environmentHandle struct {
	name string
	env  interface {
		Execute(ctx context.Context, cmd string, timeoutSeconds int) (string, int, error)
	}
}

// toolContext builds the explicit tool.Context record (spec §9) for one
// invocation against the given environment.
func (r *Runtime) toolContext(h environmentHandle) *tool.Context {
	return &tool.Context{
		SessionID:   r.Name,
		Environment: h.env,
		EventLog:    r.Log,
		State:       r.Config.State.Extra,
		WorkDir:     r.Config.Path,
		Extra:       map[string]any{"environment": h.name},
	}
}
