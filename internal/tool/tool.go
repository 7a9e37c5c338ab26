// Package tool provides the tool contract dispatched by environments and
// invoked by the agent's parsed commands (spec §4.2, §9).
package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/theseusxyz/theseus/internal/eventlog"
)

// ErrNotFound is returned by a Registry when no tool is registered under
// the requested name.
var ErrNotFound = errors.New("tool: not found")

// Executor is the narrow capability a Context needs from whatever
// Environment owns it: running a command and getting output back. It is
// defined here (rather than importing internal/environment) so that
// internal/environment can depend on internal/tool without a cycle.
type Executor interface {
	Execute(ctx context.Context, cmd string, timeoutSeconds int) (output string, exitCode int, err error)
}

// Context is the explicit record passed to every tool invocation (spec
// §9: "pass context as an explicit record; do not rely on closure
// capture"). It carries the environment, session state and the event
// log a tool's function needs.
type Context struct {
	SessionID   string
	Environment Executor
	EventLog    *eventlog.Log
	State       map[string]any
	WorkDir     string
	Extra       map[string]any
}

// Tool is a named operation with setup/cleanup/documentation/function,
// matching the original Python Tool ABC (theseus_agent/tool.py) folded
// into the teacher's Go Tool shape.
type Tool interface {
	// Name is the identifier the agent's parsed command dispatches by.
	Name() string

	// Setup is called once when the owning environment starts up.
	Setup(ctx context.Context, tc *Context) error

	// Cleanup is called once when the owning environment tears down.
	Cleanup(ctx context.Context, tc *Context) error

	// Documentation is the prompt-facing description of the tool's
	// usage, included in the agent's system prompt.
	Documentation() string

	// Function performs the tool's action and returns the observation
	// text surfaced back to the model.
	Function(ctx context.Context, tc *Context, args []string) (string, error)
}

// Hook runs before or after a tool's Function.
type Hook func(ctx context.Context, tc *Context, args []string)

// Hooked wraps a Tool with pre/post hooks, mirroring the original's
// register_pre_hook/register_post_hook plus __call__ wrapper.
type Hooked struct {
	Tool
	preHooks  []Hook
	postHooks []Hook
}

// NewHooked wraps a tool so hooks can be attached.
func NewHooked(t Tool) *Hooked {
	return &Hooked{Tool: t}
}

// RegisterPreHook adds a hook run before Function.
func (h *Hooked) RegisterPreHook(fn Hook) {
	h.preHooks = append(h.preHooks, fn)
}

// RegisterPostHook adds a hook run after Function.
func (h *Hooked) RegisterPostHook(fn Hook) {
	h.postHooks = append(h.postHooks, fn)
}

// Function runs pre-hooks, the wrapped tool's Function, then post-hooks.
func (h *Hooked) Function(ctx context.Context, tc *Context, args []string) (string, error) {
	for _, hook := range h.preHooks {
		hook(ctx, tc, args)
	}
	out, err := h.Tool.Function(ctx, tc, args)
	for _, hook := range h.postHooks {
		hook(ctx, tc, args)
	}
	return out, err
}

// Registry dispatches tools by name within one environment.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, keyed by its Name().
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// RegisterAll registers every tool in the map, keyed by its Name().
func (r *Registry) RegisterAll(tools map[string]Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Names returns every registered tool name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// SetupAll runs Setup on every registered tool.
func (r *Registry) SetupAll(ctx context.Context, tc *Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, t := range r.tools {
		if err := t.Setup(ctx, tc); err != nil {
			return fmt.Errorf("tool %s setup: %w", name, err)
		}
	}
	return nil
}

// CleanupAll runs Cleanup on every registered tool, collecting errors.
func (r *Registry) CleanupAll(ctx context.Context, tc *Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var firstErr error
	for name, t := range r.tools {
		if err := t.Cleanup(ctx, tc); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tool %s cleanup: %w", name, err)
		}
	}
	return firstErr
}
