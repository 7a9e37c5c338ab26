package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	lastCmd string
	output  string
	exit    int
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd string, timeoutSeconds int) (string, int, error) {
	f.lastCmd = cmd
	return f.output, f.exit, nil
}

func TestRegistryGetMissingReturnsErrNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	shell := NewShellTool()
	r.Register(shell)

	got, err := r.Get("shell_tool")
	require.NoError(t, err)
	require.Equal(t, shell, got)
	require.Contains(t, r.Names(), "shell_tool")
}

func TestShellToolJoinsNameAndArgs(t *testing.T) {
	exec := &fakeExecutor{output: "ok"}
	tc := &Context{Environment: exec}
	out, err := NewShellTool().Function(context.Background(), tc, []string{"echo", "hi", "there"})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, "echo hi there", exec.lastCmd)
}

func TestHookedRunsPreAndPostHooks(t *testing.T) {
	exec := &fakeExecutor{output: "ok"}
	tc := &Context{Environment: exec}
	h := NewHooked(NewShellTool())

	var order []string
	h.RegisterPreHook(func(ctx context.Context, tc *Context, args []string) { order = append(order, "pre") })
	h.RegisterPostHook(func(ctx context.Context, tc *Context, args []string) { order = append(order, "post") })

	_, err := h.Function(context.Background(), tc, []string{"pwd"})
	require.NoError(t, err)
	require.Equal(t, []string{"pre", "post"}, order)
}

func TestRegistrySetupAllPropagatesError(t *testing.T) {
	r := NewRegistry()
	r.Register(&failingSetupTool{})
	err := r.SetupAll(context.Background(), &Context{})
	require.Error(t, err)
}

type failingSetupTool struct{}

func (failingSetupTool) Name() string                                       { return "failing" }
func (failingSetupTool) Setup(ctx context.Context, tc *Context) error       { return errNotFoundSentinel }
func (failingSetupTool) Cleanup(ctx context.Context, tc *Context) error     { return nil }
func (failingSetupTool) Documentation() string                             { return "" }
func (failingSetupTool) Function(ctx context.Context, tc *Context, args []string) (string, error) {
	return "", nil
}

var errNotFoundSentinel = ErrNotFound
