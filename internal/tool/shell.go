package tool

import (
	"context"
	"strings"
)

// ShellTool is the default fallback tool for an environment: when the
// agent emits a command whose name is not a registered tool, the runtime
// dispatches it here, joining the name back with its arguments and
// executing the whole line in the owning environment. Grounded on
// theseus_agent/tools/shelltool.py.
type ShellTool struct{}

// NewShellTool constructs the default shell fallback tool.
func NewShellTool() *ShellTool {
	return &ShellTool{}
}

func (t *ShellTool) Name() string { return "shell_tool" }

func (t *ShellTool) Setup(ctx context.Context, tc *Context) error { return nil }

func (t *ShellTool) Cleanup(ctx context.Context, tc *Context) error { return nil }

func (t *ShellTool) Documentation() string {
	return "Default tool for shell environments: executes the command line verbatim in the environment."
}

// Function re-joins fnName and args into a single shell command line and
// executes it in the environment carried by tc.
func (t *ShellTool) Function(ctx context.Context, tc *Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	fnName := args[0]
	rest := args[1:]
	line := fnName
	if len(rest) > 0 {
		line = fnName + " " + strings.Join(rest, " ")
	}
	output, _, err := tc.Environment.Execute(ctx, line, 25)
	if err != nil {
		return output, err
	}
	return output, nil
}
