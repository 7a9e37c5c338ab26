package tool

import (
	"context"
	"strings"
)

// AskUserTool is registered on the user environment. Its first argument
// is the question surfaced to the user; an optional second argument is a
// commit message, which the agent (internal/agent.Predict) uses as the
// signal to schedule a Checkpoint when versioning is enabled (spec §4.3,
// §4.5.2). The tool itself just forwards the question to the blocking
// user environment and returns the response text; checkpoint scheduling
// lives in the agent, not here, since only the agent sees the versioning
// configuration. Grounded on theseus_agent/session.py's
// AskUserToolWithCommit wiring.
type AskUserTool struct{}

// NewAskUserTool constructs the ask_user tool.
func NewAskUserTool() *AskUserTool {
	return &AskUserTool{}
}

func (t *AskUserTool) Name() string { return "ask_user" }

func (t *AskUserTool) Setup(ctx context.Context, tc *Context) error { return nil }

func (t *AskUserTool) Cleanup(ctx context.Context, tc *Context) error { return nil }

func (t *AskUserTool) Documentation() string {
	return "ask_user(question, commit_message?): ask the user a question and block for their reply. " +
		"If a commit_message is supplied and versioning is enabled, a checkpoint is recorded first."
}

func (t *AskUserTool) Function(ctx context.Context, tc *Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	question := args[0]
	output, _, err := tc.Environment.Execute(ctx, strings.TrimSpace(question), 0)
	if err != nil {
		return output, err
	}
	return output, nil
}
