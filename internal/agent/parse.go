package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/versioning"
)

// ParseCommand parses a model-emitted action into a tool name and its
// positional arguments: `name(arg, "quoted arg", ...)`. Grounded on the
// call shape original_source/theseus_agent/tools.parse_command is used
// with in conversational_agent.py and session.py (the source file itself
// was not part of the retrieved original_source filter).
func ParseCommand(action string) (name string, args []string, err error) {
	action = strings.TrimSpace(action)
	open := strings.IndexByte(action, '(')
	if open < 0 || !strings.HasSuffix(action, ")") {
		return "", nil, fmt.Errorf("agent: could not parse command %q", action)
	}
	name = strings.TrimSpace(action[:open])
	if name == "" {
		return "", nil, fmt.Errorf("agent: missing tool name in %q", action)
	}
	args, err = splitArgs(action[open+1 : len(action)-1])
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

// splitArgs splits a command's argument body on top-level commas,
// respecting single- and double-quoted spans.
func splitArgs(body string) ([]string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}

	var args []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("agent: unterminated quote in %q", body)
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args, nil
}

// MaybeScheduleCheckpoint commits and records a Checkpoint when the
// parsed command is ask_user with a commit-message argument and
// versioning is enabled (spec §4.3; SPEC_FULL.md SUPPLEMENTED FEATURES
// #5), grounded on conversational_agent.py's `if toolname == "ask_user"
// and len(args) == 2`.
func MaybeScheduleCheckpoint(ctx context.Context, sc *config.SessionConfig, log *eventlog.Log, eventID int, toolName string, args []string) {
	if toolName != "ask_user" || len(args) != 2 || sc.VersioningType != config.VersioningGit {
		return
	}
	checkpoint := versioning.MakeCheckpoint(ctx, sc.Path, sc, args[1], eventID)
	sc.Checkpoints = append(sc.Checkpoints, checkpoint)
	log.Append(eventlog.Event{
		Type:     eventlog.Checkpoint,
		Content:  checkpoint.CheckpointID,
		Producer: "theseus",
		Consumer: "user",
	})
}
