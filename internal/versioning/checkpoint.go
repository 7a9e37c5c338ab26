package versioning

import (
	"context"
	"fmt"

	"github.com/lithammer/shortuuid/v3"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
)

// NewCheckpointID returns an 8-char opaque checkpoint identifier (spec §3).
func NewCheckpointID() string {
	return shortuuid.New()[:8]
}

// NewCheckpoint snapshots the session's current chat history and state
// by value (spec §9 "Checkpoint deep copies": subsequent mutation must
// not retroactively alter history).
func NewCheckpoint(commitHash, commitMessage string, eventID int, history []config.ChatMessage, state config.SessionState, author config.CheckpointAuthor) config.Checkpoint {
	return config.Checkpoint{
		CheckpointID:  NewCheckpointID(),
		CommitHash:    commitHash,
		CommitMessage: commitMessage,
		EventID:       eventID,
		AgentHistory:  config.CloneChatHistory(history),
		State:         state.Clone(),
		Author:        author,
	}
}

// MakeCheckpoint commits all files with commitMessage and builds the
// resulting Checkpoint, grounded on
// original_source/theseus_agent/utils/config_utils.py's make_checkpoint:
// a failed commit (e.g. nothing to commit) still produces a Checkpoint,
// recorded with the config.NoCommit sentinel rather than failing the
// caller's ask_user flow.
func MakeCheckpoint(ctx context.Context, dir string, sc *config.SessionConfig, commitMessage string, eventID int) config.Checkpoint {
	commitHash, err := CommitAllFiles(ctx, dir, commitMessage, false)
	if err != nil {
		commitHash = config.NoCommit
	}

	var history []config.ChatMessage
	if len(sc.AgentConfigs) > 0 {
		history = sc.AgentConfigs[0].ChatHistory
	}
	return NewCheckpoint(commitHash, commitMessage, eventID, history, sc.State, config.AuthorAgent)
}

// Revert implements spec §4.5.2: truncate checkpoints to <= target,
// restore its state/history, truncate the event log, and (for a real
// commit) hard-reset the working tree. The caller is responsible for
// re-running Setup and restarting the event loop afterward.
func Revert(ctx context.Context, dir string, log *eventlog.Log, sc *config.SessionConfig, checkpointID string) error {
	idx := -1
	for i, cp := range sc.Checkpoints {
		if cp.CheckpointID == checkpointID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("versioning: checkpoint %q not found", checkpointID)
	}
	target := sc.Checkpoints[idx]

	if sc.VersioningType == config.VersioningGit && target.CommitHash != config.NoCommit {
		if err := ResetHardAndClean(ctx, dir, target.CommitHash); err != nil {
			return fmt.Errorf("versioning: revert to %s: %w", target.CommitHash, err)
		}
	}

	log.Truncate(target.EventID)
	sc.State = target.State.Clone()
	if len(sc.AgentConfigs) > 0 {
		sc.AgentConfigs[0].ChatHistory = config.CloneChatHistory(target.AgentHistory)
	}
	sc.Checkpoints = sc.Checkpoints[:idx+1]
	return nil
}
