package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
)

func TestParseCommandNoArgs(t *testing.T) {
	name, args, err := ParseCommand("submit()")
	require.NoError(t, err)
	require.Equal(t, "submit", name)
	require.Empty(t, args)
}

func TestParseCommandQuotedArgsWithCommas(t *testing.T) {
	name, args, err := ParseCommand(`ask_user("are we done, really?", "add feature X")`)
	require.NoError(t, err)
	require.Equal(t, "ask_user", name)
	require.Equal(t, []string{"are we done, really?", "add feature X"}, args)
}

func TestParseCommandMissingParensErrors(t *testing.T) {
	_, _, err := ParseCommand("not a command")
	require.Error(t, err)
}

func TestParseCommandUnterminatedQuoteErrors(t *testing.T) {
	_, _, err := ParseCommand(`create_file("unterminated)`)
	require.Error(t, err)
}

func TestMaybeScheduleCheckpointSkipsWithoutVersioning(t *testing.T) {
	sc := &config.SessionConfig{VersioningType: config.VersioningNone}
	log := eventlog.New()
	MaybeScheduleCheckpoint(context.Background(), sc, log, 3, "ask_user", []string{"done?", "msg"})
	require.Empty(t, sc.Checkpoints)
	require.Equal(t, 0, log.Len())
}

func TestMaybeScheduleCheckpointSkipsWithoutCommitMessageArg(t *testing.T) {
	sc := &config.SessionConfig{VersioningType: config.VersioningGit}
	log := eventlog.New()
	MaybeScheduleCheckpoint(context.Background(), sc, log, 3, "ask_user", []string{"done?"})
	require.Empty(t, sc.Checkpoints)
}

func TestMaybeScheduleCheckpointIgnoresOtherTools(t *testing.T) {
	sc := &config.SessionConfig{VersioningType: config.VersioningGit}
	log := eventlog.New()
	MaybeScheduleCheckpoint(context.Background(), sc, log, 3, "create_file", []string{"a.txt"})
	require.Empty(t, sc.Checkpoints)
}
