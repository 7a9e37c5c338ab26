package versioning

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theseusxyz/theseus/internal/config"
)

func TestDiffResolvesCheckpointIDsToCommitsAndReturnsPerFilePairs(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one"), 0644))
	commit1, err := CommitAllFiles(context.Background(), dir, "base", false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0644))
	commit2, err := CommitAllFiles(context.Background(), dir, "change", false)
	require.NoError(t, err)

	sc := &config.SessionConfig{
		Checkpoints: []config.Checkpoint{
			{CheckpointID: "cp1", CommitHash: commit1},
			{CheckpointID: "cp2", CommitHash: commit2},
		},
	}

	results, err := Diff(context.Background(), dir, sc, "cp1", "cp2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a.txt", results[0].Path)
	require.Equal(t, "one", results[0].Before)
	require.Equal(t, "two", results[0].After)
	require.NotEmpty(t, results[0].Patch)
}
