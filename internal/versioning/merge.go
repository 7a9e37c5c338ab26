package versioning

import (
	"context"
	"fmt"
	"os"

	"github.com/theseusxyz/theseus/internal/config"
)

// Merge implements spec §4.5.3: combine the agent branch's cumulative
// work back into the user branch. Any step failure leaves the agent
// branch checked out and reports failure; no partial merges.
func Merge(ctx context.Context, dir string, sc *config.SessionConfig, commitMessage string) (bool, string) {
	currentBranch, err := CurrentBranch(ctx, dir)
	if err != nil {
		return false, "error getting current branch"
	}
	if currentBranch != AgentBranch {
		return false, fmt.Sprintf("not on %s branch", AgentBranch)
	}

	commits, err := Commits(ctx, dir)
	if err != nil || len(commits) == 0 {
		return false, "error getting commits"
	}
	destCommit := shortSHA(commits[0])

	srcCheckpoint := lastCheckpointWithMerge(sc)
	if srcCheckpoint == nil {
		return false, "no merge commit found"
	}

	patch, err := DiffPatch(ctx, dir, srcCheckpoint.MergedCommit, destCommit)
	if err != nil {
		return false, "error getting diff patch"
	}

	patchPath, err := writeTempPatch(patch)
	if err != nil {
		return false, "error writing patch file"
	}
	defer os.Remove(patchPath)

	userBranch := sc.VersioningMetadata[config.UserBranchKey]
	if userBranch == "" {
		return false, "user branch not found"
	}

	if err := CheckoutBranch(ctx, dir, userBranch); err != nil {
		return false, "error checking out user branch"
	}

	if err := ApplyPatch(ctx, dir, patchPath); err != nil {
		CheckoutBranch(ctx, dir, AgentBranch) //nolint:errcheck // best-effort restore before reporting failure
		return false, "error applying patch"
	}

	mergeCommit, err := CommitAllFiles(ctx, dir, commitMessage, false)
	if err != nil {
		CheckoutBranch(ctx, dir, AgentBranch) //nolint:errcheck // best-effort restore before reporting failure
		return false, "error committing files"
	}

	if err := CheckoutBranch(ctx, dir, AgentBranch); err != nil {
		return false, "error switching back to agent branch"
	}

	srcCheckpoint.MergedCommit = mergeCommit
	return true, "merge successful"
}

// writeTempPatch writes patch text to a fresh temp file and returns its
// path, matching the original's tempfile.NamedTemporaryFile usage in
// merge()/git_setup("teardown").
func writeTempPatch(patch string) (string, error) {
	f, err := os.CreateTemp("", "theseus-patch-*.diff")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(patch); err != nil {
		return "", err
	}
	return f.Name(), nil
}
