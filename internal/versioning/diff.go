package versioning

import (
	"context"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/theseusxyz/theseus/internal/config"
)

// FileDiffResult is one file's whole-file before/after pair plus a
// unified-diff rendering, returned by the diff() control-surface
// operation (spec §6.1).
type FileDiffResult struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after"`
	Patch  string `json:"patch"`
}

// Diff resolves two checkpoint IDs to their commits and returns the
// per-file before/after/patch results between them, matching
// Session.diff (session.py).
func Diff(ctx context.Context, dir string, sc *config.SessionConfig, srcCheckpointID, dstCheckpointID string) ([]FileDiffResult, error) {
	var srcCommit, dstCommit string
	for _, cp := range sc.Checkpoints {
		if cp.CheckpointID == srcCheckpointID {
			srcCommit = cp.CommitHash
		}
		if cp.CheckpointID == dstCheckpointID {
			dstCommit = cp.CommitHash
		}
	}

	files, err := GetDiffList(ctx, dir, srcCommit, dstCommit)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	results := make([]FileDiffResult, 0, len(files))
	for _, f := range files {
		diffs := dmp.DiffMain(f.Before, f.After, false)
		patches := dmp.PatchMake(f.Before, diffs)
		results = append(results, FileDiffResult{
			Path:   f.Path,
			Before: f.Before,
			After:  f.After,
			Patch:  dmp.PatchToText(patches),
		})
	}
	return results, nil
}
