package session

import (
	"os"
	"path/filepath"
	"strings"
)

// refreshEditorFiles re-reads every file already tracked in the
// session's editor view from disk, keeping each file's current page but
// replacing its lines, matching spec §4.4's ModelRequest row ("refresh
// editor file contents from disk for all tracked files").
func (r *Runtime) refreshEditorFiles() {
	for path, view := range r.Config.State.EditorView {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(r.Config.Path, path)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			r.log.Warn().Str("file", path).Err(err).Msg("editor view refresh: file unreadable, leaving stale window")
			continue
		}
		lines := strings.Split(string(data), "\n")
		view.Lines = lines
		r.Config.State.EditorView[path] = view
	}
}
