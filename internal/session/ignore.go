package session

import (
	"bufio"
	"context"
	"path/filepath"
	"strings"

	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/logging"
	"github.com/theseusxyz/theseus/internal/tool"
)

const defaultIgnoreFile = ".theseusignore"

// LoadIgnoreFiles implements SPEC_FULL.md's ignore-file supplemented
// feature, grounded on session.py's setup(): when sc.IgnoreFiles is set,
// probe for a .theseusignore (or sc.TheseusIgnoreFile override) in the
// session's working tree via the default environment's own execute, so
// the check works identically whether that environment is local or
// containerized, then fold its patterns into sc.ExcludeFiles.
func LoadIgnoreFiles(ctx context.Context, defaultEnv tool.Executor, sc *config.SessionConfig) {
	if !sc.IgnoreFiles {
		return
	}
	name := sc.TheseusIgnoreFile
	if name == "" {
		name = defaultIgnoreFile
	}
	path := filepath.Join(sc.Path, name)

	_, exitCode, err := defaultEnv.Execute(ctx, "test -f "+shellQuote(path), 5)
	if err != nil || exitCode != 0 {
		return
	}

	out, _, err := defaultEnv.Execute(ctx, "cat "+shellQuote(path), 5)
	if err != nil {
		logging.Session(sc.Name).Warn().Str("path", path).Err(err).Msg("ignore file present but unreadable")
		return
	}
	sc.ExcludeFiles = append(sc.ExcludeFiles, parseIgnorePatterns(out)...)
}

// parseIgnorePatterns extracts non-blank, non-comment lines, matching
// the original's get_ignored_files.
func parseIgnorePatterns(content string) []string {
	var patterns []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
