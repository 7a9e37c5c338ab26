package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theseusxyz/theseus/internal/config"
)

// FormatEditorEntry renders one tracked file's current page as a
// line-numbered window, grounded on
// conversational_agent.py's _format_editor_entry (SPEC_FULL.md
// SUPPLEMENTED FEATURES #3).
func FormatEditorEntry(path string, view config.EditorFileView, pageSize int) string {
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	total := len(view.Lines)
	lastPage := total / pageSize
	contentLen := pageSize
	if view.Page >= lastPage {
		contentLen = total % pageSize
	}
	start := view.Page * pageSize
	end := start + contentLen
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n************ FILE: %s, WINDOW STARTLINE: %d, WINDOW ENDLINE: %d, TOTAL FILE LINES: %d ************\n", path, start, end, total)
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%04d%s\n", i, view.Lines[i])
	}
	b.WriteString("************************************\n")
	return b.String()
}

// ConvertEditorToView renders every tracked file's current page, in
// stable path order (the original iterates a Python dict in insertion
// order; a Go map has none, so paths are sorted instead).
func ConvertEditorToView(editor map[string]config.EditorFileView, pageSize int) string {
	paths := make([]string, 0, len(editor))
	for p := range editor {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		b.WriteString(FormatEditorEntry(p, editor[p], pageSize))
	}
	return b.String()
}
