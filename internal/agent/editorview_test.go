package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theseusxyz/theseus/internal/config"
)

func makeLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line"
	}
	return lines
}

func TestFormatEditorEntrySinglePage(t *testing.T) {
	view := config.EditorFileView{Page: 0, Lines: makeLines(10)}
	out := FormatEditorEntry("a.txt", view, 50)
	require.Contains(t, out, "FILE: a.txt")
	require.Contains(t, out, "WINDOW STARTLINE: 0")
	require.Contains(t, out, "WINDOW ENDLINE: 10")
	require.Contains(t, out, "TOTAL FILE LINES: 10")
	require.Contains(t, out, "0000line")
	require.Contains(t, out, "0009line")
}

func TestFormatEditorEntrySecondPage(t *testing.T) {
	view := config.EditorFileView{Page: 1, Lines: makeLines(120)}
	out := FormatEditorEntry("a.txt", view, 50)
	require.Contains(t, out, "WINDOW STARTLINE: 50")
	require.Contains(t, out, "WINDOW ENDLINE: 100")
}

func TestFormatEditorEntryLastPartialPage(t *testing.T) {
	view := config.EditorFileView{Page: 2, Lines: makeLines(120)}
	out := FormatEditorEntry("a.txt", view, 50)
	require.Contains(t, out, "WINDOW STARTLINE: 100")
	require.Contains(t, out, "WINDOW ENDLINE: 120")
}

func TestConvertEditorToViewOrdersPathsDeterministically(t *testing.T) {
	editor := map[string]config.EditorFileView{
		"z.txt": {Page: 0, Lines: []string{"z"}},
		"a.txt": {Page: 0, Lines: []string{"a"}},
	}
	out := ConvertEditorToView(editor, 50)
	require.Less(t, strings.Index(out, "a.txt"), strings.Index(out, "z.txt"))
}
