package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripJSONCommentsRemovesLineAndBlockComments(t *testing.T) {
	in := []byte(`{
  // default model
  "model": "claude", /* inline */
  "temperature": 0.5
}`)
	out := stripJSONComments(in)
	require.NotContains(t, string(out), "//")
	require.NotContains(t, string(out), "/*")
	require.Contains(t, string(out), `"model": "claude"`)
}

func TestLoadConfigFileMergesIntoTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theseus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model": "claude-3", "versioning_type": "git"}`), 0644))

	cfg := &fileConfig{APIKeys: make(map[string]string)}
	require.NoError(t, loadConfigFile(path, cfg))
	require.Equal(t, "claude-3", cfg.DefaultModel)
	require.Equal(t, VersioningGit, cfg.VersioningType)
}

func TestLoadConfigFileMissingFileIsIgnored(t *testing.T) {
	cfg := &fileConfig{}
	err := loadConfigFile(filepath.Join(t.TempDir(), "missing.json"), cfg)
	require.Error(t, err)
	require.Empty(t, cfg.DefaultModel)
}

func TestMergeConfigOverwritesScalarsAndUnionsMaps(t *testing.T) {
	target := &fileConfig{DefaultModel: "old", APIKeys: map[string]string{"anthropic": "a"}}
	ignoreFiles := true
	source := &fileConfig{DefaultModel: "new", APIKeys: map[string]string{"openai": "b"}, IgnoreFiles: &ignoreFiles}

	mergeConfig(target, source)

	require.Equal(t, "new", target.DefaultModel)
	require.Equal(t, "a", target.APIKeys["anthropic"])
	require.Equal(t, "b", target.APIKeys["openai"])
	require.True(t, *target.IgnoreFiles)
}

func TestApplyEnvOverridesSetsAPIKeysAndModel(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("THESEUS_MODEL", "claude-override")

	cfg := &fileConfig{}
	applyEnvOverrides(cfg)

	require.Equal(t, "sk-ant-test", cfg.APIKeys["anthropic"])
	require.Equal(t, "claude-override", cfg.DefaultModel)
}

func TestApplyEnvOverridesDoesNotClobberExistingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

	cfg := &fileConfig{APIKeys: map[string]string{"anthropic": "sk-ant-file"}}
	applyEnvOverrides(cfg)

	require.Equal(t, "sk-ant-file", cfg.APIKeys["anthropic"])
}

func TestLoadLayersGlobalProjectAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	globalDir := filepath.Join(home, ".config", "theseus")
	require.NoError(t, os.MkdirAll(globalDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "theseus.json"), []byte(`{"model": "global-model", "versioning_type": "git"}`), 0644))

	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, ".theseus"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".theseus", "theseus.json"), []byte(`{"model": "project-model"}`), 0644))

	t.Setenv("THESEUS_MODEL", "")
	cfg, err := Load(projectDir)
	require.NoError(t, err)
	require.Equal(t, "project-model", cfg.DefaultModel)
	require.Equal(t, VersioningGit, cfg.VersioningType)
}

func TestNewSessionConfigSeedsDefaults(t *testing.T) {
	cfg := &fileConfig{DefaultModel: "claude-3", APIKeys: map[string]string{"anthropic": "sk-ant"}}

	sc := NewSessionConfig(cfg, "my-session", "/tmp/proj")

	require.Equal(t, "my-session", sc.Name)
	require.Equal(t, VersioningGit, sc.VersioningType)
	require.Equal(t, ".theseusignore", sc.TheseusIgnoreFile)
	require.Len(t, sc.AgentConfigs, 1)
	require.Equal(t, "claude-3", sc.AgentConfigs[0].Model)
	require.Equal(t, PromptAnthropic, sc.AgentConfigs[0].PromptType)
	require.Equal(t, "sk-ant", sc.AgentConfigs[0].APIKey)
	require.Equal(t, "ask user for what to do", sc.Task)
	require.Equal(t, DefaultPageSize, sc.State.Extra["PAGE_SIZE"])
}

func TestInitStateIsIdempotent(t *testing.T) {
	sc := &SessionConfig{}
	InitState(sc)
	sc.Task = "do something specific"
	InitState(sc)
	require.Equal(t, "do something specific", sc.Task)
	require.Equal(t, DefaultPageSize, sc.State.Extra["PAGE_SIZE"])
}

func TestSaveWritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "theseus.json")
	sc := NewSessionConfig(&fileConfig{}, "s", dir)

	require.NoError(t, Save(sc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name": "s"`)
}

func TestChatMessageCloneIsIndependent(t *testing.T) {
	original := ChatMessage{Role: "user", Content: "hello"}
	clone := original.Clone()
	clone.Content = "mutated"
	require.Equal(t, "hello", original.Content)
}

func TestCloneChatHistoryDeepCopies(t *testing.T) {
	history := []ChatMessage{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}}
	clone := CloneChatHistory(history)
	clone[0].Content = "mutated"
	require.Equal(t, "a", history[0].Content)
	require.Len(t, clone, 2)
}

func TestSessionStateCloneDeepCopiesEditorViewAndExtra(t *testing.T) {
	s := SessionState{
		Task:       "t",
		Scratchpad: "notes",
		EditorView: map[string]EditorFileView{"main.go": {Page: 0, Lines: []string{"a", "b"}}},
		Extra:      map[string]any{"PAGE_SIZE": 200},
	}

	clone := s.Clone()
	clone.EditorView["main.go"] = EditorFileView{Page: 1, Lines: []string{"x"}}
	clone.Extra["PAGE_SIZE"] = 999

	require.Equal(t, 0, s.EditorView["main.go"].Page)
	require.Equal(t, 200, s.Extra["PAGE_SIZE"])
}
