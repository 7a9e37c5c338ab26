// Package config provides the layered configuration loader (global →
// project → env vars) and the session/agent/checkpoint data model (spec
// §3), adapted from the teacher's internal/config loader.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
)

// fileConfig is the on-disk shape merged across global/project layers:
// default values for new sessions, not the live SessionConfig itself
// (which also carries runtime state, checkpoints and the event cursor).
type fileConfig struct {
	DefaultModel       string         `json:"model,omitempty"`
	DefaultPromptType  PromptFamily   `json:"prompt_type,omitempty"`
	DefaultTemperature *float64       `json:"temperature,omitempty"`
	VersioningType     VersioningType `json:"versioning_type,omitempty"`
	IgnoreFiles        *bool          `json:"ignore_files,omitempty"`
	TheseusIgnoreFile  string         `json:"theseus_ignore_file,omitempty"`
	APIKeys            map[string]string `json:"api_keys,omitempty"`
}

// Load loads configuration defaults from multiple sources (priority
// order): 1. global config (~/.config/theseus/), 2. project config
// (<directory>/.theseus/), 3. environment variables.
func Load(directory string) (*fileConfig, error) {
	cfg := &fileConfig{APIKeys: make(map[string]string)}

	globalPath := GetPaths().Config
	loadConfigFile(filepath.Join(globalPath, "theseus.json"), cfg)
	loadConfigFile(filepath.Join(globalPath, "theseus.jsonc"), cfg)

	if directory != "" {
		loadConfigFile(filepath.Join(directory, ".theseus", "theseus.json"), cfg)
		loadConfigFile(filepath.Join(directory, ".theseus", "theseus.jsonc"), cfg)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadConfigFile loads a single config file.
func loadConfigFile(path string, cfg *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	data = stripJSONComments(data)

	var layer fileConfig
	if err := json.Unmarshal(data, &layer); err != nil {
		return err
	}

	mergeConfig(cfg, &layer)
	return nil
}

// stripJSONComments removes // and /* */ comments from JSONC.
func stripJSONComments(data []byte) []byte {
	// Remove single-line comments
	singleLine := regexp.MustCompile(`//.*$`)
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = singleLine.ReplaceAll(line, nil)
	}
	data = bytes.Join(lines, []byte("\n"))

	// Remove multi-line comments
	multiLine := regexp.MustCompile(`/\*[\s\S]*?\*/`)
	data = multiLine.ReplaceAll(data, nil)

	return data
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *fileConfig) {
	if source.DefaultModel != "" {
		target.DefaultModel = source.DefaultModel
	}
	if source.DefaultPromptType != "" {
		target.DefaultPromptType = source.DefaultPromptType
	}
	if source.DefaultTemperature != nil {
		target.DefaultTemperature = source.DefaultTemperature
	}
	if source.VersioningType != "" {
		target.VersioningType = source.VersioningType
	}
	if source.IgnoreFiles != nil {
		target.IgnoreFiles = source.IgnoreFiles
	}
	if source.TheseusIgnoreFile != "" {
		target.TheseusIgnoreFile = source.TheseusIgnoreFile
	}
	if source.APIKeys != nil {
		if target.APIKeys == nil {
			target.APIKeys = make(map[string]string)
		}
		for k, v := range source.APIKeys {
			target.APIKeys[k] = v
		}
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *fileConfig) {
	providerEnvMap := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
	}

	for provider, envVar := range providerEnvMap {
		if apiKey := os.Getenv(envVar); apiKey != "" {
			if cfg.APIKeys == nil {
				cfg.APIKeys = make(map[string]string)
			}
			if cfg.APIKeys[provider] == "" {
				cfg.APIKeys[provider] = apiKey
			}
		}
	}

	if model := os.Getenv("THESEUS_MODEL"); model != "" {
		cfg.DefaultModel = model
	}
}

// NewSessionConfig builds a SessionConfig seeded from the layered file
// defaults, matching original_source's Config construction in
// theseus_agent/session.py's __init__.
func NewSessionConfig(cfg *fileConfig, name, path string) *SessionConfig {
	versioningType := cfg.VersioningType
	if versioningType == "" {
		versioningType = VersioningGit
	}
	promptType := cfg.DefaultPromptType
	if promptType == "" {
		promptType = PromptAnthropic
	}
	temperature := 0.0
	if cfg.DefaultTemperature != nil {
		temperature = *cfg.DefaultTemperature
	}

	sc := &SessionConfig{
		Name:               name,
		Path:               path,
		DefaultEnvironment: "local",
		Environments:       make(map[string]EnvironmentDescriptor),
		AgentConfigs: []AgentConfig{{
			Model:       cfg.DefaultModel,
			AgentName:   "theseus",
			AgentType:   "conversational",
			PromptType:  promptType,
			APIKey:      cfg.APIKeys["anthropic"],
			Temperature: temperature,
		}},
		VersioningType:     versioningType,
		VersioningMetadata: make(map[string]string),
		Checkpoints:        nil,
		IgnoreFiles:        cfg.IgnoreFiles != nil && *cfg.IgnoreFiles,
		TheseusIgnoreFile:  cfg.TheseusIgnoreFile,
	}
	if sc.TheseusIgnoreFile == "" {
		sc.TheseusIgnoreFile = ".theseusignore"
	}
	InitState(sc)
	return sc
}

// Save saves a SessionConfig to a file as indented JSON.
func Save(sc *SessionConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
