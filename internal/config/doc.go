// Package config provides configuration loading, merging, and path management for Theseus.
//
// # Configuration Loading
//
// Load implements a layered defaults strategy, each layer overriding the
// previous where it sets a value:
//
//  1. Global config (~/.config/theseus/theseus.json or .jsonc)
//  2. Project config (<directory>/.theseus/theseus.json or .jsonc)
//  3. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY, THESEUS_MODEL)
//
// # Supported Formats
//
// Config files may be JSON or JSONC; // and /* */ comments are stripped
// before unmarshaling.
//
// # Session Data Model
//
// types.go holds the live session shape (SessionConfig, AgentConfig,
// Checkpoint, SessionState) built from the loaded defaults via
// NewSessionConfig. fileConfig only carries what a new session should
// default to; SessionConfig additionally tracks checkpoints, mutable
// state and the event cursor for a running session.
//
// # Path Management
//
// Paths follows the XDG Base Directory Specification:
//   - Data: ~/.local/share/theseus (XDG_DATA_HOME)
//   - Config: ~/.config/theseus (XDG_CONFIG_HOME)
//   - Cache: ~/.cache/theseus (XDG_CACHE_HOME)
//   - State: ~/.local/state/theseus (XDG_STATE_HOME)
//
// On Windows these fall back to APPDATA.
//
// # Usage Example
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sc := config.NewSessionConfig(cfg, "my-session", ".")
//	if err := config.Save(sc, config.ProjectConfigPath(".")); err != nil {
//	    log.Fatal(err)
//	}
package config