package config

// PromptFamily is the discriminated enum spec §9 asks for in place of a
// raw string "prompt_type" tag.
type PromptFamily string

const (
	PromptOpenAI    PromptFamily = "openai"
	PromptAnthropic PromptFamily = "anthropic"
)

// VersioningType selects whether the session drives the git lifecycle
// state machine at all (spec §3 SessionConfig.versioning_type).
type VersioningType string

const (
	VersioningGit  VersioningType = "git"
	VersioningNone VersioningType = "none"
)

// ChatMessage is a single role-tagged turn in an AgentConfig's chat
// history, grounded on original_source/theseus_agent/config.py's
// `chat_history: List[dict]`.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	return ChatMessage{Role: m.Role, Content: m.Content}
}

// AgentConfig mirrors spec §3 / original_source's AgentConfig
// (theseus_agent/config.py).
type AgentConfig struct {
	Model        string        `json:"model"`
	AgentName    string        `json:"agent_name"`
	AgentType    string        `json:"agent_type"`
	APIBase      string        `json:"api_base,omitempty"`
	PromptType   PromptFamily  `json:"prompt_type"`
	APIKey       string        `json:"api_key,omitempty"`
	Temperature  float64       `json:"temperature"`
	ChatHistory  []ChatMessage `json:"chat_history"`
}

// CloneChatHistory returns a deep copy of the chat history, used when
// building a Checkpoint (spec §9 "Checkpoint deep copies").
func CloneChatHistory(history []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(history))
	for i, m := range history {
		out[i] = m.Clone()
	}
	return out
}

// CheckpointAuthor identifies who authored a Checkpoint.
type CheckpointAuthor string

const (
	AuthorUser  CheckpointAuthor = "user"
	AuthorAgent CheckpointAuthor = "agent"
)

// Checkpoint is a snapshot marker (spec §3), grounded on
// original_source/theseus_agent/config.py's Checkpoint model.
type Checkpoint struct {
	CheckpointID  string           `json:"checkpoint_id"`
	CommitHash    string           `json:"commit_hash"`
	CommitMessage string           `json:"commit_message"`
	EventID       int              `json:"event_id"`
	AgentHistory  []ChatMessage    `json:"agent_history"`
	State         SessionState     `json:"state"`
	MergedCommit  string           `json:"merged_commit,omitempty"`
	Author        CheckpointAuthor `json:"author,omitempty"`
	SrcBranch     string           `json:"src_branch,omitempty"`
}

// NoCommit is the sentinel commit hash for a checkpoint with no real VCS
// commit (spec §3).
const NoCommit = "no_commit"

// EditorFileView is a paginated window into one tracked file, per
// SPEC_FULL.md SUPPLEMENTED FEATURES #3.
type EditorFileView struct {
	Page  int      `json:"page"`
	Lines []string `json:"lines"`
}

// SessionState is the session's mutable scratch area (spec §3).
type SessionState struct {
	Task       string                    `json:"task"`
	EditorView map[string]EditorFileView `json:"editor_view"`
	Scratchpad string                    `json:"scratchpad"`
	Extra      map[string]any            `json:"extra,omitempty"`
}

// DefaultPageSize matches original_source's init_state() seeding
// state["PAGE_SIZE"] = 200.
const DefaultPageSize = 200

// Clone returns a deep copy of the session state (spec §9 "Checkpoint
// deep copies").
func (s SessionState) Clone() SessionState {
	out := SessionState{Task: s.Task, Scratchpad: s.Scratchpad}
	if s.EditorView != nil {
		out.EditorView = make(map[string]EditorFileView, len(s.EditorView))
		for k, v := range s.EditorView {
			lines := make([]string, len(v.Lines))
			copy(lines, v.Lines)
			out.EditorView[k] = EditorFileView{Page: v.Page, Lines: lines}
		}
	}
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// EnvironmentDescriptor is the serialized form of an Environment used in
// persistence (spec §6.4): {type, path, cwd, old_dir, ...}.
type EnvironmentDescriptor map[string]any

// SessionConfig mirrors spec §3 / original_source's Config
// (theseus_agent/config.py), minus fields (logger, db_path,
// persist_to_db) that belong to the out-of-scope persistence/logging
// collaborators rather than the session's own data model.
type SessionConfig struct {
	Name               string                           `json:"name"`
	Path               string                           `json:"path"`
	DefaultEnvironment string                           `json:"default_environment"`
	Environments       map[string]EnvironmentDescriptor `json:"environments"`
	AgentConfigs       []AgentConfig                     `json:"agent_configs"`
	Task               string                           `json:"task,omitempty"`
	VersioningType     VersioningType                   `json:"versioning_type"`
	VersioningMetadata map[string]string                `json:"versioning_metadata,omitempty"`
	Checkpoints        []Checkpoint                     `json:"checkpoints"`
	State              SessionState                     `json:"state"`
	IgnoreFiles        bool                             `json:"ignore_files"`
	ExcludeFiles       []string                          `json:"exclude_files,omitempty"`
	TheseusIgnoreFile  string                           `json:"theseus_ignore_file,omitempty"`
}

// UserBranchKey is the versioning_metadata key recording the branch the
// user was on before the session started (spec §3 invariant).
const UserBranchKey = "user_branch"

// InitState seeds a fresh SessionConfig's state the way
// original_source's Session.init_state does: PAGE_SIZE and an initial
// Task asking the user what to do, idempotently.
func InitState(c *SessionConfig) {
	if c.State.EditorView == nil {
		c.State.EditorView = make(map[string]EditorFileView)
	}
	if c.State.Extra == nil {
		c.State.Extra = make(map[string]any)
	}
	c.State.Extra["PAGE_SIZE"] = DefaultPageSize
	if c.Task == "" {
		c.Task = "ask user for what to do"
	}
}
