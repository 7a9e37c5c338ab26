package agent

import (
	"fmt"
	"strings"

	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/provider"
)

// promptInput is the explicit record a prompt builder needs (spec §9:
// "pass context as an explicit record; do not rely on closure capture"),
// grounded on the arguments conversational_agent.py's _prepare_anthropic
// and _prepare_openai close over: task, chat_history, the formatted
// editor view, cwd, base path and scratchpad.
type promptInput struct {
	Task        string
	History     []config.ChatMessage
	Editor      string
	Cwd         string
	Path        string
	CommandDocs string
	Scratchpad  string
}

// promptBuilder turns a promptInput into the messages and system prompt a
// provider.Model.Query call needs.
type promptBuilder func(promptInput) (messages []provider.Message, systemPrompt string)

// promptBuilders is the prompt-family registry spec §4.3 and §9 ask for
// ("openai" or "anthropic"), grounded on conversational_agent.py's
// `prompts = {"anthropic": ..., "openai": ...}` dispatch table.
var promptBuilders = map[config.PromptFamily]promptBuilder{
	config.PromptAnthropic: buildAnthropicPrompt,
	config.PromptOpenAI:    buildOpenAIPrompt,
}

// DefaultPromptFamily picks a family from the model name the way
// conversational_agent.py's default_model_configs does, for the case
// where an AgentConfig omits prompt_type.
func DefaultPromptFamily(modelName string) config.PromptFamily {
	if strings.Contains(strings.ToLower(modelName), "claude") {
		return config.PromptAnthropic
	}
	return config.PromptOpenAI
}

// buildAnthropicPrompt mirrors _prepare_anthropic: the whole chat history
// (all roles) is folded into one user message alongside the editor view,
// cwd, path and scratchpad; the system prompt carries the tool
// documentation. The literal prompt template text in
// agents/prompts/anthropic_prompts.py was not part of the retrieved
// original_source filter, so the layout below renders the same inputs in
// the teacher's structured-section style rather than reproducing an
// unseen template verbatim.
func buildAnthropicPrompt(in promptInput) ([]provider.Message, string) {
	systemPrompt := "Custom Commands Documentation:\n" + in.CommandDocs + "\n"

	var b strings.Builder
	fmt.Fprintf(&b, "TASK: %s\n\n", in.Task)
	b.WriteString("HISTORY:\n")
	b.WriteString(bashHistory(in.History))
	b.WriteString("\nEDITOR:\n")
	b.WriteString(in.Editor)
	fmt.Fprintf(&b, "\nCWD: %s\nBASE PATH: %s\n", in.Cwd, in.Path)
	if in.Scratchpad != "" {
		fmt.Fprintf(&b, "\nSCRATCHPAD:\n%s\n", in.Scratchpad)
	}

	return []provider.Message{{Role: "user", Content: b.String()}}, systemPrompt
}

// buildOpenAIPrompt mirrors _prepare_openai: only user/assistant turns
// from history are replayed as discrete messages, with the task, editor
// view, cwd, path and scratchpad folded into one trailing user message.
func buildOpenAIPrompt(in promptInput) ([]provider.Message, string) {
	systemPrompt := "Custom Commands Documentation:\n" + in.CommandDocs + "\n"

	messages := make([]provider.Message, 0, len(in.History)+1)
	for _, m := range in.History {
		if m.Role == "user" || m.Role == "assistant" {
			messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TASK: %s\n\nEDITOR:\n%s\nCWD: %s\nBASE PATH: %s\n", in.Task, in.Editor, in.Cwd, in.Path)
	if in.Scratchpad != "" {
		fmt.Fprintf(&b, "\nSCRATCHPAD:\n%s\n", in.Scratchpad)
	}
	messages = append(messages, provider.Message{Role: "user", Content: b.String()})

	return messages, systemPrompt
}

// bashHistory renders chat turns as a bash-session-like transcript,
// grounded on the shape anthropic_history_to_bash_history's name
// implies: each turn prefixed by its role like a shell prompt.
func bashHistory(history []config.ChatMessage) string {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "$ %s\n%s\n", m.Role, m.Content)
	}
	return b.String()
}
