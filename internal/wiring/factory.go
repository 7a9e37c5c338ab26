// Package wiring assembles the concrete collaborators internal/session
// treats as external (spec §1): the environment/tool set and the model
// client behind an AgentConfig. It is the one place allowed to import
// both internal/session and the concrete internal/tool/internal/
// provider implementations, keeping that wiring out of internal/session
// itself.
package wiring

import (
	"fmt"

	"github.com/theseusxyz/theseus/internal/agent"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/environment"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/provider"
	"github.com/theseusxyz/theseus/internal/tool"
)

// Factory implements session.Factory against the real local/user
// environments, the shell and ask_user tools, and an Anthropic model
// client.
type Factory struct{}

// New constructs a Factory.
func New() *Factory { return &Factory{} }

// BuildEnvironments wires the local shell environment (default, with
// the shell fallback tool registered) and the user environment (backed
// by provider, with ask_user registered), matching
// original_source/theseus_agent/session.py's default environment set.
func (Factory) BuildEnvironments(sc *config.SessionConfig, log_ *eventlog.Log, inputProvider environment.InputProvider) (map[string]environment.Environment, error) {
	local := environment.NewLocal(log_, sc.Path)
	local.SetDefaultTool(tool.NewShellTool())

	user := environment.NewUser(log_, inputProvider)
	user.RegisterTools(map[string]tool.Tool{
		"ask_user": tool.NewAskUserTool(),
	})

	if sc.DefaultEnvironment == "" {
		sc.DefaultEnvironment = "local"
	}
	return map[string]environment.Environment{
		"local":            local,
		"user_environment": user,
	}, nil
}

// BuildAgent resolves the root AgentConfig's model name into a live
// provider.Model and wraps it in an Agent.
func (Factory) BuildAgent(sc *config.SessionConfig) (*agent.Agent, error) {
	if len(sc.AgentConfigs) == 0 {
		return nil, fmt.Errorf("wiring: session %q has no agent configs", sc.Name)
	}
	ac := &sc.AgentConfigs[0]

	model := provider.NewAnthropicModel(provider.ModelArguments{
		ModelName:   ac.Model,
		Temperature: ac.Temperature,
		APIKey:      ac.APIKey,
		APIBase:     ac.APIBase,
	})

	return agent.New(ac.AgentName, ac, sc, model), nil
}
