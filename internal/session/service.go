package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/theseusxyz/theseus/internal/agent"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/environment"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/inputbuffer"
	"github.com/theseusxyz/theseus/internal/persistence"
	"github.com/theseusxyz/theseus/internal/tool"
	"github.com/theseusxyz/theseus/internal/versioning"
)

// Factory builds the collaborators a Runtime needs but that this
// package treats as external (spec §1): the concrete environments
// (wiring in the real tool set) and the Agent (wiring in the real model
// client). Service owns orchestration; Factory owns assembly.
type Factory interface {
	BuildEnvironments(sc *config.SessionConfig, log_ *eventlog.Log, provider environment.InputProvider) (map[string]environment.Environment, error)
	BuildAgent(sc *config.SessionConfig) (*agent.Agent, error)
}

// managed bundles one session's live Runtime with the plumbing Service
// needs to drive it from outside the loop.
type managed struct {
	runtime  *Runtime
	resolver *EventResolver
	cancel   context.CancelFunc
}

// Service is the session control surface of spec §6.1.
type Service struct {
	store   persistence.Store
	buffer  *inputbuffer.Buffer
	factory Factory

	mu       sync.RWMutex
	sessions map[string]*managed
}

// NewService constructs a Service over the given persistence store,
// input buffer, and environment/agent factory.
func NewService(store persistence.Store, buffer *inputbuffer.Buffer, factory Factory) *Service {
	return &Service{
		store:    store,
		buffer:   buffer,
		factory:  factory,
		sessions: make(map[string]*managed),
	}
}

// Create allocates a session: init_state, setup, start loop with
// action=new (spec §6.1).
func (s *Service) Create(ctx context.Context, name, path string, sc *config.SessionConfig) error {
	sc.Name = name
	sc.Path = path
	config.InitState(sc)

	m, err := s.assemble(sc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.sessions[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("session: %q already exists", name)
	}
	s.sessions[name] = m
	s.mu.Unlock()

	if err := setupEnvironments(ctx, m); err != nil {
		s.mu.Lock()
		delete(s.sessions, name)
		s.mu.Unlock()
		return fmt.Errorf("session: setup: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	LoadIgnoreFiles(runCtx, m.runtime.Environments[m.runtime.DefaultEnvironment], sc)
	m.runtime.Log.Append(eventlog.Event{Type: eventlog.Task, Content: sc.Task, Producer: "user"})

	go m.runtime.Start(runCtx, "new")
	return s.persist(ctx, name)
}

// setupEnvironments calls Setup on every environment a runtime was
// assembled with, so a Local's persistent shell is actually spawned
// before the loop starts dispatching ShellRequest events against it
// (spec §4.2, §6.1 "create: ... setup, start loop"), then runs each
// registered tool's own Setup against that environment, matching
// tool.Tool's "called once when the owning environment starts up"
// contract.
func setupEnvironments(ctx context.Context, m *managed) error {
	for name, env := range m.runtime.Environments {
		if err := env.Setup(ctx); err != nil {
			return fmt.Errorf("environment %q: %w", name, err)
		}
		tc := m.runtime.toolContext(environmentHandle{name: name, env: env})
		for _, t := range allTools(env) {
			if err := t.Setup(ctx, tc); err != nil {
				return fmt.Errorf("environment %q tool %q: %w", name, t.Name(), err)
			}
		}
	}
	return nil
}

// teardownEnvironments releases every registered tool's resources and
// then every environment's own resources, symmetric with
// setupEnvironments.
func teardownEnvironments(ctx context.Context, m *managed) {
	for name, env := range m.runtime.Environments {
		tc := m.runtime.toolContext(environmentHandle{name: name, env: env})
		for _, t := range allTools(env) {
			_ = t.Cleanup(ctx, tc)
		}
		_ = env.Teardown(ctx)
	}
}

// allTools lists an environment's registered tools plus its default
// tool, if set and not already registered under its own name.
func allTools(env environment.Environment) []tool.Tool {
	names := env.ToolNames()
	tools := make([]tool.Tool, 0, len(names)+1)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if t, ok := env.Tool(n); ok {
			tools = append(tools, t)
			seen[n] = true
		}
	}
	if dt := env.DefaultTool(); dt != nil && !seen[dt.Name()] {
		tools = append(tools, dt)
	}
	return tools
}

// Start restores a previously-created session from persistence (if not
// already in memory) and starts its loop with action=load.
func (s *Service) Start(ctx context.Context, name string, apiKey string) error {
	s.mu.RLock()
	m, exists := s.sessions[name]
	s.mu.RUnlock()

	if exists && m.runtime.Status() != StatusTerminated {
		return nil
	}

	rec, err := s.store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("session: load %q: %w", name, err)
	}
	sc := rec.Config
	if apiKey != "" && len(sc.AgentConfigs) > 0 {
		sc.AgentConfigs[0].APIKey = apiKey
	}

	m, err = s.assembleAt(&sc, eventlog.Restore(rec.EventHistory), rec.ProcessedEventID)
	if err != nil {
		return err
	}

	if err := setupEnvironments(ctx, m); err != nil {
		return fmt.Errorf("session: setup: %w", err)
	}

	s.mu.Lock()
	s.sessions[name] = m
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.runtime.Start(runCtx, "load")
	return nil
}

// assemble builds a managed session from scratch (a fresh, empty log).
func (s *Service) assemble(sc *config.SessionConfig) (*managed, error) {
	return s.assembleAt(sc, eventlog.New(), 0)
}

// assembleAt builds a managed session around a possibly-restored log
// and loop position (spec §6.4 round-trip via Service.Start).
func (s *Service) assembleAt(sc *config.SessionConfig, log_ *eventlog.Log, eventID int) (*managed, error) {
	name := sc.Name
	provider := func(ctx context.Context) (string, error) { return s.buffer.Await(ctx, name) }

	envs, err := s.factory.BuildEnvironments(sc, log_, provider)
	if err != nil {
		return nil, fmt.Errorf("session: build environments: %w", err)
	}
	a, err := s.factory.BuildAgent(sc)
	if err != nil {
		return nil, fmt.Errorf("session: build agent: %w", err)
	}

	resolver := NewEventResolver(log_)
	rt := NewRuntimeAt(name, sc, log_, a, envs, resolver, eventID)
	return &managed{runtime: rt, resolver: resolver}, nil
}

func (s *Service) get(name string) (*managed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sessions[name]
	if !ok {
		return nil, fmt.Errorf("session: %q not found", name)
	}
	return m, nil
}

// Pause toggles a session's runtime to paused.
func (s *Service) Pause(name string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	m.runtime.Pause()
	return nil
}

// Resume toggles a session's runtime back to running.
func (s *Service) Resume(name string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	m.runtime.Resume()
	return nil
}

// Terminate requests termination and blocks until terminated (spec
// §6.1).
func (s *Service) Terminate(ctx context.Context, name string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	m.runtime.Terminate()
	if m.cancel != nil {
		m.cancel()
	}
	teardownEnvironments(ctx, m)
	return s.persist(ctx, name)
}

// Reset implements spec §6.1: buffer "terminate" into user input,
// terminate, init_state, setup, restart loop with action=reset.
func (s *Service) Reset(ctx context.Context, name string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	s.buffer.Provide(name, inputbuffer.MagicTerminate)
	m.runtime.Terminate()
	if m.cancel != nil {
		m.cancel()
	}
	teardownEnvironments(ctx, m)

	sc := m.runtime.Config
	sc.State = config.SessionState{}
	sc.Checkpoints = nil
	config.InitState(sc)

	fresh, err := s.assemble(sc)
	if err != nil {
		return err
	}
	if err := setupEnvironments(ctx, fresh); err != nil {
		return fmt.Errorf("session: setup: %w", err)
	}
	s.mu.Lock()
	s.sessions[name] = fresh
	s.mu.Unlock()

	fresh.runtime.Log.Append(eventlog.Event{Type: eventlog.Task, Content: sc.Task, Producer: "user"})
	runCtx, cancel := context.WithCancel(context.Background())
	fresh.cancel = cancel
	go fresh.runtime.Start(runCtx, "reset")
	return nil
}

// Revert implements spec §6.1: terminate, revert to checkpoint, pause,
// restart loop skipping git_setup.
func (s *Service) Revert(ctx context.Context, name, checkpointID string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	s.buffer.Provide(name, inputbuffer.MagicRevert)
	m.runtime.Terminate()
	if m.cancel != nil {
		m.cancel()
	}

	sc := m.runtime.Config
	if err := versioning.Revert(ctx, sc.Path, m.runtime.Log, sc, checkpointID); err != nil {
		return err
	}

	m.runtime.Pause()
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.runtime.Start(runCtx, "")
	return s.persist(ctx, name)
}

// Delete terminates, tears down, and removes a session from
// persistence (spec §6.1).
func (s *Service) Delete(ctx context.Context, name string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	s.buffer.Provide(name, inputbuffer.MagicDelete)
	m.runtime.Terminate()
	if m.cancel != nil {
		m.cancel()
	}
	m.runtime.GitSetup(ctx, "teardown")
	teardownEnvironments(ctx, m)

	s.mu.Lock()
	delete(s.sessions, name)
	s.mu.Unlock()

	return s.store.Delete(ctx, name)
}

// Event appends an externally-submitted event. A GitMerge event runs
// §4.5.3's merge and appends the GitMergeResult; a GitResolve event is
// forwarded to the session's blocked Resolver instead of merely being
// appended, since it unblocks an in-flight AskUser/GitError call.
func (s *Service) Event(ctx context.Context, name string, ev eventlog.Event) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}

	switch ev.Type {
	case eventlog.GitMerge:
		m.runtime.Log.Append(ev)
		payload, _ := ev.Content.(map[string]any)
		commitMessage, _ := payload["commit_message"].(string)
		success, message := versioning.Merge(ctx, m.runtime.Config.Path, m.runtime.Config, commitMessage)
		m.runtime.Log.Append(eventlog.Event{
			Type:     eventlog.GitMergeResult,
			Content:  map[string]any{"success": success, "message": message},
			Producer: "runtime",
		})
		return nil

	case eventlog.GitResolve:
		m.runtime.Log.Append(ev)
		m.resolver.Resolve(gitResolveAction(ev.Content))
		return nil

	default:
		m.runtime.Log.Append(ev)
		return nil
	}
}

// Events returns the full log (spec §6.1).
func (s *Service) Events(name string) ([]eventlog.Event, error) {
	m, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return m.runtime.Log.All(), nil
}

// EventsStream emits events appended after `from`, polling at 100ms
// until ctx is cancelled (spec §6.1).
func (s *Service) EventsStream(ctx context.Context, name string, from int) (<-chan eventlog.Event, error) {
	m, err := s.get(name)
	if err != nil {
		return nil, err
	}
	out := make(chan eventlog.Event, 16)
	go func() {
		defer close(out)
		pos := from
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tail := m.runtime.Log.TailFrom(pos)
				for _, ev := range tail {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
				pos += len(tail)
			}
		}
	}()
	return out, nil
}

// Diff returns per-file before/after pairs between two checkpoints
// (spec §6.1).
func (s *Service) Diff(ctx context.Context, name, srcID, dstID string) ([]versioning.FileDiffResult, error) {
	m, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return versioning.Diff(ctx, m.runtime.Config.Path, m.runtime.Config, srcID, dstID)
}

// Response provides the next value for the user environment's input
// provider (spec §6.1, §6.2).
func (s *Service) Response(name, text string) error {
	if _, err := s.get(name); err != nil {
		return err
	}
	s.buffer.Provide(name, text)
	return nil
}

// Status returns the runtime's current scheduling state.
func (s *Service) Status(name string) (Status, error) {
	m, err := s.get(name)
	if err != nil {
		return "", err
	}
	return m.runtime.Status(), nil
}

// Config returns a snapshot of the session's config.
func (s *Service) Config(name string) (*config.SessionConfig, error) {
	m, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return m.runtime.Config, nil
}

func (s *Service) persist(ctx context.Context, name string) error {
	m, err := s.get(name)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, name, persistence.Record{
		Config:           *m.runtime.Config,
		EventHistory:     m.runtime.Log.All(),
		ProcessedEventID: m.runtime.EventID(),
	})
}

// gitResolveAction extracts the chosen action from a GitResolve event's
// content, accepting either the typed GitResolveContent (constructed
// in-process) or a map[string]any (decoded off the wire).
func gitResolveAction(content any) string {
	switch c := content.(type) {
	case GitResolveContent:
		return c.Action
	case map[string]any:
		action, _ := c["action"].(string)
		return action
	default:
		return ""
	}
}

