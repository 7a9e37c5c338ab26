package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theseusxyz/theseus/internal/agent"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/environment"
	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/inputbuffer"
	"github.com/theseusxyz/theseus/internal/persistence"
)

type fakeFactory struct{}

func (fakeFactory) BuildEnvironments(sc *config.SessionConfig, log_ *eventlog.Log, provider environment.InputProvider) (map[string]environment.Environment, error) {
	local := environment.NewLocal(log_, sc.Path)
	user := environment.NewUser(log_, provider)
	sc.DefaultEnvironment = "local"
	return map[string]environment.Environment{"local": local, "user_environment": user}, nil
}

func (fakeFactory) BuildAgent(sc *config.SessionConfig) (*agent.Agent, error) {
	if len(sc.AgentConfigs) == 0 {
		sc.AgentConfigs = []config.AgentConfig{{Model: "claude-3-5-sonnet", PromptType: config.PromptAnthropic}}
	}
	return agent.New("root", &sc.AgentConfigs[0], sc, &fakeModel{outputs: []string{`<THOUGHT>done</THOUGHT><COMMAND>stop("ok")</COMMAND>`}}), nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := persistence.NewFileStore(t.TempDir())
	buffer := inputbuffer.New()
	return NewService(store, buffer, fakeFactory{})
}

func TestServiceCreateStartsLoopToTermination(t *testing.T) {
	s := newTestService(t)
	sc := &config.SessionConfig{VersioningType: config.VersioningNone}

	require.NoError(t, s.Create(context.Background(), "sess1", t.TempDir(), sc))

	require.Eventually(t, func() bool {
		st, err := s.Status("sess1")
		return err == nil && st == StatusTerminated
	}, 3*time.Second, 10*time.Millisecond)

	events, err := s.Events("sess1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
}

func TestServicePauseUpdatesStatus(t *testing.T) {
	s := newTestService(t)
	sc := &config.SessionConfig{VersioningType: config.VersioningNone}
	require.NoError(t, s.Create(context.Background(), "sess2", t.TempDir(), sc))

	require.NoError(t, s.Pause("sess2"))
	st, err := s.Status("sess2")
	require.NoError(t, err)
	require.Contains(t, []Status{StatusPaused, StatusTerminated}, st)
}

func TestServiceResponseFeedsInputBuffer(t *testing.T) {
	s := newTestService(t)
	sc := &config.SessionConfig{VersioningType: config.VersioningNone}
	require.NoError(t, s.Create(context.Background(), "sess3", t.TempDir(), sc))

	require.NoError(t, s.Response("sess3", "hello"))
}

func TestServiceUnknownSessionReturnsError(t *testing.T) {
	s := newTestService(t)
	_, err := s.Status("nope")
	require.Error(t, err)
}

func TestServiceDeleteRemovesFromPersistence(t *testing.T) {
	s := newTestService(t)
	sc := &config.SessionConfig{VersioningType: config.VersioningNone}
	require.NoError(t, s.Create(context.Background(), "sess4", t.TempDir(), sc))
	require.Eventually(t, func() bool {
		st, err := s.Status("sess4")
		return err == nil && st == StatusTerminated
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Delete(context.Background(), "sess4"))
	_, err := s.Status("sess4")
	require.Error(t, err)
}
