package session

import (
	"context"

	"github.com/theseusxyz/theseus/internal/eventlog"
)

// GitResolveContent is the payload of a GitResolve event: the user's
// chosen action for a pending GitError or GitAskUser suspension (spec
// §4.5.4).
type GitResolveContent struct {
	Action string `json:"action"`
}

// EventResolver implements versioning.Resolver by appending
// GitError/GitAskUser events and blocking for the matching GitResolve
// event, the only in-core suspension points besides the user
// environment (spec §4.5.4, §5). The session control surface's event()
// operation feeds GitResolve events in through Resolve.
type EventResolver struct {
	Log     *eventlog.Log
	waiters chan string
}

// NewEventResolver constructs a resolver bound to a session's event log.
func NewEventResolver(log_ *eventlog.Log) *EventResolver {
	return &EventResolver{Log: log_, waiters: make(chan string, 1)}
}

// Resolve delivers an externally-submitted GitResolve action to
// whichever AskUser/GitError call is currently blocked. Non-blocking if
// nothing is waiting; the caller (Service.Event) is expected to only
// call this in response to an actual GitResolve event.
func (r *EventResolver) Resolve(action string) {
	select {
	case r.waiters <- action:
	default:
	}
}

func (r *EventResolver) await(ctx context.Context) (string, error) {
	select {
	case action := <-r.waiters:
		return action, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// AskUser appends a GitAskUser event and blocks for the paired
// GitResolve.
func (r *EventResolver) AskUser(ctx context.Context, prompt string, options []string) (string, error) {
	r.Log.Append(eventlog.Event{
		Type:     eventlog.GitAskUser,
		Content:  map[string]any{"prompt": prompt, "options": options},
		Producer: "runtime",
	})
	return r.await(ctx)
}

// GitError appends a GitError event and blocks for the paired
// GitResolve.
func (r *EventResolver) GitError(ctx context.Context, message string) (string, error) {
	r.Log.Append(eventlog.Event{
		Type:     eventlog.GitError,
		Content:  message,
		Producer: "runtime",
	})
	return r.await(ctx)
}
