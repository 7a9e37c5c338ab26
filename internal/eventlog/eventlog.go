// Package eventlog implements the append-only, index-addressed Event Log
// that is the session's single source of truth.
package eventlog

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"
)

// Type is the wire-visible event type discriminator (spec §6.3).
type Type string

const (
	Task               Type = "Task"
	ModelRequest       Type = "ModelRequest"
	ModelResponse      Type = "ModelResponse"
	ToolRequest        Type = "ToolRequest"
	ToolResponse       Type = "ToolResponse"
	ShellRequest       Type = "ShellRequest"
	ShellResponse      Type = "ShellResponse"
	EnvironmentRequest Type = "EnvironmentRequest"
	EnvironmentResponse Type = "EnvironmentResponse"
	UserRequest        Type = "UserRequest"
	UserResponse       Type = "UserResponse"
	Interrupt          Type = "Interrupt"
	Stop               Type = "Stop"
	Error              Type = "Error"
	RateLimit          Type = "RateLimit"
	GitError           Type = "GitError"
	GitAskUser         Type = "GitAskUser"
	GitResolve         Type = "GitResolve"
	GitCorrupted       Type = "GitCorrupted"
	GitMerge           Type = "GitMerge"
	GitMergeResult     Type = "GitMergeResult"
	Checkpoint         Type = "Checkpoint"
)

// ConsumerNone is the sentinel consumer identifier for events nobody
// specifically addresses.
const ConsumerNone = "none"

// Event is a single immutable entry in the log.
type Event struct {
	Index    int    `json:"index"`
	Type     Type   `json:"type"`
	Content  any    `json:"content"`
	Producer string `json:"producer"`
	Consumer string `json:"consumer"`
}

// NewID returns a fresh ULID string. Checkpoint IDs come from
// versioning.NewCheckpointID instead, and sessions are keyed by name.
func NewID() string {
	return ulid.Make().String()
}

// Log is an append-only, index-addressed sequence of Events with a
// single-writer discipline per session. Appends also publish onto an
// in-process watermill GoChannel that Subscribe exposes; events_stream
// reads the log through TailFrom rather than through that channel.
type Log struct {
	mu     sync.RWMutex
	events []Event
	pubsub *gochannel.GoChannel
	topic  string
}

// New creates an empty Log.
func New() *Log {
	return &Log{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{}),
		topic:  "eventlog",
	}
}

// Restore creates a Log pre-populated with a previously-persisted event
// history (spec §6.4 "persist-then-load yields a session whose
// event_log... equal the originals"), without republishing each event
// onto the pub/sub topic.
func Restore(events []Event) *Log {
	l := New()
	l.events = append(l.events, events...)
	return l
}

// Append adds an event to the end of the log and returns its index.
// Append never fails: it assigns the index, appends, and publishes.
func (l *Log) Append(e Event) int {
	l.mu.Lock()
	e.Index = len(l.events)
	if e.Consumer == "" {
		e.Consumer = ConsumerNone
	}
	l.events = append(l.events, e)
	idx := e.Index
	l.mu.Unlock()

	if payload, err := marshalEvent(e); err == nil {
		_ = l.pubsub.Publish(l.topic, message.NewMessage(watermill.NewUUID(), payload))
	}
	return idx
}

// Len returns the number of events currently in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// At returns the event at the given index.
func (l *Log) At(index int) (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.events) {
		return Event{}, false
	}
	return l.events[index], true
}

// All returns a copy of every event currently in the log.
func (l *Log) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// TailFrom returns every event with index >= from, as it stands right
// now. The stream interface (§6.2) calls this repeatedly to extend the
// view as concurrent appends arrive.
func (l *Log) TailFrom(from int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if from >= len(l.events) {
		return nil
	}
	if from < 0 {
		from = 0
	}
	out := make([]Event, len(l.events)-from)
	copy(out, l.events[from:])
	return out
}

// Truncate discards every event at a position > index. Callers must only
// invoke this while the owning Runtime is paused (spec §4.1, §5).
func (l *Log) Truncate(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index+1 >= len(l.events) {
		return
	}
	if index < -1 {
		index = -1
	}
	l.events = l.events[:index+1]
}

// Subscribe returns a channel of raw published messages for observers
// that want to react to appends without polling. The subscription uses a
// background context, so the returned channel closes only when the Log
// is closed; callers ack messages they consume.
func (l *Log) Subscribe() (<-chan *message.Message, error) {
	return l.pubsub.Subscribe(contextBackground(), l.topic)
}

// Close releases the underlying pub/sub resources.
func (l *Log) Close() error {
	return l.pubsub.Close()
}
