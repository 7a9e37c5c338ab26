package environment

import (
	"context"

	"github.com/theseusxyz/theseus/internal/eventlog"
)

// InputProvider returns the next queued user response. It is the only
// suspension point in the user environment (spec §4.2, §5).
type InputProvider func(ctx context.Context) (string, error)

// User blocks execute() calls on an external input provider, appending
// UserRequest/UserResponse events around the wait. Grounded on
// original_source/theseus_agent/enviorments/user_environment.py.
type User struct {
	Base
	Provider InputProvider
}

// NewUser constructs a user environment that blocks on provider.
func NewUser(log *eventlog.Log, provider InputProvider) *User {
	return &User{Base: NewBase(log), Provider: provider}
}

func (u *User) Name() string { return "user_environment" }

func (u *User) Setup(ctx context.Context) error    { return nil }
func (u *User) Teardown(ctx context.Context) error { return nil }

func (u *User) Execute(ctx context.Context, prompt string, timeoutSeconds int) (string, int, error) {
	if u.EventLog != nil {
		u.EventLog.Append(eventlog.Event{Type: eventlog.UserRequest, Content: prompt, Producer: "tool", Consumer: u.Name()})
	}

	response, err := u.Provider(ctx)
	if err != nil {
		return "", -1, err
	}

	if u.EventLog != nil {
		u.EventLog.Append(eventlog.Event{Type: eventlog.UserResponse, Content: response, Producer: u.Name(), Consumer: "tool"})
	}
	return response, 0, nil
}

func (u *User) Save() map[string]any {
	return map[string]any{"type": "UserEnvironment"}
}
