package inputbuffer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAwaitBlocksUntilProvided(t *testing.T) {
	b := New()
	done := make(chan string, 1)
	go func() {
		resp, err := b.Await(context.Background(), "s1")
		require.NoError(t, err)
		done <- resp
	}()

	require.Eventually(t, func() bool { return b.Blocked("s1") }, time.Second, time.Millisecond)
	b.Provide("s1", "yes")

	select {
	case resp := <-done:
		require.Equal(t, "yes", resp)
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not return")
	}
	require.False(t, b.Blocked("s1"))
}

func TestAwaitReturnsOnContextCancel(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Await(ctx, "s2")
	require.Error(t, err)
}

func TestBlockedSessionsListsActiveWaiters(t *testing.T) {
	b := New()
	go b.Await(context.Background(), "x")
	require.Eventually(t, func() bool {
		for _, n := range b.BlockedSessions() {
			if n == "x" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	b.Provide("x", "ok")
}
