package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
)

func TestFileStoreSaveLoadRoundTrips(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	rec := Record{
		Config:       config.SessionConfig{Name: "s1", Path: "/tmp/s1", Task: "do it"},
		EventHistory: []eventlog.Event{{Index: 0, Type: eventlog.Task, Producer: "user", Consumer: eventlog.ConsumerNone}},
	}
	require.NoError(t, store.Save(ctx, "s1", rec))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, rec.Config.Name, got.Config.Name)
	require.Equal(t, rec.Config.Task, got.Config.Task)
	require.Len(t, got.EventHistory, 1)
	require.Equal(t, eventlog.Task, got.EventHistory[0].Type)
}

func TestFileStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Load(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDeleteThenLoadNotFound(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", Record{Config: config.SessionConfig{Name: "s1"}}))
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err := store.Load(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreListReturnsSavedNames(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", Record{Config: config.SessionConfig{Name: "a"}}))
	require.NoError(t, store.Save(ctx, "b", Record{Config: config.SessionConfig{Name: "b"}}))

	names, err := store.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)
}
