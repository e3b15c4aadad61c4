package contextstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "context.json"))
}

func TestStore_LoadEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "Q: hi\nA: hello"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Q: hi\nA: hello", got)
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "x"))
	require.NoError(t, s.Save(ctx, "x"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestStore_SaveIsFullReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "x"))
	require.NoError(t, s.Save(ctx, "y"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y", got)
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "something"))
	require.NoError(t, s.Clear(ctx))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	// clearing an already empty store is fine
	require.NoError(t, s.Clear(ctx))
}

func TestStore_DurableAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.json")
	ctx := context.Background()

	require.NoError(t, New(path).Save(ctx, "persisted"))

	got, err := New(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestStore_LockFileBesideStore(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "context.json"))
	require.NoError(t, s.Save(context.Background(), "x"))

	_, err := os.Stat(filepath.Join(dir, "context.lock"))
	assert.NoError(t, err)
}

func TestStore_LockContentionTimesOut(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "context.json"))
	s.lockTimeout = 200 * time.Millisecond

	// hold the lock from a competing instance
	holder := flock.New(filepath.Join(dir, "context.lock"))
	require.NoError(t, holder.Lock())
	defer func() { _ = holder.Unlock() }()

	err := s.Save(context.Background(), "blocked")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockTimeout)

	// nothing was written
	_, statErr := os.Stat(filepath.Join(dir, "context.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_CorruptFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := New(path).Load(context.Background())
	assert.Error(t, err)
}
