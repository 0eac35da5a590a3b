package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStoreAt(filepath.Join(t.TempDir(), "sessions.toml"))
	require.NoError(t, err)
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	expires := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	session := domain.Session{
		AccessToken:  "at-1",
		IDToken:      "it-1",
		RefreshToken: "rt-1",
		ExpiresAt:    expires,
	}

	require.NoError(t, store.Put(ctx, "validator@example.com", session))

	loaded, err := store.Get(ctx, "validator@example.com")
	require.NoError(t, err)
	assert.Equal(t, "at-1", loaded.AccessToken)
	assert.Equal(t, "rt-1", loaded.RefreshToken)
	assert.True(t, loaded.ExpiresAt.Equal(expires))
}

func TestGetUnknownAccount(t *testing.T) {
	store := newTempStore(t)

	_, err := store.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a@b.c", domain.Session{AccessToken: "old", RefreshToken: "old-rt"}))
	require.NoError(t, store.Put(ctx, "a@b.c", domain.Session{AccessToken: "new", RefreshToken: "new-rt"}))

	loaded, err := store.Get(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.AccessToken)
	assert.Equal(t, "new-rt", loaded.RefreshToken)

	file, err := store.readSchema()
	require.NoError(t, err)
	assert.Len(t, file.Sessions, 1)
}

func TestDeleteRemovesOnlyTargetAccount(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a@b.c", domain.Session{AccessToken: "at-a"}))
	require.NoError(t, store.Put(ctx, "x@y.z", domain.Session{AccessToken: "at-x"}))

	require.NoError(t, store.Delete(ctx, "a@b.c"))

	_, err := store.Get(ctx, "a@b.c")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	kept, err := store.Get(ctx, "x@y.z")
	require.NoError(t, err)
	assert.Equal(t, "at-x", kept.AccessToken)
}

func TestGetRejectsSessionWithoutAccessToken(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	data := "version = 1\n\n[[sessions]]\naccount = \"a@b.c\"\naccess_token = \"\"\nrefresh_token = \"rt\"\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(store.sessionsPath), 0o700))
	require.NoError(t, os.WriteFile(store.sessionsPath, []byte(data), 0o600))

	_, err := store.Get(ctx, "a@b.c")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestWriteUsesRestrictiveFileMode(t *testing.T) {
	store := newTempStore(t)

	require.NoError(t, store.Put(context.Background(), "a@b.c", domain.Session{AccessToken: "at"}))

	info, err := os.Stat(store.sessionsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadRejectsUnsupportedVersion(t *testing.T) {
	store := newTempStore(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(store.sessionsPath), 0o700))
	require.NoError(t, os.WriteFile(store.sessionsPath, []byte("version = 99\n"), 0o600))

	_, err := store.Get(context.Background(), "a@b.c")
	assert.ErrorContains(t, err, "unsupported sessions file version")
}
