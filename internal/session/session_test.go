package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/taskflow/internal/session"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("disk on fire")
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := session.NewFileStore(path)

	_, ok, err := store.Get(ctx, "owner_email")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "owner_email", "a@b.com"))
	require.NoError(t, store.Set(ctx, "theme", "dark"))

	value, ok, err := session.NewFileStore(path).Get(ctx, "owner_email")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, _, err = store.Get(ctx, "owner_email")
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted", func(t *testing.T) {
		s := session.New(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")))

		email, ok, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, email)
		assert.Empty(t, s.Owner())
	})

	t.Run("persist then restore", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")

		require.NoError(t, session.New(session.NewFileStore(path)).Persist(ctx, "  a@b.com "))

		s := session.New(session.NewFileStore(path))
		email, ok, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a@b.com", email)
		assert.Equal(t, "a@b.com", s.Owner())
	})

	t.Run("invalid email", func(t *testing.T) {
		s := session.New(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")))

		assert.ErrorIs(t, s.Persist(ctx, "not-an-email"), session.ErrInvalidEmail)
		assert.Empty(t, s.Owner())
	})

	t.Run("owner is fixed", func(t *testing.T) {
		s := session.New(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")))

		require.NoError(t, s.Persist(ctx, "a@b.com"))
		assert.NoError(t, s.Persist(ctx, "a@b.com"))
		assert.ErrorIs(t, s.Persist(ctx, "c@d.com"), session.ErrOwnerSet)
		assert.Equal(t, "a@b.com", s.Owner())
	})

	t.Run("malformed stored value is not an owner", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"owner_email": "not an email"}`), 0o600))

		s := session.New(session.NewFileStore(path))
		email, ok, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, email)
		assert.Empty(t, s.Owner())

		require.NoError(t, s.Persist(ctx, "a@b.com"))
		assert.Equal(t, "a@b.com", s.Owner())
	})

	t.Run("store failures", func(t *testing.T) {
		s := session.New(failingStore{})

		_, _, err := s.Restore(ctx)
		assert.Error(t, err)
		assert.Error(t, s.Persist(ctx, "a@b.com"))
		assert.Empty(t, s.Owner())
	})
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TASKFLOW_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TASKFLOW_TEST_REDIS_URL not set")
	}

	ctx := context.Background()

	store, err := session.NewRedisStore(url)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	_, ok, err := store.Get(ctx, "missing-key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "test_owner", "a@b.com"))
	value, ok, err := store.Get(ctx, "test_owner")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", value)
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := session.NewRedisStore("not a url")
	assert.Error(t, err)
}
