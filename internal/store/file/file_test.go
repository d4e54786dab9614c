package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avoronkova/go-docparse-client/internal/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "tokens.json"))
}

func TestStore_EmptyIsNotFound(t *testing.T) {
	t.Parallel()

	s := newStore(t)

	_, err := s.AccessToken()
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.RefreshToken()
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_SaveAndRead(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.SaveTokens("access-1", "refresh-1"))

	access, err := s.AccessToken()
	require.NoError(t, err)
	require.Equal(t, "access-1", access)

	refresh, err := s.RefreshToken()
	require.NoError(t, err)
	require.Equal(t, "refresh-1", refresh)
}

func TestStore_SaveOverwritesBoth(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.SaveTokens("a1", "r1"))
	require.NoError(t, s.SaveTokens("a2", "r2"))

	access, err := s.AccessToken()
	require.NoError(t, err)
	require.Equal(t, "a2", access)

	refresh, err := s.RefreshToken()
	require.NoError(t, err)
	require.Equal(t, "r2", refresh)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.SaveTokens("a", "r"))

	require.NoError(t, s.Clear())
	// Повторный Clear по пустому хранилищу — не ошибка.
	require.NoError(t, s.Clear())

	_, err := s.AccessToken()
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_FilePermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tokens.json")
	s := New(path)
	require.NoError(t, s.SaveTokens("a", "r"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_CorruptFileIsUnavailable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(path)
	_, err := s.AccessToken()
	require.ErrorIs(t, err, store.ErrUnavailable)
}
