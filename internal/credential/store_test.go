package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/audit"
)

const testPassword = "Str0ng!Pw"

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := Open(path, audit.New(""))
	require.NoError(t, err)
	return s, path
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Register("Bob", testPassword))
	require.NoError(t, s.Authenticate("Bob", testPassword))

	// Lookups are case-insensitive.
	require.NoError(t, s.Authenticate("bob", testPassword))
	require.ErrorIs(t, s.Authenticate("bob", "Wr0ng!Pass"), ErrBadLogin)
	require.ErrorIs(t, s.Authenticate("nobody", testPassword), ErrBadLogin)
}

func TestRegisterRejections(t *testing.T) {
	s, _ := newTestStore(t)

	require.ErrorIs(t, s.Register("", testPassword), ErrEmptyField)
	require.ErrorIs(t, s.Register("bob", ""), ErrEmptyField)
	require.ErrorIs(t, s.Register("bob", "weakpass"), ErrWeakPassword)

	// The notice sender is unregistrable in any casing.
	require.ErrorIs(t, s.Register("SYSTEM", testPassword), ErrReservedName)
	require.ErrorIs(t, s.Register("system", testPassword), ErrReservedName)
	require.ErrorIs(t, s.Register(" System ", testPassword), ErrReservedName)

	require.NoError(t, s.Register("Bob", testPassword))
	require.ErrorIs(t, s.Register("bob", testPassword), ErrExists)
	require.ErrorIs(t, s.Register("BOB", testPassword), ErrExists)
	require.Equal(t, 1, s.Count())
}

func TestChangePassword(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Register("alice", testPassword))

	const next = "N3w!Secret"
	require.ErrorIs(t, s.ChangePassword("alice", "Wr0ng!Pass", next), ErrBadLogin)
	require.ErrorIs(t, s.ChangePassword("alice", testPassword, "weak"), ErrWeakPassword)

	require.NoError(t, s.ChangePassword("alice", testPassword, next))
	require.ErrorIs(t, s.Authenticate("alice", testPassword), ErrBadLogin)
	require.NoError(t, s.Authenticate("alice", next))
}

func TestDeactivateAndRemove(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Register("carol", testPassword))

	require.NoError(t, s.Deactivate("carol"))
	require.ErrorIs(t, s.Authenticate("carol", testPassword), ErrInactive)

	info, ok := s.Info("carol")
	require.True(t, ok)
	require.False(t, info.Active)

	require.NoError(t, s.Remove("carol"))
	_, ok = s.Info("carol")
	require.False(t, ok)
	require.ErrorIs(t, s.Deactivate("carol"), ErrUnknownUser)
	require.ErrorIs(t, s.Remove("carol"), ErrUnknownUser)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Register("Dana", testPassword))
	require.NoError(t, s.Authenticate("Dana", testPassword))

	reopened, err := Open(path, audit.New(""))
	require.NoError(t, err)
	require.Equal(t, 1, reopened.Count())
	require.NoError(t, reopened.Authenticate("dana", testPassword))

	// The display form survives the round trip.
	info, ok := reopened.Info("DANA")
	require.True(t, ok)
	require.Equal(t, "Dana", info.Username.String())
	require.False(t, info.LastLoginAt.IsZero())
}

func TestOpenCorruptStoreStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	require.NoError(t, os.WriteFile(path, []byte("not cbor at all"), 0o600))

	s, err := Open(path, audit.New(""))
	require.NoError(t, err)
	require.Equal(t, 0, s.Count())
}

func TestList(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Register("zed", testPassword))
	require.NoError(t, s.Register("Amy", testPassword))

	infos := s.List()
	require.Len(t, infos, 2)
	require.Equal(t, "Amy", infos[0].Username.String())
	require.Equal(t, "zed", infos[1].Username.String())
}
