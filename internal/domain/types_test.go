package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUsernameCanonicalForm(t *testing.T) {
	require.Equal(t, "bob", Username("  Bob ").Key())
	require.True(t, Username("Bob").Equal("bob"))
	require.True(t, Username("BOB").Equal("  bob  "))
	require.False(t, Username("bob").Equal("bobby"))

	require.True(t, Username("").IsEmpty())
	require.True(t, Username("   ").IsEmpty())
	require.False(t, Username("x").IsEmpty())

	// The display form never changes.
	require.Equal(t, "  Bob ", Username("  Bob ").String())
}

func TestChatMessageKinds(t *testing.T) {
	b := NewBroadcast("alice", "hi all")
	require.False(t, b.IsDirect())
	require.False(t, b.IsNotice())
	require.False(t, b.Timestamp.IsZero())

	d := NewDirect("alice", "bob", "c2VjcmV0")
	require.True(t, d.IsDirect())
	require.False(t, d.IsNotice())

	n := NewNotice("alice has joined")
	require.False(t, n.IsDirect())
	require.True(t, n.IsNotice())
	require.Equal(t, SystemUser, n.From)
}

func TestUserInfoSummary(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	fresh := UserInfo{Username: "alice", CreatedAt: created, Active: true}
	s := fresh.Summary()
	require.Contains(t, s, "user=alice")
	require.Contains(t, s, "last_login=never")
	require.Contains(t, s, "status=active")

	seen := UserInfo{
		Username:    "bob",
		CreatedAt:   created,
		LastLoginAt: created.Add(48 * time.Hour),
		Active:      false,
	}
	s = seen.Summary()
	require.Contains(t, s, "last_login=2026-03-03")
	require.Contains(t, s, "status=deactivated")
}

func TestAuthOutcomes(t *testing.T) {
	require.True(t, Success().Authenticated)
	require.False(t, Success().Retryable)

	r := Retry("invalid credentials")
	require.False(t, r.Authenticated)
	require.True(t, r.Retryable)
	require.Equal(t, "invalid credentials", r.Reason)

	f := Terminal("budget exhausted")
	require.False(t, f.Authenticated)
	require.False(t, f.Retryable)
}
