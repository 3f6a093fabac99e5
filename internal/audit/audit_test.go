package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path)

	l.Record("server started on %s", ":7723")
	l.Record("user registered: %s", "alice")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "server started on :7723")
	require.Contains(t, lines[1], "user registered: alice")

	// Each line begins with a parseable timestamp.
	for _, line := range lines {
		ts, _, ok := strings.Cut(line, ": ")
		require.True(t, ok)
		require.NotEmpty(t, ts)
	}
}

func TestRecordNilAndEmptyAreSafe(t *testing.T) {
	var l *Log
	l.Record("discarded") // must not panic

	New("").Record("also discarded")
}

func TestRecordSurvivesUnwritablePath(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing-dir", "audit.log"))
	l.Record("first failure warns")
	l.Record("second failure is silent")
}
