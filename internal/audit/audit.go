// Package audit implements the append-only audit trail.
//
// One line is written per event, "<timestamp>: <event>", and the file is
// never read back by the system; it exists for operators. Write failures
// are swallowed after being noted once so auditing can never take the
// server down.
package audit

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Log appends timestamped event lines to a single file.
type Log struct {
	mu   sync.Mutex
	path string

	warned bool
}

// New returns a Log that appends to path. The file is created on first
// write. A nil *Log is valid and discards every event.
func New(path string) *Log {
	return &Log{path: path}
}

// Record appends one event line.
func (l *Log) Record(format string, args ...any) {
	if l == nil || l.path == "" {
		return
	}
	line := fmt.Sprintf("%s: %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		l.warn(err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		l.warn(err)
	}
}

func (l *Log) warn(err error) {
	if l.warned {
		return
	}
	l.warned = true
	fmt.Fprintf(os.Stderr, "audit: cannot write %s: %v\n", l.path, err)
}
