package server

import (
	"sync"

	"parley/internal/domain"
)

// Directory maps usernames to the DER public keys their sessions
// submitted. It is rebuilt from submissions as sessions come and go; no
// identity is bound to a key beyond the submitting session's lifetime.
type Directory struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{keys: make(map[string][]byte)}
}

// Set records or replaces a member's public key.
func (d *Directory) Set(u domain.Username, der []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[u.Key()] = append([]byte(nil), der...)
}

// Remove drops a member's key, reporting whether anything changed.
func (d *Directory) Remove(u domain.Username) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[u.Key()]; !ok {
		return false
	}
	delete(d.keys, u.Key())
	return true
}

// Snapshot returns a copy of the full mapping, suitable for distribution.
func (d *Directory) Snapshot() map[string][]byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string][]byte, len(d.keys))
	for u, der := range d.keys {
		out[u] = append([]byte(nil), der...)
	}
	return out
}
