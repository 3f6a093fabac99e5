package server

import (
	"fmt"
	"sort"
	"sync"

	"parley/internal/domain"
	"parley/internal/protocol"
)

// member is one authenticated, deliverable session. Implementations must
// tolerate deliver being called from any goroutine and must handle their
// own teardown on delivery failure.
type member interface {
	Name() domain.Username
	deliver(env protocol.Envelope) error
}

// Roster is the set of currently connected, authenticated sessions, keyed
// case-insensitively by username. Entries are added only after successful
// authentication and removed exactly once.
type Roster struct {
	mu      sync.RWMutex
	members map[string]member
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{members: make(map[string]member)}
}

// Join adds a member and announces the arrival to everyone else.
func (r *Roster) Join(m member) {
	r.mu.Lock()
	r.members[m.Name().Key()] = m
	r.mu.Unlock()

	r.Broadcast(domain.NewNotice(fmt.Sprintf("%s has joined", m.Name())), m)
}

// Leave removes a member and announces the departure to the remaining
// members. It reports whether this call performed the removal, so the
// departure notice cannot be sent twice.
func (r *Roster) Leave(m member) bool {
	key := m.Name().Key()

	r.mu.Lock()
	current, ok := r.members[key]
	if !ok || current != m {
		r.mu.Unlock()
		return false
	}
	delete(r.members, key)
	r.mu.Unlock()

	r.Broadcast(domain.NewNotice(fmt.Sprintf("%s has left", m.Name())), m)
	return true
}

// Broadcast delivers a message to every member except the sender.
// Delivery happens outside the roster lock; a failing recipient tears
// itself down without stalling the others.
func (r *Roster) Broadcast(msg domain.ChatMessage, except member) {
	env := protocol.Chat(msg)
	for _, m := range r.snapshot() {
		if m == except {
			continue
		}
		_ = m.deliver(env)
	}
}

// Deliver sends a message to the named member only. A message for an
// absent member is dropped; there is no delivery receipt.
func (r *Roster) Deliver(msg domain.ChatMessage, to domain.Username) bool {
	r.mu.RLock()
	m, ok := r.members[to.Key()]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return m.deliver(protocol.Chat(msg)) == nil
}

// Publish sends the same envelope to every member, sender included. Used
// for directory updates.
func (r *Roster) Publish(env protocol.Envelope) {
	for _, m := range r.snapshot() {
		_ = m.deliver(env)
	}
}

// Members returns the current usernames, sorted.
func (r *Roster) Members() []domain.Username {
	r.mu.RLock()
	out := make([]domain.Username, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Name())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Size returns the number of authenticated sessions.
func (r *Roster) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Roster) snapshot() []member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out
}
