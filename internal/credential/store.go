package credential

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"parley/internal/audit"
	"parley/internal/domain"
)

// Rejection reasons. These surface as specific errors, never a generic
// failure, and map onto the terse reason strings sent to peers.
var (
	ErrEmptyField   = errors.New("credential: username and password must not be empty")
	ErrReservedName = errors.New("credential: username is reserved")
	ErrExists       = errors.New("credential: username already exists")
	ErrWeakPassword = errors.New("credential: password does not meet the strength policy")
	ErrBadLogin     = errors.New("credential: invalid credentials")
	ErrInactive     = errors.New("credential: account is deactivated")
	ErrUnknownUser  = errors.New("credential: no such user")
)

// Credential is one stored account record. It never leaves this package;
// external callers only see the UserInfo projection.
type Credential struct {
	Username    string    `cbor:"1,keyasint"` // display form, as registered
	Salt        []byte    `cbor:"2,keyasint"`
	Hash        []byte    `cbor:"3,keyasint"`
	CreatedAt   time.Time `cbor:"4,keyasint"`
	LastLoginAt time.Time `cbor:"5,keyasint,omitempty"`
	Active      bool      `cbor:"6,keyasint"`
}

func (c *Credential) info() domain.UserInfo {
	return domain.UserInfo{
		Username:    domain.Username(c.Username),
		CreatedAt:   c.CreatedAt,
		LastLoginAt: c.LastLoginAt,
		Active:      c.Active,
	}
}

// Store is the thread-safe credential store. One coarse lock serializes all
// mutations so the in-memory map and the on-disk blob cannot diverge
// structurally; a persistence failure is logged and audited but does not
// roll back the in-memory mutation.
type Store struct {
	mu    sync.Mutex
	path  string
	users map[string]*Credential // keyed by domain.Username.Key()
	audit *audit.Log
}

// Open loads the store at path. A missing or corrupt file yields an empty
// store, not an error.
func Open(path string, aud *audit.Log) (*Store, error) {
	s := &Store{path: path, users: make(map[string]*Credential), audit: aud}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read store: %w", err)
	}
	if err := cbor.Unmarshal(b, &s.users); err != nil {
		// Corrupt store: start empty rather than refuse to serve.
		aud.Record("credential store %s unreadable, starting empty: %v", path, err)
		s.users = make(map[string]*Credential)
	}
	return s, nil
}

// Register creates a new account. It fails on an empty field, a duplicate
// username (case-insensitive), or a policy-weak password.
func (s *Store) Register(username domain.Username, password string) error {
	if username.IsEmpty() || len(password) == 0 {
		s.audit.Record("registration rejected: empty username or password")
		return ErrEmptyField
	}
	// The notice sender must stay unregistrable, or its broadcasts would
	// render as server notices on every client.
	if username.Equal(domain.SystemUser) {
		s.audit.Record("registration rejected: reserved username %q", username)
		return ErrReservedName
	}
	if err := CheckPassword(password); err != nil {
		s.audit.Record("registration rejected for %q: weak password", username)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := username.Key()
	if _, ok := s.users[key]; ok {
		s.audit.Record("registration rejected: username %q already exists", username)
		return ErrExists
	}

	salt, err := newSalt()
	if err != nil {
		return err
	}
	s.users[key] = &Credential{
		Username:  username.String(),
		Salt:      salt,
		Hash:      deriveHash(password, salt),
		CreatedAt: time.Now(),
		Active:    true,
	}
	s.persist()
	s.audit.Record("user registered: %s", username)
	return nil
}

// Authenticate verifies a username/password pair. It fails for unknown or
// deactivated accounts and updates the last-login time on success.
func (s *Store) Authenticate(username domain.Username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateLocked(username, password)
}

func (s *Store) authenticateLocked(username domain.Username, password string) error {
	cred, ok := s.users[username.Key()]
	if !ok {
		s.audit.Record("authentication failed: user %q not found", username)
		return ErrBadLogin
	}
	if !cred.Active {
		s.audit.Record("authentication failed: user %q is deactivated", username)
		return ErrInactive
	}
	if !verifyHash(password, cred.Salt, cred.Hash) {
		s.audit.Record("authentication failed: invalid password for %q", username)
		return ErrBadLogin
	}
	cred.LastLoginAt = time.Now()
	s.persist()
	s.audit.Record("authentication successful: %s", username)
	return nil
}

// ChangePassword replaces the salt and hash after verifying the old
// password and checking the new one against the policy. Creation and
// last-login times are preserved.
func (s *Store) ChangePassword(username domain.Username, oldPass, newPass string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authenticateLocked(username, oldPass); err != nil {
		return err
	}
	if err := CheckPassword(newPass); err != nil {
		s.audit.Record("password change rejected for %q: weak password", username)
		return err
	}

	cred := s.users[username.Key()]
	salt, err := newSalt()
	if err != nil {
		return err
	}
	cred.Salt = salt
	cred.Hash = deriveHash(newPass, salt)
	s.persist()
	s.audit.Record("password changed: %s", username)
	return nil
}

// Deactivate soft-deletes an account. The record remains queryable.
func (s *Store) Deactivate(username domain.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.users[username.Key()]
	if !ok {
		return ErrUnknownUser
	}
	cred.Active = false
	s.persist()
	s.audit.Record("user deactivated: %s", username)
	return nil
}

// Remove hard-deletes an account. Used by the admin reset-password flow,
// which deactivates, removes, and re-registers.
func (s *Store) Remove(username domain.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username.Key()]; !ok {
		return ErrUnknownUser
	}
	delete(s.users, username.Key())
	s.persist()
	s.audit.Record("user removed: %s", username)
	return nil
}

// Info returns the read-only projection of one account.
func (s *Store) Info(username domain.Username) (domain.UserInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.users[username.Key()]
	if !ok {
		return domain.UserInfo{}, false
	}
	return cred.info(), true
}

// List returns projections of every account, ordered by username.
func (s *Store) List() []domain.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.UserInfo, 0, len(s.users))
	for _, cred := range s.users {
		out = append(out, cred.info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Username.Key() < out[j].Username.Key()
	})
	return out
}

// Count returns the number of stored accounts, active or not.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// persist rewrites the whole store file. Callers hold s.mu. Failure is
// flagged, not fixed: the in-memory state stays ahead of disk until the
// next successful write.
func (s *Store) persist() {
	b, err := cbor.Marshal(s.users)
	if err != nil {
		s.audit.Record("credential store encode failed: %v", err)
		return
	}
	if err := writeFileAtomic(s.path, b, 0o600); err != nil {
		s.audit.Record("credential store save failed: %v", err)
	}
}
