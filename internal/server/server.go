package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/op/go-logging.v1"

	"parley/internal/audit"
	"parley/internal/config"
	"parley/internal/credential"
	"parley/internal/protocol"
)

// DefaultAdminPassword protects the bootstrap admin account created when
// the credential store is empty. Operators are told to change it.
const DefaultAdminPassword = "Admin@123456"

// Backend hands out named loggers; satisfied by *logx.Backend.
type Backend interface {
	GetLogger(module string) *logging.Logger
}

// Server owns the listener, the roster, the key directory, and the set of
// live sessions.
type Server struct {
	cfg   *config.Server
	creds *credential.Store
	audit *audit.Log

	backend Backend
	log     *logging.Logger

	roster    *Roster
	directory *Directory

	mu       sync.Mutex
	ln       net.Listener
	sessions map[*session]struct{}
	closed   bool

	wg sync.WaitGroup
}

// New assembles a server. Call Start to begin accepting connections.
func New(cfg *config.Server, creds *credential.Store, backend Backend, aud *audit.Log) *Server {
	return &Server{
		cfg:       cfg,
		creds:     creds,
		audit:     aud,
		backend:   backend,
		log:       backend.GetLogger("server"),
		roster:    NewRoster(),
		directory: NewDirectory(),
		sessions:  make(map[*session]struct{}),
	}
}

// Start bootstraps the admin account if needed, binds the listener, and
// launches the accept loop.
func (s *Server) Start() error {
	s.bootstrapAdmin()

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Noticef("listening on %s", ln.Addr())
	s.audit.Record("server started on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listen address. Only valid after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln.Addr()
}

// Shutdown stops accepting, closes every live session, and waits for all
// session goroutines to drain.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ln := s.ln
	live := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	s.log.Noticef("shutting down: %s", s.Stats())

	if ln != nil {
		_ = ln.Close()
	}
	for _, sess := range live {
		sess.close()
	}
	s.wg.Wait()
	s.log.Noticef("shutdown complete")
	s.audit.Record("server shutdown completed")
}

// Stats is a point-in-time snapshot for logs and operators.
type Stats struct {
	Connections     int
	Authenticated   int
	ActiveUsers     []string
	RegisteredUsers int
}

func (st Stats) String() string {
	return fmt.Sprintf("connections=%d authenticated=%d registered=%d active=%v",
		st.Connections, st.Authenticated, st.RegisteredUsers, st.ActiveUsers)
}

// Stats reports current connection and account counts.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	conns := len(s.sessions)
	s.mu.Unlock()

	names := s.roster.Members()
	active := make([]string, len(names))
	for i, n := range names {
		active[i] = n.String()
	}
	return Stats{
		Connections:     conns,
		Authenticated:   len(names),
		ActiveUsers:     active,
		RegisteredUsers: s.creds.Count(),
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warningf("accept: %v", err)
			continue
		}

		sess := &session{
			id:   uuid.NewString()[:8],
			srv:  s,
			conn: conn,
		}
		sess.log = s.backend.GetLogger("session:" + sess.id)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.sessions[sess] = struct{}{}
		s.mu.Unlock()

		sess.log.Infof("connection from %s", conn.RemoteAddr())
		s.audit.Record("client connection accepted from %s (session %s)", conn.RemoteAddr(), sess.id)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run()
		}()
	}
}

func (s *Server) dropSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// pushDirectory distributes the complete username -> public key mapping to
// every connected client.
func (s *Server) pushDirectory() {
	s.roster.Publish(protocol.Directory(s.directory.Snapshot()))
}

// bootstrapAdmin seeds an admin account into an empty store so a fresh
// deployment is reachable.
func (s *Server) bootstrapAdmin() {
	if s.creds.Count() > 0 {
		return
	}
	if err := s.creds.Register("admin", DefaultAdminPassword); err != nil {
		s.log.Errorf("admin bootstrap failed: %v", err)
		return
	}
	s.log.Noticef("created default admin user %q with password %q; change it after first login",
		"admin", DefaultAdminPassword)
	s.audit.Record("default admin user created")
}
