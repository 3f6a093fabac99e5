package server

import (
	"errors"
	"net"
	"strings"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"parley/internal/credential"
	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/protocol"
	"parley/internal/secure"
)

// session is one accepted connection: its secure channel, and, once
// authenticated, its roster identity. The username is bound at most once
// and never reassigned.
type session struct {
	id   string
	srv  *Server
	conn net.Conn
	log  *logging.Logger

	ch *secure.Channel

	name          domain.Username
	authenticated bool

	closeOnce sync.Once
}

// Name returns the bound username. Only meaningful once authenticated.
func (s *session) Name() domain.Username { return s.name }

// deliver sends one envelope to this session's peer. A write failure
// tears the session down asynchronously so a stuck peer cannot stall the
// sender's goroutine.
func (s *session) deliver(env protocol.Envelope) error {
	if err := s.ch.Send(env); err != nil {
		s.log.Warningf("delivery failed: %v", err)
		go s.close()
		return err
	}
	return nil
}

// run owns the whole connection lifecycle. It is the session goroutine's
// body; every exit path funnels through close exactly once.
func (s *session) run() {
	defer s.close()

	key, err := protocol.ServerHandshake(s.conn)
	if err != nil {
		s.log.Warningf("handshake aborted: %v", err)
		return
	}
	if s.srv.cfg.RequireProof {
		keyDER, err := protocol.RequestProof(s.conn)
		if err != nil {
			s.log.Warningf("possession proof failed: %v", err)
			crypto.Wipe(key)
			return
		}
		s.log.Debugf("peer proved possession of key %s", crypto.Fingerprint(keyDER))
	}
	ch, err := secure.NewChannel(s.conn, key)
	crypto.Wipe(key)
	if err != nil {
		s.log.Errorf("channel setup: %v", err)
		return
	}
	s.ch = ch

	auth := &authenticator{
		ch:     ch,
		creds:  s.srv.creds,
		budget: s.srv.cfg.AuthRetries,
		log:    s.log,
	}
	username, err := auth.Run()
	if err != nil {
		if !errors.Is(err, ErrAuthExhausted) {
			s.log.Warningf("authentication aborted: %v", err)
		}
		return
	}

	s.name = username
	s.authenticated = true
	s.log.Infof("authenticated as %s", username)
	s.srv.audit.Record("user authenticated: %s (session %s)", username, s.id)
	s.srv.roster.Join(s)

	s.chatLoop()
}

// chatLoop relays traffic until the peer quits or the channel dies.
func (s *session) chatLoop() {
	for {
		env, err := s.ch.Receive()
		if err != nil {
			if errors.Is(err, secure.ErrChannelFailure) {
				s.log.Warningf("channel failure, tearing down: %v", err)
			} else {
				s.log.Infof("disconnected: %v", err)
			}
			return
		}

		switch env.Kind {
		case protocol.KindPublicKey:
			s.handlePublicKey(env.Key)
		case protocol.KindChat:
			s.handleChat(*env.Chat)
		case protocol.KindCommand:
			if done := s.handleCommand(env.Command); done {
				return
			}
		default:
			s.log.Warningf("dropping unexpected %s envelope", env.Kind)
		}
	}
}

func (s *session) handlePublicKey(der []byte) {
	if _, err := crypto.ParsePublicKey(der); err != nil {
		s.log.Warningf("rejecting malformed public key: %v", err)
		return
	}
	s.srv.directory.Set(s.name, der)
	s.log.Debugf("registered key %s for %s", crypto.Fingerprint(der), s.name)
	s.srv.pushDirectory()
}

func (s *session) handleChat(msg domain.ChatMessage) {
	// The sender identity is the session's, whatever the peer claims.
	msg.From = s.name

	if msg.IsDirect() {
		if !s.srv.roster.Deliver(msg, msg.To) {
			s.log.Debugf("dropped direct message for absent user %s", msg.To)
		}
		return
	}
	s.srv.roster.Broadcast(msg, s)
}

// handleCommand services a steady-state command, returning true when the
// session should end.
func (s *session) handleCommand(cmd string) bool {
	switch {
	case cmd == protocol.CmdQuit:
		s.log.Infof("quit requested")
		return true

	case cmd == protocol.CmdUserInfo:
		info, ok := s.srv.creds.Info(s.name)
		if !ok {
			s.deliverCommand(protocol.PrefixUserInfo + "record not found")
			return false
		}
		s.deliverCommand(protocol.PrefixUserInfo + info.Summary())

	case strings.HasPrefix(cmd, protocol.PrefixChangePassword):
		s.handleChangePassword(cmd)

	default:
		s.deliverCommand(protocol.PrefixUnknownCommand + firstToken(cmd))
	}
	return false
}

func (s *session) handleChangePassword(cmd string) {
	oldPass, newPass, ok := protocol.ChangePasswordArgs(cmd)
	if !ok {
		s.deliverCommand(protocol.PrefixPasswordError + "malformed request")
		return
	}
	if err := s.srv.creds.ChangePassword(s.name, oldPass, newPass); err != nil {
		reason := "current password is incorrect"
		if errors.Is(err, credential.ErrWeakPassword) {
			reason = "new password does not meet the strength policy"
		}
		s.deliverCommand(protocol.PrefixPasswordError + reason)
		return
	}
	s.deliverCommand(protocol.PrefixPasswordChanged + "password updated")
}

func (s *session) deliverCommand(cmd string) {
	_ = s.deliver(protocol.Command(cmd))
}

// close runs the teardown exactly once, whichever path got here first:
// roster removal with departure notice, directory removal with a pushed
// update, socket close, then server bookkeeping.
func (s *session) close() {
	s.closeOnce.Do(func() {
		if s.authenticated {
			// Only the session that still owns the roster entry may prune
			// the directory; a replaced session must not evict the key its
			// successor published.
			if s.srv.roster.Leave(s) && s.srv.directory.Remove(s.name) {
				s.srv.pushDirectory()
			}
			s.srv.audit.Record("user disconnected: %s (session %s)", s.name, s.id)
		}
		_ = s.conn.Close()
		s.srv.dropSession(s)
		s.log.Debugf("closed")
	})
}

// firstToken bounds what an unknown command echo can carry.
func firstToken(cmd string) string {
	if i := strings.IndexByte(cmd, ':'); i >= 0 {
		cmd = cmd[:i]
	}
	if len(cmd) > 32 {
		cmd = cmd[:32]
	}
	return cmd
}
