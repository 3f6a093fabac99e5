package server

import (
	"errors"
	"fmt"

	"gopkg.in/op/go-logging.v1"

	"parley/internal/credential"
	"parley/internal/domain"
	"parley/internal/protocol"
)

// ErrAuthExhausted reports that a connection spent its whole retry budget.
var ErrAuthExhausted = errors.New("server: authentication retry budget exhausted")

// channel is the envelope transport the authenticator drives. Satisfied by
// *secure.Channel.
type channel interface {
	Send(env protocol.Envelope) error
	Receive() (protocol.Envelope, error)
}

// authenticator runs the login/registration state machine over an
// established secure channel:
//
//	AwaitingType -> {LoginFlow | RegisterFlow} -> Verifying ->
//	  {Authenticated | Retry -> AwaitingType | Failed}
//
// The retry budget is shared across both flows; an unrecognized flow
// choice costs nothing and repeats AwaitingType.
type authenticator struct {
	ch     channel
	creds  *credential.Store
	budget int
	log    *logging.Logger
}

// Run drives the machine to a terminal state. On success it returns the
// username to bind, exactly once, to the session. On failure the returned
// error is either an I/O failure or ErrAuthExhausted; either way the
// caller closes the connection.
func (a *authenticator) Run() (domain.Username, error) {
	attempts := 0
	for {
		if err := a.ch.Send(protocol.Command(protocol.CmdAuthRequest)); err != nil {
			return "", err
		}
		choice, err := a.readCommand()
		if err != nil {
			return "", err
		}

		var (
			username domain.Username
			outcome  domain.AuthOutcome
		)
		switch choice {
		case protocol.CmdLogin:
			username, outcome, err = a.loginFlow()
		case protocol.CmdRegister:
			username, outcome, err = a.registerFlow()
		default:
			// Not an attempt; tell the peer and wait for a valid choice.
			if err := a.ch.Send(protocol.Command(protocol.PrefixAuthError + "unrecognized choice")); err != nil {
				return "", err
			}
			continue
		}
		if err != nil {
			return "", err
		}

		if outcome.Authenticated {
			if err := a.ch.Send(protocol.Command(protocol.CmdAuthSuccess)); err != nil {
				return "", err
			}
			return username, nil
		}

		attempts++
		if attempts >= a.budget {
			msg := protocol.PrefixAuthFailed + outcome.Reason
			if err := a.ch.Send(protocol.Command(msg)); err != nil {
				return "", err
			}
			a.log.Warningf("authentication failed after %d attempts", attempts)
			return "", ErrAuthExhausted
		}
		msg := fmt.Sprintf("%s%s (attempt %d of %d)",
			protocol.PrefixAuthRetry, outcome.Reason, attempts, a.budget)
		if err := a.ch.Send(protocol.Command(msg)); err != nil {
			return "", err
		}
	}
}

func (a *authenticator) loginFlow() (domain.Username, domain.AuthOutcome, error) {
	username, password, err := a.collectCredentials(protocol.CmdLoginRequest)
	if err != nil {
		return "", domain.AuthOutcome{}, err
	}
	if err := a.creds.Authenticate(username, password); err != nil {
		return "", domain.Retry(rejectionReason(err)), nil
	}
	return username, domain.Success(), nil
}

func (a *authenticator) registerFlow() (domain.Username, domain.AuthOutcome, error) {
	username, password, err := a.collectCredentials(protocol.CmdRegisterRequest)
	if err != nil {
		return "", domain.AuthOutcome{}, err
	}
	// A duplicate username is retryable: the same connection may switch
	// to the login flow instead.
	if err := a.creds.Register(username, password); err != nil {
		return "", domain.Retry(rejectionReason(err)), nil
	}
	return username, domain.Success(), nil
}

// collectCredentials prompts with the flow's request command and reads the
// username and password as two separate envelopes.
func (a *authenticator) collectCredentials(request string) (domain.Username, string, error) {
	if err := a.ch.Send(protocol.Command(request)); err != nil {
		return "", "", err
	}
	username, err := a.readCommand()
	if err != nil {
		return "", "", err
	}
	password, err := a.readCommand()
	if err != nil {
		return "", "", err
	}
	return domain.Username(username), password, nil
}

// readCommand reads the next envelope, requiring a command payload. Any
// other kind during authentication is a protocol violation and fatal.
func (a *authenticator) readCommand() (string, error) {
	env, err := a.ch.Receive()
	if err != nil {
		return "", err
	}
	if env.Kind != protocol.KindCommand {
		return "", fmt.Errorf("server: unexpected %s envelope during authentication", env.Kind)
	}
	return env.Command, nil
}

// rejectionReason maps store errors onto the terse, enumerated reason
// strings sent to peers. Nothing else ever crosses the wire.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, credential.ErrExists):
		return "username already exists"
	case errors.Is(err, credential.ErrWeakPassword):
		return "password does not meet the strength policy"
	case errors.Is(err, credential.ErrEmptyField):
		return "username and password must not be empty"
	case errors.Is(err, credential.ErrReservedName):
		return "username is reserved"
	case errors.Is(err, credential.ErrInactive):
		return "account is deactivated"
	default:
		return "invalid credentials"
	}
}
