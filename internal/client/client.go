package client

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/protocol"
	"parley/internal/secure"
)

// Config selects the relay and the local identity material.
type Config struct {
	// Addr is the relay's TCP address.
	Addr string
	// KeyDir holds the identity key pair, generated on first use.
	KeyDir string
	// Proof runs the challenge-response possession proof after the key
	// exchange. Must match the relay's setting.
	Proof bool
}

// Callbacks is the notification surface for a presentation layer. Any nil
// field is simply skipped.
type Callbacks struct {
	AuthenticationRequired func()
	Connected              func(username domain.Username)
	Message                func(msg domain.ChatMessage)
	ServerNotice           func(text string)
	Disconnected           func()
}

// ErrNotConnected is returned when an operation needs a live channel.
var ErrNotConnected = errors.New("client: not connected")

// Client is one connection to the relay.
type Client struct {
	cfg Config
	cb  Callbacks

	conn net.Conn
	ch   *secure.Channel

	identity    *rsa.PrivateKey
	identityDER []byte

	mu       sync.Mutex
	username domain.Username
	keys     map[string][]byte // directory cache, canonical username -> DER

	authDone  chan domain.AuthOutcome
	closeOnce sync.Once
}

// New builds a client; Connect establishes the session.
func New(cfg Config, cb Callbacks) *Client {
	return &Client{
		cfg:      cfg,
		cb:       cb,
		keys:     make(map[string][]byte),
		authDone: make(chan domain.AuthOutcome, 1),
	}
}

// Connect dials the relay, establishes the secure channel, and waits for
// the relay's authentication request, surfacing it via the
// AuthenticationRequired callback. Handshake failures are fatal; callers
// must reconnect rather than retry in place.
func (c *Client) Connect() error {
	identity, err := crypto.LoadOrCreateKeyPair(c.cfg.KeyDir)
	if err != nil {
		return fmt.Errorf("client: identity keys: %w", err)
	}
	identityDER, err := crypto.MarshalPublicKey(&identity.PublicKey)
	if err != nil {
		return fmt.Errorf("client: identity keys: %w", err)
	}

	conn, err := net.Dial("tcp", c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", c.cfg.Addr, err)
	}

	key, err := protocol.ClientHandshake(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	if c.cfg.Proof {
		if err := protocol.ProvePossession(conn, identity); err != nil {
			crypto.Wipe(key)
			_ = conn.Close()
			return err
		}
	}
	ch, err := secure.NewChannel(conn, key)
	crypto.Wipe(key)
	if err != nil {
		_ = conn.Close()
		return err
	}

	env, err := ch.Receive()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("client: awaiting auth request: %w", err)
	}
	if env.Kind != protocol.KindCommand || env.Command != protocol.CmdAuthRequest {
		_ = conn.Close()
		return fmt.Errorf("client: expected %s, got %s", protocol.CmdAuthRequest, env.Kind)
	}

	c.identity = identity
	c.identityDER = identityDER
	c.conn = conn
	c.ch = ch
	c.notifyAuthRequired()
	return nil
}

// SubmitAuthentication runs one login or registration attempt. A retryable
// outcome means the relay has already issued the next authentication
// request and another attempt may follow; a terminal failure means the
// relay is closing the connection.
func (c *Client) SubmitAuthentication(kind domain.AuthKind, username domain.Username, password string) (domain.AuthOutcome, error) {
	if c.ch == nil {
		return domain.AuthOutcome{}, ErrNotConnected
	}

	if err := c.ch.Send(protocol.Command(string(kind))); err != nil {
		return domain.AuthOutcome{}, err
	}

	request, err := c.readCommand()
	if err != nil {
		return domain.AuthOutcome{}, err
	}
	want := protocol.CmdLoginRequest
	if kind == domain.AuthRegister {
		want = protocol.CmdRegisterRequest
	}
	if request != want {
		return domain.AuthOutcome{}, fmt.Errorf("client: expected %s, got %q", want, request)
	}

	if err := c.ch.Send(protocol.Command(username.String())); err != nil {
		return domain.AuthOutcome{}, err
	}
	if err := c.ch.Send(protocol.Command(password)); err != nil {
		return domain.AuthOutcome{}, err
	}

	response, err := c.readCommand()
	if err != nil {
		return domain.AuthOutcome{}, err
	}

	switch {
	case response == protocol.CmdAuthSuccess:
		c.mu.Lock()
		c.username = username
		c.mu.Unlock()
		// Publish our key for the directory, then hand the stream to
		// the listener.
		if err := c.ch.Send(protocol.PublicKey(c.identityDER)); err != nil {
			return domain.AuthOutcome{}, err
		}
		go c.listen()
		c.notifyConnected(username)
		c.resolveAuth(domain.Success())
		return domain.Success(), nil

	case strings.HasPrefix(response, protocol.PrefixAuthRetry):
		reason := strings.TrimPrefix(response, protocol.PrefixAuthRetry)
		if err := c.expectAuthRequest(); err != nil {
			return domain.AuthOutcome{}, err
		}
		c.notifyAuthRequired()
		return domain.Retry(reason), nil

	case strings.HasPrefix(response, protocol.PrefixAuthFailed):
		reason := strings.TrimPrefix(response, protocol.PrefixAuthFailed)
		outcome := domain.Terminal(reason)
		c.resolveAuth(outcome)
		c.close()
		return outcome, nil

	default:
		return domain.AuthOutcome{}, fmt.Errorf("client: unexpected auth response %q", response)
	}
}

// AwaitAuthentication returns a one-shot channel resolved when the
// authentication exchange reaches a terminal state. Interactive front ends
// block on it instead of polling.
func (c *Client) AwaitAuthentication() <-chan domain.AuthOutcome {
	return c.authDone
}

// Username returns the authenticated username, empty before that.
func (c *Client) Username() domain.Username {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// SendChatMessage broadcasts plaintext to every other member.
func (c *Client) SendChatMessage(text string) error {
	if c.ch == nil {
		return ErrNotConnected
	}
	return c.ch.Send(protocol.Chat(domain.NewBroadcast(c.Username(), text)))
}

// SendPrivateMessage encrypts text with the recipient's directory key and
// sends it as a directed message. The relay never sees the plaintext.
func (c *Client) SendPrivateMessage(to domain.Username, text string) error {
	if c.ch == nil {
		return ErrNotConnected
	}
	body, err := c.encryptFor(to, text)
	if err != nil {
		return err
	}
	return c.ch.Send(protocol.Chat(domain.NewDirect(c.Username(), to, body)))
}

// ChangePassword asks the relay to rotate the account password. The result
// arrives as a server notice.
func (c *Client) ChangePassword(oldPass, newPass string) error {
	if c.ch == nil {
		return ErrNotConnected
	}
	return c.ch.Send(protocol.Command(protocol.PrefixChangePassword + oldPass + "|" + newPass))
}

// RequestUserInfo asks for the account summary, delivered as a notice.
func (c *Client) RequestUserInfo() error {
	if c.ch == nil {
		return ErrNotConnected
	}
	return c.ch.Send(protocol.Command(protocol.CmdUserInfo))
}

// Disconnect announces the quit and closes the connection.
func (c *Client) Disconnect() {
	if c.ch != nil {
		_ = c.ch.Send(protocol.Command(protocol.CmdQuit))
	}
	c.close()
}

// listen is the read loop after authentication. Any receive error ends the
// session; there is no recovery from a failed channel.
func (c *Client) listen() {
	for {
		env, err := c.ch.Receive()
		if err != nil {
			c.close()
			return
		}
		switch env.Kind {
		case protocol.KindDirectory:
			c.updateKeys(env.Directory)
		case protocol.KindChat:
			c.handleChat(*env.Chat)
		case protocol.KindCommand:
			c.notifyServerNotice(renderResponse(env.Command))
		}
	}
}

func (c *Client) handleChat(msg domain.ChatMessage) {
	if msg.IsNotice() {
		c.notifyServerNotice(msg.Content)
		return
	}
	if msg.IsDirect() && msg.To.Equal(c.Username()) {
		plaintext, err := c.decryptPrivate(msg.Content)
		if err != nil {
			c.notifyServerNotice(fmt.Sprintf("private message from %s could not be decrypted", msg.From))
			return
		}
		msg.Content = plaintext
	}
	c.notifyMessage(msg)
}

func (c *Client) readCommand() (string, error) {
	env, err := c.ch.Receive()
	if err != nil {
		return "", err
	}
	if env.Kind != protocol.KindCommand {
		return "", fmt.Errorf("client: unexpected %s envelope", env.Kind)
	}
	return env.Command, nil
}

func (c *Client) expectAuthRequest() error {
	cmd, err := c.readCommand()
	if err != nil {
		return err
	}
	if cmd != protocol.CmdAuthRequest {
		return fmt.Errorf("client: expected %s, got %q", protocol.CmdAuthRequest, cmd)
	}
	return nil
}

func (c *Client) resolveAuth(outcome domain.AuthOutcome) {
	select {
	case c.authDone <- outcome:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.resolveAuth(domain.Terminal("disconnected"))
		c.notifyDisconnected()
	})
}

func (c *Client) notifyAuthRequired() {
	if c.cb.AuthenticationRequired != nil {
		c.cb.AuthenticationRequired()
	}
}

func (c *Client) notifyConnected(u domain.Username) {
	if c.cb.Connected != nil {
		c.cb.Connected(u)
	}
}

func (c *Client) notifyMessage(msg domain.ChatMessage) {
	if c.cb.Message != nil {
		c.cb.Message(msg)
	}
}

func (c *Client) notifyServerNotice(text string) {
	if c.cb.ServerNotice != nil {
		c.cb.ServerNotice(text)
	}
}

func (c *Client) notifyDisconnected() {
	if c.cb.Disconnected != nil {
		c.cb.Disconnected()
	}
}

// renderResponse strips the wire prefixes off server responses for
// display.
func renderResponse(cmd string) string {
	for _, p := range []string{
		protocol.PrefixPasswordChanged,
		protocol.PrefixPasswordError,
		protocol.PrefixUserInfo,
		protocol.PrefixUnknownCommand,
	} {
		if rest, ok := strings.CutPrefix(cmd, p); ok {
			return rest
		}
	}
	return cmd
}
