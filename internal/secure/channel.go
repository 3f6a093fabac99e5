package secure

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"parley/internal/protocol"
)

// ErrChannelFailure reports a frame that could not be authenticated or
// decoded. The channel is unusable afterwards; callers must tear the
// connection down.
var ErrChannelFailure = errors.New("secure: channel failure")

// Channel is a symmetric encrypt/decrypt envelope over an established
// session key. Send may be called concurrently; Receive must be called from
// a single reader.
type Channel struct {
	conn io.ReadWriter
	aead cipher.AEAD

	writeMu sync.Mutex
}

// NewChannel builds a channel over conn using the 256-bit session key.
func NewChannel(conn io.ReadWriter, key []byte) (*Channel, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("secure: %w", err)
	}
	return &Channel{conn: conn, aead: aead}, nil
}

// Send seals one envelope and writes it as a single frame. Writes are
// serialized so concurrent senders cannot interleave frames, which keeps
// per-sender ordering intact.
func (c *Channel) Send(env protocol.Envelope) error {
	plaintext, err := env.Encode()
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteFrame(c.conn, sealed)
}

// Receive reads one frame, opens it, and decodes the envelope. Any
// authentication or decode failure returns ErrChannelFailure; I/O errors
// pass through unchanged so disconnects remain distinguishable.
func (c *Channel) Receive() (protocol.Envelope, error) {
	sealed, err := protocol.ReadFrame(c.conn)
	if err != nil {
		return protocol.Envelope{}, err
	}
	if len(sealed) < chacha20poly1305.NonceSize {
		return protocol.Envelope{}, fmt.Errorf("%w: short frame", ErrChannelFailure)
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("%w: %v", ErrChannelFailure, err)
	}
	env, err := protocol.DecodeEnvelope(plaintext)
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("%w: %v", ErrChannelFailure, err)
	}
	return env, nil
}
