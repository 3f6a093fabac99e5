package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"parley/internal/domain"
)

// Kind discriminates the envelope union.
type Kind uint8

const (
	// KindCommand carries one UTF-8 command/response string.
	KindCommand Kind = iota + 1
	// KindPublicKey carries a DER-encoded public key blob.
	KindPublicKey
	// KindChat carries one ChatMessage.
	KindChat
	// KindDirectory carries a username -> public-key-bytes mapping.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindPublicKey:
		return "public-key"
	case KindChat:
		return "chat"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Envelope is the closed union inside every sealed frame. Exactly one
// payload field is populated, selected by Kind; the receiver dispatches on
// the tag at decode time and never inspects an open-ended object graph.
type Envelope struct {
	Kind      Kind               `cbor:"1,keyasint"`
	Command   string             `cbor:"2,keyasint,omitempty"`
	Key       []byte             `cbor:"3,keyasint,omitempty"`
	Chat      *domain.ChatMessage `cbor:"4,keyasint,omitempty"`
	Directory map[string][]byte  `cbor:"5,keyasint,omitempty"`
}

// Command wraps a command string.
func Command(cmd string) Envelope {
	return Envelope{Kind: KindCommand, Command: cmd}
}

// PublicKey wraps a DER-encoded public key.
func PublicKey(der []byte) Envelope {
	return Envelope{Kind: KindPublicKey, Key: der}
}

// Chat wraps a chat message.
func Chat(msg domain.ChatMessage) Envelope {
	return Envelope{Kind: KindChat, Chat: &msg}
}

// Directory wraps a username -> public-key mapping.
func Directory(keys map[string][]byte) Envelope {
	return Envelope{Kind: KindDirectory, Directory: keys}
}

// ErrMalformedEnvelope reports an envelope whose payload does not match its
// tag, or whose tag is unknown.
var ErrMalformedEnvelope = errors.New("protocol: malformed envelope")

// Validate checks that the populated payload matches the tag.
func (e *Envelope) Validate() error {
	switch e.Kind {
	case KindCommand:
		if e.Command == "" || e.Key != nil || e.Chat != nil || e.Directory != nil {
			return ErrMalformedEnvelope
		}
	case KindPublicKey:
		if len(e.Key) == 0 || e.Command != "" || e.Chat != nil || e.Directory != nil {
			return ErrMalformedEnvelope
		}
	case KindChat:
		if e.Chat == nil || e.Command != "" || e.Key != nil || e.Directory != nil {
			return ErrMalformedEnvelope
		}
	case KindDirectory:
		if e.Directory == nil || e.Command != "" || e.Key != nil || e.Chat != nil {
			return ErrMalformedEnvelope
		}
	default:
		return ErrMalformedEnvelope
	}
	return nil
}

// Encode serializes the envelope as CBOR.
func (e Envelope) Encode() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return cbor.Marshal(e)
}

// DecodeEnvelope parses and validates a CBOR envelope.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
