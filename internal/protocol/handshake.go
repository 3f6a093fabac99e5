package protocol

import (
	"crypto/rsa"
	"fmt"
	"io"

	"parley/internal/crypto"
)

// HandshakeError wraps any failure during key establishment or the
// possession proof. It is fatal: the connection must be closed, never
// retried.
type HandshakeError struct {
	Step string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake: %s: %v", e.Step, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

func failed(step string, err error) error {
	return &HandshakeError{Step: step, Err: err}
}

// ServerHandshake runs the responder side of the key exchange: generate an
// ephemeral RSA-2048 pair for this connection only, send the public half as
// raw DER, and decrypt the returned session key with the ephemeral private
// half. The ephemeral key never persists beyond this call.
func ServerHandshake(conn io.ReadWriter) ([]byte, error) {
	eph, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, failed("generate ephemeral key", err)
	}
	pubDER, err := crypto.MarshalPublicKey(&eph.PublicKey)
	if err != nil {
		return nil, failed("encode ephemeral key", err)
	}
	if err := WriteFrame(conn, pubDER); err != nil {
		return nil, failed("send ephemeral key", err)
	}

	sealed, err := ReadFrame(conn)
	if err != nil {
		return nil, failed("receive session key", err)
	}
	key, err := crypto.Decrypt(eph, sealed)
	if err != nil {
		return nil, failed("decrypt session key", err)
	}
	if len(key) != crypto.SessionKeyBytes {
		return nil, failed("decrypt session key",
			fmt.Errorf("got %d bytes, want %d", len(key), crypto.SessionKeyBytes))
	}
	return key, nil
}

// ClientHandshake runs the initiator side: receive the responder's ephemeral
// public key, generate a fresh 256-bit session key, and return it encrypted
// under that public key. No key material crosses the wire unencrypted.
func ClientHandshake(conn io.ReadWriter) ([]byte, error) {
	pubDER, err := ReadFrame(conn)
	if err != nil {
		return nil, failed("receive ephemeral key", err)
	}
	pub, err := crypto.ParsePublicKey(pubDER)
	if err != nil {
		return nil, failed("parse ephemeral key", err)
	}

	key, err := crypto.NewSessionKey()
	if err != nil {
		return nil, failed("generate session key", err)
	}
	sealed, err := crypto.Encrypt(pub, key)
	if err != nil {
		return nil, failed("encrypt session key", err)
	}
	if err := WriteFrame(conn, sealed); err != nil {
		return nil, failed("send session key", err)
	}
	return key, nil
}

// RequestProof runs the responder side of the challenge-response step and
// returns the DER key the peer presented. The proof only demonstrates
// possession of the matching private key within this session; the key is
// not checked against any registered identity.
func RequestProof(conn io.ReadWriter) ([]byte, error) {
	keyDER, err := ReadFrame(conn)
	if err != nil {
		return nil, failed("receive identity key", err)
	}
	pub, err := crypto.ParsePublicKey(keyDER)
	if err != nil {
		return nil, failed("parse identity key", err)
	}

	challenge, err := crypto.NewChallenge()
	if err != nil {
		return nil, failed("generate challenge", err)
	}
	if err := WriteFrame(conn, challenge); err != nil {
		return nil, failed("send challenge", err)
	}

	sig, err := ReadFrame(conn)
	if err != nil {
		return nil, failed("receive signature", err)
	}
	if err := crypto.Verify(pub, challenge, sig); err != nil {
		return nil, failed("verify signature", err)
	}
	return keyDER, nil
}

// ProvePossession runs the initiator side of the challenge-response step,
// presenting identity's public half and signing the responder's challenge.
func ProvePossession(conn io.ReadWriter, identity *rsa.PrivateKey) error {
	keyDER, err := crypto.MarshalPublicKey(&identity.PublicKey)
	if err != nil {
		return failed("encode identity key", err)
	}
	if err := WriteFrame(conn, keyDER); err != nil {
		return failed("send identity key", err)
	}

	challenge, err := ReadFrame(conn)
	if err != nil {
		return failed("receive challenge", err)
	}
	sig, err := crypto.Sign(identity, challenge)
	if err != nil {
		return failed("sign challenge", err)
	}
	if err := WriteFrame(conn, sig); err != nil {
		return failed("send signature", err)
	}
	return nil
}
