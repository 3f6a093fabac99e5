package protocol

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/crypto"
)

type handshakeResult struct {
	key []byte
	err error
}

func TestHandshakeSharedKey(t *testing.T) {
	srv, cli := net.Pipe()
	defer srv.Close()
	defer cli.Close()

	done := make(chan handshakeResult, 1)
	go func() {
		key, err := ServerHandshake(srv)
		done <- handshakeResult{key, err}
	}()

	clientKey, err := ClientHandshake(cli)
	require.NoError(t, err)

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, clientKey, crypto.SessionKeyBytes)
	require.Equal(t, res.key, clientKey)
}

func TestHandshakeRejectsClosedPeer(t *testing.T) {
	srv, cli := net.Pipe()
	require.NoError(t, cli.Close())
	defer srv.Close()

	_, err := ServerHandshake(srv)
	var hs *HandshakeError
	require.ErrorAs(t, err, &hs)
}

func TestPossessionProof(t *testing.T) {
	identity, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	wantDER, err := crypto.MarshalPublicKey(&identity.PublicKey)
	require.NoError(t, err)

	srv, cli := net.Pipe()
	defer srv.Close()
	defer cli.Close()

	done := make(chan handshakeResult, 1)
	go func() {
		der, err := RequestProof(srv)
		done <- handshakeResult{der, err}
	}()

	require.NoError(t, ProvePossession(cli, identity))

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, wantDER, res.key)
}

func TestPossessionProofRejectsBadSignature(t *testing.T) {
	identity, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	keyDER, err := crypto.MarshalPublicKey(&identity.PublicKey)
	require.NoError(t, err)

	srv, cli := net.Pipe()
	defer srv.Close()
	defer cli.Close()

	done := make(chan handshakeResult, 1)
	go func() {
		der, err := RequestProof(srv)
		done <- handshakeResult{der, err}
	}()

	// Present the key but answer the challenge with garbage.
	require.NoError(t, WriteFrame(cli, keyDER))
	_, err = ReadFrame(cli)
	require.NoError(t, err)
	require.NoError(t, WriteFrame(cli, []byte("not a signature")))

	res := <-done
	require.Error(t, res.err)
	var hs *HandshakeError
	require.ErrorAs(t, res.err, &hs)
	require.Equal(t, "verify signature", hs.Step)
}
