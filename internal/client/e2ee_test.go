package client

import (
	"crypto/rsa"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/crypto"
	"parley/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *rsa.PrivateKey) {
	t.Helper()
	identity, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	c := New(Config{}, Callbacks{})
	c.identity = identity
	return c, identity
}

func publishKey(t *testing.T, c *Client, user string, priv *rsa.PrivateKey) {
	t.Helper()
	der, err := crypto.MarshalPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	c.updateKeys(map[string][]byte{user: der})
}

func TestEncryptForRecipientOnly(t *testing.T) {
	alice, _ := newTestClient(t)
	bob, bobKey := newTestClient(t)
	carol, _ := newTestClient(t)

	bobDER, err := crypto.MarshalPublicKey(&bobKey.PublicKey)
	require.NoError(t, err)
	alice.updateKeys(map[string][]byte{"bob": bobDER})

	body, err := alice.encryptFor("bob", "meet at noon")
	require.NoError(t, err)
	require.NotContains(t, body, "meet at noon")

	plaintext, err := bob.decryptPrivate(body)
	require.NoError(t, err)
	require.Equal(t, "meet at noon", plaintext)

	// Anyone without bob's private key, the relay included, gets nothing.
	_, err = carol.decryptPrivate(body)
	require.Error(t, err)
}

func TestEncryptForUnknownUser(t *testing.T) {
	alice, _ := newTestClient(t)
	_, err := alice.encryptFor("ghost", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no public key")
}

func TestEncryptForRejectsOversizedPlaintext(t *testing.T) {
	alice, aliceKey := newTestClient(t)
	publishKey(t, alice, "bob", aliceKey)

	long := strings.Repeat("x", crypto.MaxPlaintext(&aliceKey.PublicKey)+1)
	_, err := alice.encryptFor("bob", long)
	require.ErrorIs(t, err, crypto.ErrMessageTooLong)

	// The boundary itself still fits.
	exact := strings.Repeat("x", crypto.MaxPlaintext(&aliceKey.PublicKey))
	_, err = alice.encryptFor("bob", exact)
	require.NoError(t, err)
}

func TestDecryptPrivateRejectsBadBody(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.decryptPrivate("not base64 at all!!!")
	require.Error(t, err)

	// Valid base64 that is not a ciphertext for this key.
	_, err = c.decryptPrivate(base64.StdEncoding.EncodeToString([]byte("junk")))
	require.Error(t, err)
}

func TestUpdateKeysCanonicalizesAndCopies(t *testing.T) {
	c, key := newTestClient(t)
	der, err := crypto.MarshalPublicKey(&key.PublicKey)
	require.NoError(t, err)

	push := map[string][]byte{"  Bob ": der}
	c.updateKeys(push)
	require.Equal(t, []string{"bob"}, c.KnownUsers())

	// Mutating the pushed map after the fact must not affect the cache.
	push["  Bob "][0] ^= 0xff
	_, err = c.encryptFor(domain.Username("BOB"), "hi")
	require.NoError(t, err)
}
