package client

import (
	"encoding/base64"
	"fmt"
	"sort"

	"parley/internal/crypto"
	"parley/internal/domain"
)

// updateKeys replaces the directory cache with the relay's latest push.
func (c *Client) updateKeys(dir map[string][]byte) {
	keys := make(map[string][]byte, len(dir))
	for user, der := range dir {
		keys[domain.Username(user).Key()] = append([]byte(nil), der...)
	}
	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
}

// KnownUsers lists the members the directory currently has keys for.
func (c *Client) KnownUsers() []string {
	c.mu.Lock()
	out := make([]string, 0, len(c.keys))
	for user := range c.keys {
		out = append(out, user)
	}
	c.mu.Unlock()
	sort.Strings(out)
	return out
}

// encryptFor seals text for the named recipient with their directory key,
// returning the base64 ciphertext that rides inside the ChatMessage.
func (c *Client) encryptFor(to domain.Username, text string) (string, error) {
	c.mu.Lock()
	der, ok := c.keys[to.Key()]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("client: no public key for user %s", to)
	}
	pub, err := crypto.ParsePublicKey(der)
	if err != nil {
		return "", fmt.Errorf("client: bad directory key for %s: %w", to, err)
	}
	ciphertext, err := crypto.Encrypt(pub, []byte(text))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decryptPrivate recovers a private message body with the local identity
// key. Only the holder of the matching private key can do this; the relay
// that forwarded the message cannot.
func (c *Client) decryptPrivate(body string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("client: private message body: %w", err)
	}
	plaintext, err := crypto.Decrypt(c.identity, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
