package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// KeyBits is the RSA modulus size used for every key pair: the
	// per-connection ephemeral handshake pair, the client identity pair,
	// and the end-to-end message keys distributed via the directory.
	KeyBits = 2048

	// SessionKeyBytes is the symmetric session key length (256 bits).
	SessionKeyBytes = 32
)

// GenerateKeyPair returns a fresh RSA-2048 key pair.
func GenerateKeyPair() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, KeyBits)
}

// NewSessionKey returns a fresh 256-bit symmetric key.
func NewSessionKey() ([]byte, error) {
	key := make([]byte, SessionKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Wipe zeroes key material in place once it is no longer needed.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// fingerprintLen is the number of digest bytes kept for display.
const fingerprintLen = 10

// Fingerprint renders the short display form of a DER-encoded public key:
// the leading bytes of its SHA-256 digest, hex encoded.
func Fingerprint(der []byte) string {
	digest := sha256.Sum256(der)
	return hex.EncodeToString(digest[:fingerprintLen])
}

// MarshalPublicKey encodes the public key as PKIX DER, the raw form sent
// on the wire and written to key files.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	return x509.MarshalPKIXPublicKey(pub)
}

// ParsePublicKey decodes a PKIX DER public key, rejecting non-RSA keys.
func ParsePublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("parse public key: not an RSA key")
	}
	return pub, nil
}

// MarshalPrivateKey encodes the private key as PKCS #8 DER.
func MarshalPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(priv)
}

// ParsePrivateKey decodes a PKCS #8 DER private key, rejecting non-RSA keys.
func ParsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("parse private key: not an RSA key")
	}
	return priv, nil
}

// Default names for identity key files under a key directory.
const (
	PublicKeyFile  = "public_key.der"
	PrivateKeyFile = "private_key.der"
)

// LoadOrCreateKeyPair loads the identity key pair from dir, generating and
// persisting a fresh pair on first use. Key files hold raw DER bytes.
func LoadOrCreateKeyPair(dir string) (*rsa.PrivateKey, error) {
	privPath := filepath.Join(dir, PrivateKeyFile)
	pubPath := filepath.Join(dir, PublicKeyFile)

	der, err := os.ReadFile(privPath)
	if err == nil {
		priv, err := ParsePrivateKey(der)
		if err != nil {
			return nil, err
		}
		// Restore the public half if it went missing, so fingerprint
		// display and key submission keep working.
		if _, statErr := os.Stat(pubPath); errors.Is(statErr, os.ErrNotExist) {
			pubDER, err := MarshalPublicKey(&priv.PublicKey)
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(pubPath, pubDER, 0o644); err != nil {
				return nil, err
			}
		}
		return priv, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	priv, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := SaveKeyPair(dir, priv); err != nil {
		return nil, err
	}
	return priv, nil
}

// SaveKeyPair writes both halves of the key pair to dir as raw DER files.
// The private half is written with owner-only permissions.
func SaveKeyPair(dir string, priv *rsa.PrivateKey) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	privDER, err := MarshalPrivateKey(priv)
	if err != nil {
		return err
	}
	pubDER, err := MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, PrivateKeyFile), privDER, 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, PublicKeyFile), pubDER, 0o644)
}
