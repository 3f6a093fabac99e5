package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
)

// ChallengeBytes is the length of a possession-proof challenge.
const ChallengeBytes = 32

// ErrMessageTooLong is returned when a plaintext exceeds what one OAEP
// block can carry for the configured key size.
var ErrMessageTooLong = errors.New("crypto: message exceeds RSA block capacity")

// MaxPlaintext returns the largest plaintext one OAEP-SHA256 block can
// carry for the given key. For 2048-bit keys this is 190 bytes.
func MaxPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

// Encrypt encrypts plaintext with RSA-OAEP (SHA-256).
func Encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	if len(plaintext) > MaxPlaintext(pub) {
		return nil, ErrMessageTooLong
	}
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
}

// Decrypt decrypts an RSA-OAEP (SHA-256) ciphertext.
func Decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa decrypt: %w", err)
	}
	return pt, nil
}

// NewChallenge returns a fresh random challenge for the possession proof.
func NewChallenge() ([]byte, error) {
	c := make([]byte, ChallengeBytes)
	if _, err := rand.Read(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Sign signs the challenge with RSASSA-PKCS1-v1_5 over SHA-256.
func Sign(priv *rsa.PrivateKey, challenge []byte) ([]byte, error) {
	digest := sha256.Sum256(challenge)
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
}

// Verify checks a challenge signature against the presented public key.
func Verify(pub *rsa.PublicKey, challenge, sig []byte) error {
	digest := sha256.Sum256(challenge)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}
