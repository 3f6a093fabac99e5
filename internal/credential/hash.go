package credential

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Derivation parameters. The external contract is salt + derived hash,
// verified by recomputation; Argon2id supplies the memory-hard derivation
// behind it.
const (
	saltBytes = 16
	hashBytes = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

func newSalt() ([]byte, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func deriveHash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, hashBytes)
}

func verifyHash(password string, salt, hash []byte) bool {
	derived := deriveHash(password, salt)
	return subtle.ConstantTimeCompare(derived, hash) == 1
}
