// Package crypto exposes the asymmetric primitives used by Parley.
//
// Contents
//
//   - RSA-2048 key pair generation, DER encoding and key files
//     (GenerateKeyPair, MarshalPublicKey, LoadOrCreateKeyPair)
//   - RSA-OAEP encryption for session keys and private-message bodies
//     (Encrypt, Decrypt, MaxPlaintext)
//   - Challenge signing and verification (NewChallenge, Sign, Verify)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// The symmetric channel cipher lives in internal/secure; password hashing
// lives in internal/credential.
package crypto
