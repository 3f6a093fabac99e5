// Package secure implements the per-session encrypted channel.
//
// A Channel wraps an established connection and a session key; every unit
// of post-handshake traffic is one ChaCha20-Poly1305 sealed frame with a
// fresh random nonce. Opening a frame that fails authentication is fatal to
// the channel, since key state may be desynchronized.
package secure
