// Package protocol defines everything that crosses the wire.
//
// Contents
//
//   - Length-prefixed framing over a stream (WriteFrame, ReadFrame)
//   - The tagged Envelope union and its CBOR codec
//   - Command strings exchanged inside envelopes
//   - The session handshake: ephemeral RSA key exchange plus the optional
//     challenge-response possession proof (ServerHandshake, ClientHandshake,
//     RequestProof, ProvePossession)
//
// Handshake frames travel in the clear; every frame after the handshake is
// a sealed SecureChannel block (see internal/secure).
package protocol
