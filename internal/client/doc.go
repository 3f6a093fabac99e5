// Package client implements the connection a presentation layer drives.
//
// A Client dials the relay, runs the handshake and possession proof,
// consumes the authentication exchange when told to, then relays traffic
// through callbacks. Private messages are encrypted with the recipient's
// directory key before they leave the process and decrypted with the local
// identity key on arrival; the relay only ever sees ciphertext.
package client
