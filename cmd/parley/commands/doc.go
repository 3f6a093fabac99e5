// Package commands defines the parley CLI: connect joins the chat,
// keygen and fingerprint manage the local identity key pair.
package commands
