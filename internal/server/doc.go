// Package server implements the relay: the TCP accept loop, the
// per-connection session lifecycle (handshake, possession proof,
// authentication, chat), the roster of authenticated sessions, and the
// end-to-end public-key directory.
//
// Concurrency model: one goroutine per accepted connection, suspending only
// at blocking reads. The roster and directory are the shared mutable state,
// guarded by RWMutexes; credential mutations are serialized inside the
// credential store itself. Cleanup for a session runs exactly once
// regardless of which failure path triggers it.
package server
