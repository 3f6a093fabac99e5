// Package credential persists account credentials and enforces the
// password policy.
//
// A Store owns the username -> Credential map exclusively. Secret material
// never leaves the package; callers only see the read-only UserInfo
// projection. Every mutating operation runs under one coarse lock and
// rewrites the whole store file atomically, so memory and disk stay
// consistent. Load failures fall back to an empty store rather than
// aborting the server.
package credential
