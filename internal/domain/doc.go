// Package domain defines core data models shared across the app.
// It contains plain types only; no I/O, no crypto.
package domain
