package domain

// AuthKind selects the flow a connection wants to run.
type AuthKind string

const (
	AuthLogin    AuthKind = "LOGIN"
	AuthRegister AuthKind = "REGISTER"
)

// AuthOutcome is the explicit result of one authentication exchange.
// Failures are either retryable (the peer may try again within its budget)
// or terminal (the connection is about to be closed).
type AuthOutcome struct {
	Authenticated bool
	Retryable     bool
	Reason        string
}

// Success is the outcome of a completed authentication.
func Success() AuthOutcome { return AuthOutcome{Authenticated: true} }

// Retry is a failed attempt the peer may repeat.
func Retry(reason string) AuthOutcome {
	return AuthOutcome{Retryable: true, Reason: reason}
}

// Terminal is a failure that ends the session.
func Terminal(reason string) AuthOutcome { return AuthOutcome{Reason: reason} }
