package quotemedia

import (
	"errors"
	"fmt"
)

// Kind classifies upstream failures so callers can react without string
// matching: bad credentials are terminal, a rejected session gets exactly one
// re-authentication retry, transport failures are surfaced immediately.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindNotAuthorized  Kind = "not_authorized"
	KindTransport      Kind = "transport"
	KindUnavailable    Kind = "unavailable"
)

// Error is a typed upstream failure with a human-readable message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind, or "" for non-upstream errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }
func IsNotAuthorized(err error) bool  { return KindOf(err) == KindNotAuthorized }
func IsTransport(err error) bool      { return KindOf(err) == KindTransport }
func IsUnavailable(err error) bool    { return KindOf(err) == KindUnavailable }
