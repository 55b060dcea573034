package azure

import (
	"errors"
	"fmt"
)

// ErrQueryTimeout marks a Resource Graph call that exceeded its budget.
// Callers can distinguish it from other query failures to decide on retry.
var ErrQueryTimeout = errors.New("resource graph query timed out")

// AuthError reports a failed credential or client construction. It names the
// mode attempted and is safe to log: the secret value is never included.
type AuthError struct {
	Mode string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate (%s): %v", e.Mode, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// QueryError reports a malformed query, a service-side failure, or an
// unparseable response.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("resource graph query: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
