package secrets

import (
	"errors"
	"fmt"
)

// ErrSecretNotFound is returned when the resolution chain is exhausted with
// no secret source configured at all.
var ErrSecretNotFound = errors.New("no client secret configured")

// errNoEncryptionKey reports an "encrypted:" value with no application key
// available to decrypt it.
var errNoEncryptionKey = errors.New("encrypted secret present but no encryption key configured")

// ResolutionError wraps a failure on a configured resolution path. A
// configured path that fails is fatal for the call; the chain never falls
// through to the next source on error, only on absence.
type ResolutionError struct {
	Path string // "vault" or "encrypted"
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve client secret via %s: %v", e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
