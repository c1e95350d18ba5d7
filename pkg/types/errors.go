package types

import (
	"fmt"
	"strings"
)

// DecryptionError covers authentication failures and malformed envelopes.
// It is deliberately distinct from KeyUnavailableError so callers can tell
// "corrupted data" apart from "no key in scope".
type DecryptionError struct {
	Reason string
}

func (e DecryptionError) Error() string {
	return fmt.Sprintf("decrypt: %s", e.Reason)
}

// KeyUnavailableError is returned when encryption or decryption is attempted
// with no key set for the current session.
type KeyUnavailableError struct{}

func (e KeyUnavailableError) Error() string {
	return "encryption key not available"
}

// ConnectivityError wraps a failed call against the remote row store.
// Recoverable by operator retry only.
type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("store unreachable at %s: %v", e.Endpoint, e.Err)
}

func (e ConnectivityError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed remote write. The write that produced it
// must not have advanced any local state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationError carries every violated rule, not just the first.
type ValidationError struct {
	Violations []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}
