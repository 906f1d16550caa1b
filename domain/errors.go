package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAccount indicates a signup collision on the
	// normalized email.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrInvalidCredentials is returned uniformly whether the account
	// is absent or the password digest mismatches, so callers cannot
	// tell which failure occurred.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrTaskNotFound indicates the referenced task id is absent from
	// the account's collection.
	ErrTaskNotFound = errors.New("task not found")
)

// ValidationError reports a rejected input field. No state is mutated
// when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed adapter read or write. The store
// guarantees in-memory and durable state stay consistent when one is
// surfaced.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }
