// Package storage defines errors shared by the persistence backends.
package storage

import "github.com/pkg/errors"

var (
	// ErrNotFound no document matches the identifier.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken an account with this email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrVersionConflict the account changed between read and write; callers
	// reread and revalidate.
	ErrVersionConflict = errors.New("account version conflict")
)
