// Package sentinel defines the error kinds shared by every layer.
//
// Domain packages return typed errors carrying their payload (ids, field names,
// states) that unwrap to one of these kinds, so callers can branch with errors.Is
// and still recover details with errors.As.
package sentinel

import "errors"

var (
	// ErrNotFound: declaration, office, inspector or stored record is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: operation attempted on the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidField: a field failed validation.
	ErrInvalidField = errors.New("invalid field")
	// ErrConflict: an aggregate could not be acquired for mutation.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists: duplicate creation of a uniquely keyed record.
	ErrAlreadyExists = errors.New("already exists")
)
