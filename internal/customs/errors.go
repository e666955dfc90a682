package customs

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/sentinel"
)

// InvalidFieldError reports a field rejected by screening or configuration checks.
type InvalidFieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid field %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error { return sentinel.ErrInvalidField }

// InspectorNotFoundError is returned when an office has no inspector with the id.
type InspectorNotFoundError struct {
	ID uuid.UUID
}

func (e *InspectorNotFoundError) Error() string {
	return fmt.Sprintf("inspector %s not found", e.ID)
}

func (e *InspectorNotFoundError) Unwrap() error { return sentinel.ErrNotFound }

// OperatorNotFoundError is returned when an office has no operator with the id.
type OperatorNotFoundError struct {
	ID uuid.UUID
}

func (e *OperatorNotFoundError) Error() string {
	return fmt.Sprintf("operator %s not found", e.ID)
}

func (e *OperatorNotFoundError) Unwrap() error { return sentinel.ErrNotFound }

// AlreadyExistsError is returned when a roster already holds the id.
type AlreadyExistsError struct {
	Kind string
	ID   uuid.UUID
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

func (e *AlreadyExistsError) Unwrap() error { return sentinel.ErrAlreadyExists }

// InspectorBusyError is returned when removing an inspector that still reviews declarations.
type InspectorBusyError struct {
	ID       uuid.UUID
	InReview int
}

func (e *InspectorBusyError) Error() string {
	return fmt.Sprintf("inspector %s still has %d declaration(s) in review", e.ID, e.InReview)
}

func (e *InspectorBusyError) Unwrap() error { return sentinel.ErrConflict }
