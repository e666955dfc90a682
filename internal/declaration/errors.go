package declaration

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/sentinel"
)

// NotCompleteError is returned by Draft.Validate when a required field is empty or zero.
type NotCompleteError struct {
	ID      uuid.UUID
	Missing []string // field names in Fields order
}

func (e *NotCompleteError) Error() string {
	return fmt.Sprintf("declaration %s is not ready to be sent: missing %s", e.ID, strings.Join(e.Missing, ", "))
}

func (e *NotCompleteError) Unwrap() error { return sentinel.ErrInvalidField }

// IncorrectStateError is returned when an operation receives a declaration in the wrong state.
type IncorrectStateError struct {
	ID     uuid.UUID
	Actual string
}

func (e *IncorrectStateError) Error() string {
	return fmt.Sprintf("declaration %s has invalid state %s", e.ID, e.Actual)
}

func (e *IncorrectStateError) Unwrap() error { return sentinel.ErrInvalidState }

// NotFoundError is returned when a declaration id is absent from the pool that was searched.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("declaration %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return sentinel.ErrNotFound }
