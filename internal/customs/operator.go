package customs

import "github.com/google/uuid"

// Operator is an office clerk. Operators hold no declarations.
type Operator struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Post string    `json:"post"`
}

func NewOperator(name, post string) Operator {
	return Operator{ID: uuid.New(), Name: name, Post: post}
}
