package sales

import (
	"fmt"

	"phonestore-service/internal/model"
)

// InvalidStateError is returned when an order transition is attempted
// from a state that does not allow it: cancelling a paid or cancelled
// order, fulfilling an unpaid order, fulfilling twice.
type InvalidStateError struct {
	OrderCode string
	Current   model.OrderStatus
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s order %s in status %q", e.Attempted, e.OrderCode, e.Current)
}

// ValidationError is a request-level problem found before any mutation
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
