package errors

import "fmt"

// ErrNotFound indicates a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates missing or invalid credentials
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrInvalidStateTransition indicates a disallowed status change
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrInsufficientStock indicates the conditional stock decrement found
// fewer units than the order requires at commit time.
type ErrInsufficientStock struct {
	ProductID string
	Requested int
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

// ErrOrderNumberExhausted indicates order number generation ran out of
// retry attempts before finding an unused number.
type ErrOrderNumberExhausted struct {
	Attempts int
}

func (e *ErrOrderNumberExhausted) Error() string {
	return fmt.Sprintf("could not generate a unique order number after %d attempts", e.Attempts)
}

// ErrGatewayConfig indicates a payment gateway is missing credentials or
// otherwise misconfigured. Detected before any network call is made.
type ErrGatewayConfig struct {
	Gateway string
	Message string
}

func (e *ErrGatewayConfig) Error() string {
	return fmt.Sprintf("%s gateway configuration error: %s", e.Gateway, e.Message)
}
