package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrStockExceeded    = errors.New("stock exceeded")
	ErrOutOfStock       = errors.New("out of stock")
	ErrTransport        = errors.New("transport error")
	ErrBusinessFailure  = errors.New("business failure")
	ErrCheckoutInFlight = errors.New("checkout in flight")
	ErrLineNotFound     = errors.New("cart line not found")
	ErrNoReceipts       = errors.New("no receipt documents")
)

// Error pairs an operator-facing message with one of the sentinel kinds above.
// errors.Is matches the kind; Unwrap exposes the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func NewStockExceededError(name string, stock int) error {
	return &Error{Kind: ErrStockExceeded, Message: fmt.Sprintf("maximum stock (%d) reached for %s", stock, name)}
}

func NewOutOfStockError(name string) error {
	return &Error{Kind: ErrOutOfStock, Message: fmt.Sprintf("%s is out of stock", name)}
}

func NewTransportError(message string, err error) error {
	return &Error{Kind: ErrTransport, Message: message, Err: err}
}

func NewBusinessFailure(message string) error {
	return &Error{Kind: ErrBusinessFailure, Message: message}
}

func NewLineNotFoundError(productID int64) error {
	return &Error{Kind: ErrLineNotFound, Message: fmt.Sprintf("product %d is not in the cart", productID)}
}

// Message returns the text to show the operator for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsWarning reports whether err is a stock guard rejection rather than a failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrStockExceeded) || errors.Is(err, ErrOutOfStock)
}
