package domain

import (
	"errors"
	"fmt"
)

// Error is the typed failure returned across the store boundary.
//
// Every repository and service method returns either nil or an error that
// unwraps to *Error, so callers can switch on Code and render a specific
// message instead of parsing strings.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity names the affected entity kind ("product", "order", ...).
	Entity string

	// ID is the affected identifier, zero when not applicable.
	ID int64

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed or missing input.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound indicates a referenced id does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConflict indicates a uniqueness or dependency violation.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeForbidden indicates a business rule disallows the operation.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// ErrCodeInvalidTransition indicates an illegal order status change.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// ErrCodeStorage indicates an engine or I/O failure.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Entity != "" && e.ID != 0 {
		msg = fmt.Sprintf("%s (%s=%d)", msg, e.Entity, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, ErrNotFound) works
// against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// Sentinels for errors.Is. They carry only a code.
var (
	ErrValidation        = &Error{Code: ErrCodeValidation}
	ErrNotFound          = &Error{Code: ErrCodeNotFound}
	ErrConflict          = &Error{Code: ErrCodeConflict}
	ErrForbidden         = &Error{Code: ErrCodeForbidden}
	ErrInvalidTransition = &Error{Code: ErrCodeInvalidTransition}
	ErrStorage           = &Error{Code: ErrCodeStorage}
)

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// NewValidationError reports malformed input.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity string, id int64) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: entity + " not found",
		Entity:  entity,
		ID:      id,
	}
}

// NewConflictError reports a uniqueness or dependency violation.
func NewConflictError(entity, format string, args ...any) *Error {
	return &Error{Code: ErrCodeConflict, Message: fmt.Sprintf(format, args...), Entity: entity}
}

// NewForbiddenError reports an operation blocked by policy.
func NewForbiddenError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidTransitionError reports an illegal status change on an order.
func NewInvalidTransitionError(orderID int64, from, to OrderStatus) *Error {
	return &Error{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot move order from %s to %s", from, to),
		Entity:  "order",
		ID:      orderID,
	}
}

// NewStorageError wraps an engine failure with the operation that hit it.
func NewStorageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorage, Message: op, Err: err}
}
