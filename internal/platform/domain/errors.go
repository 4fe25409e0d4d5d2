package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so transport layers can map them to status codes.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindUpstream     ErrorKind = "upstream"
	KindPayment      ErrorKind = "payment"
)

// Error is a typed domain error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewValidationError reports input that failed a business rule.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewConflictError reports a concurrent modification or duplicate operation.
func NewConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NewForbiddenError reports an ownership or role violation.
func NewForbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NewInvalidStateError reports a disallowed state transition.
func NewInvalidStateError(from, to string) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewUpstreamError reports a failure of an external collaborator.
func NewUpstreamError(msg string) *Error {
	return &Error{Kind: KindUpstream, Message: msg}
}

// NewPaymentError reports a payment that did not go through.
func NewPaymentError(msg string) *Error {
	return &Error{Kind: KindPayment, Message: msg}
}

// KindOf returns the kind of the first domain error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
