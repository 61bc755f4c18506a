// Package fault holds the error kinds shared by every bounded context. Domain packages wrap
// one of these into their own sentinels so callers can match on the kind with errors.Is.
package fault

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrIncompleteOrderData = errors.New("incomplete order data")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternal            = errors.New("internal")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New builds a domain sentinel of the given kind, e.g. New(ErrNotFound, "delivery: not found").
func New(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

// Kind reports the shared kind of err, or ErrInternal when err carries none.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrConflict, ErrIncompleteOrderData, ErrUnauthorized} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Status is the upper-case status text used in use_case_done logs and span statuses.
func Status(err error) string {
	if err == nil {
		return "OK"
	}
	switch Kind(err) {
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrConflict:
		return "CONFLICT"
	case ErrIncompleteOrderData:
		return "INCOMPLETE_ORDER_DATA"
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "INTERNAL"
	}
}
