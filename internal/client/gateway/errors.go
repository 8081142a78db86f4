package gateway

import (
	"errors"
	"net/http"
)

var (
	ErrTransport       = errors.New("transport failure")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrPaymentRequired = errors.New("payment required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// Error is returned for every failed call that was not cancelled. Status is
// 0 for transport failures. Message is the normalized text that was
// published to the error sink.
type Error struct {
	Status  int
	Detail  ErrorDetail
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the status sentinels, e.g. errors.Is(err, ErrPaymentRequired).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Status == 0
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrPaymentRequired:
		return e.Status == http.StatusPaymentRequired
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
