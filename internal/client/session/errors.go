package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrAlreadyInitialized = errors.New("session already initialized")
	ErrBusy               = errors.New("session is busy")
)

// AuthError is returned by Login and Register. Op names the flow; Err is the
// underlying gateway or transition error.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
