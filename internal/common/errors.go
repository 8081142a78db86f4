// Package common defines shared constants and sentinel errors used across
// the client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session errors.
	ErrNotLoggedIn = errors.New("not logged in")

	// Token errors (malformed or unparsable access token).
	ErrInvalidToken = errors.New("invalid token")

	// Input validation errors.
	ErrEmptyInput = errors.New("empty input")
)
