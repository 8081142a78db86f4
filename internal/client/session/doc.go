// Package session owns the client's single authentication session.
//
// A Manager holds the access token, the user profile and the Status, and
// moves between statuses only through the transition table in status.go:
//
//	Initializing    -> Authenticated | Unauthenticated
//	Unauthenticated -> Authenticating | Unauthenticated
//	Authenticating  -> Authenticated | Unauthenticated
//	Authenticated   -> Unauthenticated | Authenticating | Authenticated
//
// Token and profile are persisted on every change and read from storage
// exactly once, in Init. A 401 reported by the gateway clears the session
// and redirects to login through the Navigator, unless the failing request
// carried a token that is no longer current.
package session
