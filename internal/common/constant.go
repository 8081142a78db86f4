// Package common contains shared constants and sentinel errors used across
// researcher client components.
package common

// Keys of the durable client storage. The token and the user profile are
// always written and cleared together.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the access token in the Authorization header.
const BearerScheme = "Bearer"
