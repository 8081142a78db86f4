// Package tokens reads the claims of a backend access token.
//
// The client never holds the signing key, so tokens are parsed without
// signature verification. The result is informational only (whoami, log
// lines); the backend stays the authority on validity.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/researcher/internal/common"
)

// Info holds the claims the client cares about. ExpiresAt is zero when the
// token carries no exp claim.
type Info struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its exp claim at now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Remaining returns the time left until expiry, or 0 when expired or
// without an exp claim.
func (i Info) Remaining(now time.Time) time.Duration {
	if i.ExpiresAt.IsZero() || i.Expired(now) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}

var parser = jwt.NewParser()

func Inspect(token string) (Info, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Info{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	info := Info{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
