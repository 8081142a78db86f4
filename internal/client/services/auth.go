package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/researcher/internal/client/gateway"
	"github.com/dmitrijs2005/researcher/internal/client/models"
)

// ErrInvalidTransactionID is returned before any request when the payment
// reference is shorter than MinTransactionIDLen.
var ErrInvalidTransactionID = errors.New("transaction id must be at least 4 characters")

const MinTransactionIDLen = 4

// AuthService covers the /auth endpoints.
//
// Contract:
//   - Token: exchange email and password for an access token.
//   - Register: create an account; does not sign in.
//   - Me: fetch the profile for an explicit token.
//   - Upgrade: submit a payment reference for manual verification.
//
// Token, Register and Me return a 401 to the caller without triggering the
// gateway's unauthorized handler; the session manager clears the session
// and redirects for them. Failures are still published.
type AuthService interface {
	Token(ctx context.Context, email, password string) (models.TokenBundle, error)
	Register(ctx context.Context, email, password, fullName string) (*models.UserProfile, error)
	Me(ctx context.Context, token string) (*models.UserProfile, error)
	Upgrade(ctx context.Context, transactionID string) (string, error)
}

type authService struct {
	r Requester
}

func NewAuthService(r Requester) AuthService {
	return &authService{r: r}
}

func (a *authService) Token(ctx context.Context, email, password string) (models.TokenBundle, error) {
	var tb models.TokenBundle
	form := url.Values{"username": {email}, "password": {password}}
	if err := a.r.Post(ctx, "/auth/token", form, &tb, gateway.WithoutUnauthorizedHandler()); err != nil {
		return models.TokenBundle{}, err
	}
	return tb, nil
}

func (a *authService) Register(ctx context.Context, email, password, fullName string) (*models.UserProfile, error) {
	body := map[string]any{"email": email, "password": password}
	if fullName != "" {
		body["full_name"] = fullName
	}

	var u models.UserProfile
	if err := a.r.Post(ctx, "/auth/register", body, &u, gateway.WithoutUnauthorizedHandler()); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *authService) Me(ctx context.Context, token string) (*models.UserProfile, error) {
	var u models.UserProfile
	err := a.r.Get(ctx, "/auth/me", &u, gateway.WithBearer(token), gateway.WithoutUnauthorizedHandler())
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *authService) Upgrade(ctx context.Context, transactionID string) (string, error) {
	transactionID = strings.TrimSpace(transactionID)
	if len(transactionID) < MinTransactionIDLen {
		return "", ErrInvalidTransactionID
	}

	var resp models.StatusMessage
	if err := a.r.Post(ctx, "/auth/upgrade", map[string]string{"transaction_id": transactionID}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
