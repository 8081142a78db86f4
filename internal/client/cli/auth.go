package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/client/services"
	"github.com/dmitrijs2005/researcher/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

const (
	msgAdminLoginFailed = "Invalid credentials or server error."
)

// credentials prompts for an email and a password. The returned password
// must be wiped by the caller.
func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		return "", nil, common.ErrEmptyInput
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

func (a *App) register(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.session.WaitReady(ctx); err != nil {
		return err
	}

	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", a.out)
	if err != nil {
		return err
	}

	if _, err := rt.session.Register(ctx, email, string(password), fullName); err != nil {
		return err
	}

	rt.bus.Success("Registration successful. Please log in.")
	return nil
}

func (a *App) login(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.session.WaitReady(ctx); err != nil {
		return err
	}

	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := rt.session.Login(ctx, email, string(password)); err != nil {
		return err
	}

	rt.setWorkspace(nil)
	a.printf("Welcome, %s!\n", rt.session.User().DisplayName())
	return nil
}

// adminLogin signs in and keeps the session only for superusers.
func (a *App) adminLogin(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.session.WaitReady(ctx); err != nil {
		return err
	}

	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := rt.session.Login(ctx, email, string(password)); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		a.println(msgAdminLoginFailed)
		return nil
	}

	if u := rt.session.User(); u == nil || !u.IsSuperuser {
		rt.session.Logout(ctx)
		a.println(msgAccessDenied)
		return nil
	}

	rt.setWorkspace(nil)
	a.printf("Welcome, administrator %s!\n", rt.session.User().DisplayName())
	return nil
}

func (a *App) logout(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.session.WaitReady(ctx); err != nil {
		return err
	}
	rt.session.Logout(ctx)
	a.println("Logged out.")
	return nil
}

func (a *App) whoami(_ context.Context, rt *runtime, _ []string) error {
	u := rt.session.User()
	if u == nil {
		a.println("Signed in (profile not loaded yet).")
		return nil
	}

	a.printf("Name:    %s\n", u.DisplayName())
	a.printf("Email:   %s\n", u.Email)
	a.printf("Plan:    %s\n", planLabel(u))
	if u.IsSuperuser {
		a.println("Role:    administrator")
	}

	if info, err := rt.session.TokenInfo(); err == nil && !info.ExpiresAt.IsZero() {
		now := time.Now()
		if info.Expired(now) {
			a.println("Token:   expired")
		} else {
			a.printf("Token:   expires in %s\n", info.Remaining(now).Round(time.Minute))
		}
	}
	return nil
}

func planLabel(u *models.UserProfile) string {
	switch {
	case u.IsPremium:
		return "premium"
	case u.UpgradePending():
		return "free (upgrade pending verification)"
	default:
		return "free"
	}
}

// upgrade submits a payment reference and refreshes the profile so the
// pending state shows up.
func (a *App) upgrade(ctx context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	u := rt.session.User()
	if u != nil && u.IsPremium {
		a.println("Your account is already premium.")
		return nil
	}

	msg, err := rt.auth.Upgrade(ctx, args[0])
	if errors.Is(err, services.ErrInvalidTransactionID) {
		a.println("Invalid transaction id: it must be at least", services.MinTransactionIDLen, "characters.")
		return nil
	}
	if err != nil {
		return err
	}

	if msg == "" {
		msg = "Upgrade request submitted."
	}
	rt.bus.Success(msg)

	if err := rt.session.RefreshIdentity(ctx); err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	if u := rt.session.User(); u != nil {
		a.println("Plan:", planLabel(u))
	}
	return nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
