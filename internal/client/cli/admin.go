package cli

import (
	"context"
)

func (a *App) pending(ctx context.Context, rt *runtime, _ []string) error {
	users, err := rt.admin.Pending(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		a.println("No pending upgrade requests.")
		return nil
	}

	for _, u := range users {
		tx := "-"
		if u.TransactionID != nil {
			tx = *u.TransactionID
		}
		a.printf("%4d  %-32s %-24s %s\n", u.ID, u.Email, u.FullName, tx)
	}
	return nil
}

func (a *App) approve(ctx context.Context, rt *runtime, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	msg, err := rt.admin.Approve(ctx, id)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "User approved."
	}
	rt.bus.Success(msg)
	return nil
}
