package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/researcher/internal/client/metrics"
)

func (a *App) toasts(_ context.Context, rt *runtime, _ []string) error {
	list := rt.bus.Toasts()
	if len(list) == 0 {
		a.println("No active notifications.")
		return nil
	}
	for _, t := range list {
		age := time.Since(t.CreatedAt).Round(100 * time.Millisecond)
		a.printf("%s  %s %s\n", t.ID, toastLine(t), dimStyle.Render(age.String()))
	}
	return nil
}

func (a *App) dismiss(_ context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if args[0] == "all" {
		rt.bus.Reset()
		return nil
	}
	rt.bus.Dismiss(args[0])
	return nil
}

func (a *App) stats(context.Context, *runtime, []string) error {
	rows, err := metrics.Summary(a.registry)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		a.println("No requests yet.")
		return nil
	}
	for _, r := range rows {
		a.println(r.String())
	}
	return nil
}
