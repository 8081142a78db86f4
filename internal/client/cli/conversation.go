package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/researcher/internal/client/chat"
	"github.com/dmitrijs2005/researcher/internal/client/export"
	"github.com/dmitrijs2005/researcher/internal/client/models"
)

func (a *App) chat(ctx context.Context, rt *runtime, args []string) error {
	return a.send(ctx, rt.open().chat, args)
}

func (a *App) research(ctx context.Context, rt *runtime, args []string) error {
	a.println(dimStyle.Render("Researching, this can take a few minutes (Ctrl-C to cancel)..."))
	return a.send(ctx, rt.open().research, args)
}

// send prints the reply even when the agent failed, since the failure
// text is part of the history.
func (a *App) send(ctx context.Context, c *chat.Conversation, args []string) error {
	query := joinArgs(args)
	if query == "" {
		return errUsage
	}

	reply, err := c.Send(ctx, query)
	if reply.Role != "" {
		a.print(a.render.message(reply, c.Kind()))
	}
	return err
}

func (a *App) analyze(ctx context.Context, rt *runtime, _ []string) error {
	a.println(dimStyle.Render("Analyzing documents..."))

	res, err := rt.workspace.Analyze(ctx, rt.open().project.ID)
	if err != nil {
		return err
	}
	a.print(a.render.markdown(analysisMarkdown(res)))
	return nil
}

func (a *App) history(_ context.Context, rt *runtime, args []string) error {
	ws := rt.open()

	c := ws.chat
	switch joinArgs(args) {
	case "", string(models.MessageTypeChat):
	case string(models.MessageTypeResearch):
		c = ws.research
	default:
		return errUsage
	}

	msgs := c.Messages()
	if len(msgs) == 0 {
		a.println("No messages yet.")
		return nil
	}
	for _, m := range msgs {
		a.print(a.render.message(m, c.Kind()))
	}
	return nil
}

func (a *App) export(_ context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	ws := rt.open()
	h := export.History{
		Project:     ws.project,
		Chat:        ws.chat.Messages(),
		Research:    ws.research.Messages(),
		GeneratedAt: time.Now(),
	}
	if err := a.exporter.WriteFile(args[0], h); err != nil {
		return err
	}
	rt.bus.Success("History exported to " + args[0])
	return nil
}

func (a *App) print(s string) {
	a.out.Write([]byte(s))
}
