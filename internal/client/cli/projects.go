package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/researcher/internal/client/chat"
	"github.com/dmitrijs2005/researcher/internal/client/models"
)

func parseID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

func (a *App) listProjects(ctx context.Context, rt *runtime, _ []string) error {
	list, err := rt.projects.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.println("No projects yet. Create one with 'newproject'.")
		return nil
	}

	for _, p := range list {
		line := fmt.Sprintf("%4d  %s", p.ID, p.Title)
		if p.Description != "" {
			line += dimStyle.Render("  " + p.Description)
		}
		a.println(line)
	}
	return nil
}

func (a *App) newProject(ctx context.Context, rt *runtime, args []string) error {
	title := joinArgs(args)
	if title == "" {
		var err error
		if title, err = getSimpleText(a.reader, "Enter project title", a.out); err != nil {
			return err
		}
		if title == "" {
			return errUsage
		}
	}

	description, err := getSimpleText(a.reader, "Enter description (optional)", a.out)
	if err != nil {
		return err
	}

	p, err := rt.projects.Create(ctx, title, description)
	if err != nil {
		return err
	}
	rt.bus.Success(fmt.Sprintf("Project %q created (id %d).", p.Title, p.ID))
	return nil
}

func (a *App) deleteProject(ctx context.Context, rt *runtime, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	if err := rt.projects.Delete(ctx, id); err != nil {
		return err
	}
	if ws := rt.open(); ws != nil && ws.project.ID == id {
		rt.setWorkspace(nil)
	}
	rt.bus.Success("Project deleted.")
	return nil
}

// openProject makes id the working project and loads both histories.
func (a *App) openProject(ctx context.Context, rt *runtime, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	p, err := rt.projects.Get(ctx, id)
	if err != nil {
		return err
	}

	log := a.log.With("component", "chat")
	ws := &workspace{
		project:  *p,
		chat:     chat.New(rt.workspace, p.ID, models.MessageTypeChat, chat.WithLogger(log)),
		research: chat.New(rt.workspace, p.ID, models.MessageTypeResearch, chat.WithLogger(log)),
	}
	for _, c := range []*chat.Conversation{ws.chat, ws.research} {
		if err := c.Load(ctx); err != nil {
			return err
		}
	}
	rt.setWorkspace(ws)

	a.printf("Opened %q: %d chat and %d research messages.\n",
		p.Title, len(ws.chat.Messages()), len(ws.research.Messages()))
	return nil
}
