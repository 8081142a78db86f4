package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (a *App) listDocuments(ctx context.Context, rt *runtime, _ []string) error {
	ws := rt.open()
	docs, err := rt.workspace.Documents(ctx, ws.project.ID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		a.println("No documents. Add some with 'upload <file>'.")
		return nil
	}

	selected := map[int]bool{}
	for _, id := range ws.chat.Selected() {
		selected[id] = true
	}

	for _, d := range docs {
		state := "indexing"
		if d.IsIndexed {
			state = "indexed"
		}
		mark := " "
		if selected[d.ID] {
			mark = "*"
		}
		a.printf("%s%4d  %-40s %s\n", mark, d.ID, d.Filename, dimStyle.Render(state))
	}
	return nil
}

func (a *App) upload(ctx context.Context, rt *runtime, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	ws := rt.open()
	docs, err := rt.workspace.Upload(ctx, ws.project.ID, args...)
	if err != nil {
		return err
	}
	rt.bus.Success(fmt.Sprintf("Uploaded %d document(s). Indexing runs in the background.", len(docs)))
	return nil
}

func (a *App) removeDocument(ctx context.Context, rt *runtime, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	ws := rt.open()
	if err := rt.workspace.DeleteDocument(ctx, ws.project.ID, id); err != nil {
		return err
	}

	selected := ws.chat.Selected()
	kept := selected[:0]
	for _, sel := range selected {
		if sel != id {
			kept = append(kept, sel)
		}
	}
	ws.chat.SelectDocuments(kept...)

	rt.bus.Success("Document deleted.")
	return nil
}

// selectDocuments restricts quick chat to the given documents. No ids
// clears the selection.
func (a *App) selectDocuments(_ context.Context, rt *runtime, args []string) error {
	ids := make([]int, 0, len(args))
	for _, s := range args {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			return errUsage
		}
		ids = append(ids, id)
	}

	rt.open().chat.SelectDocuments(ids...)
	if len(ids) == 0 {
		a.println("Chat will search all documents.")
	} else {
		a.printf("Chat limited to %d document(s).\n", len(ids))
	}
	return nil
}
