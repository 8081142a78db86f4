package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/dmitrijs2005/researcher/internal/client/gateway"
	"github.com/dmitrijs2005/researcher/internal/client/session"
)

// notifyContext is a test seam for signal.NotifyContext.
var notifyContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

type access int

const (
	accessPublic access = iota
	accessMember
	accessAdmin
)

type command struct {
	name        string
	args        string
	help        string
	access      access
	needProject bool
	run         func(a *App, ctx context.Context, rt *runtime, args []string) error
}

// usageError asks dispatch to print the command's usage line.
type usageError struct{}

func (usageError) Error() string { return "usage" }

var errUsage = usageError{}

var (
	errQuit     = errors.New("quit")
	errPanicked = errors.New("command panicked")
)

const (
	msgLoginFirst   = "Please log in first (login)."
	msgOpenProject  = "Open a project first (open <id>)."
	msgAccessDenied = "Access Denied: You do not have administrator privileges."
	msgPaywall      = "This feature requires a premium subscription. Submit your payment reference with 'upgrade <transaction id>'."
	msgCrashed      = "Something went wrong. The client has been reloaded; your saved session was restored."
)

var commands map[string]*command

func init() {
	list := []*command{
		{name: "help", help: "show available commands", run: (*App).help},
		{name: "register", help: "create an account", run: (*App).register},
		{name: "login", help: "log in", run: (*App).login},
		{name: "adminlogin", help: "log in as an administrator", run: (*App).adminLogin},
		{name: "logout", help: "log out", run: (*App).logout},
		{name: "whoami", help: "show the signed-in account", access: accessMember, run: (*App).whoami},
		{name: "upgrade", args: "<transaction id>", help: "request a premium upgrade", access: accessMember, run: (*App).upgrade},

		{name: "projects", help: "list projects", access: accessMember, run: (*App).listProjects},
		{name: "newproject", help: "create a project", access: accessMember, run: (*App).newProject},
		{name: "delproject", args: "<id>", help: "delete a project", access: accessMember, run: (*App).deleteProject},
		{name: "open", args: "<id>", help: "open a project", access: accessMember, run: (*App).openProject},

		{name: "docs", help: "list documents of the open project", access: accessMember, needProject: true, run: (*App).listDocuments},
		{name: "upload", args: "<file>...", help: "upload documents", access: accessMember, needProject: true, run: (*App).upload},
		{name: "rmdoc", args: "<id>", help: "delete a document", access: accessMember, needProject: true, run: (*App).removeDocument},
		{name: "select", args: "[id...]", help: "limit chat to documents (none = all)", access: accessMember, needProject: true, run: (*App).selectDocuments},

		{name: "chat", args: "<question>", help: "ask the quick-chat agent", access: accessMember, needProject: true, run: (*App).chat},
		{name: "research", args: "<question>", help: "run a deep-research report", access: accessMember, needProject: true, run: (*App).research},
		{name: "analyze", help: "analyze gaps across the project's documents", access: accessMember, needProject: true, run: (*App).analyze},
		{name: "history", args: "[chat|research]", help: "show conversation history", access: accessMember, needProject: true, run: (*App).history},
		{name: "export", args: "<file>", help: "export the history as HTML", access: accessMember, needProject: true, run: (*App).export},

		{name: "pending", help: "list accounts awaiting approval", access: accessAdmin, run: (*App).pending},
		{name: "approve", args: "<user id>", help: "approve a premium upgrade", access: accessAdmin, run: (*App).approve},

		{name: "toasts", help: "show active notifications", run: (*App).toasts},
		{name: "dismiss", args: "<id>|all", help: "dismiss a notification", run: (*App).dismiss},
		{name: "stats", help: "show request counters", run: (*App).stats},
		{name: "exit", help: "leave the program", run: func(*App, context.Context, *runtime, []string) error { return errQuit }},
	}

	commands = make(map[string]*command, len(list)+1)
	for _, c := range list {
		commands[c.name] = c
	}
	commands["quit"] = commands["exit"]
}

// Run boots the client and reads commands from the input until EOF or
// "exit".
func (a *App) Run(ctx context.Context) error {
	a.println("Researcher CLI (type 'help' for commands)")
	a.reload(ctx)
	defer func() { a.current().shutdown() }()

	for {
		fmt.Fprint(a.out, a.prompt())

		line, err := a.reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if a.dispatch(ctx, line) {
				a.println("Bye!")
				return nil
			}
		}
		if err != nil {
			a.println()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (a *App) prompt() string {
	rt := a.current()
	if rt.session.Loading() {
		return "researcher (loading)> "
	}

	var parts []string
	if u := rt.session.User(); u != nil && rt.session.Status() == session.Authenticated {
		parts = append(parts, u.Email)
	}
	if ws := rt.open(); ws != nil {
		parts = append(parts, ws.project.Title)
	}
	if len(parts) == 0 {
		return "researcher> "
	}
	return fmt.Sprintf("researcher (%s)> ", strings.Join(parts, " | "))
}

// dispatch runs one input line and reports whether the REPL should stop.
func (a *App) dispatch(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])

	cmd, ok := commands[name]
	if !ok {
		a.println("Unknown command:", parts[0])
		return false
	}

	err := a.execute(ctx, cmd, parts[1:])
	if errors.Is(err, errQuit) {
		return true
	}
	a.report(cmd, err)
	return false
}

// execute runs cmd behind the route guard. A panic anywhere inside is
// turned into a full reload.
func (a *App) execute(ctx context.Context, cmd *command, args []string) (err error) {
	cctx, stop := notifyContext(ctx)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error(ctx, "command panicked", "command", cmd.name, "panic", fmt.Sprint(r))
			a.println(msgCrashed)
			a.reload(ctx)
			err = errPanicked
		}
	}()

	rt := a.current()
	if ok, err := a.guard(cctx, rt, cmd); !ok || err != nil {
		return err
	}
	return cmd.run(a, cctx, rt, args)
}

// guard waits for the session to finish restoring and refuses commands the
// current user may not run.
func (a *App) guard(ctx context.Context, rt *runtime, cmd *command) (bool, error) {
	if cmd.access == accessPublic {
		return true, nil
	}
	if err := rt.session.WaitReady(ctx); err != nil {
		return false, err
	}

	snap := rt.session.Snapshot()
	if snap.Status != session.Authenticated {
		a.println(msgLoginFirst)
		return false, nil
	}
	if cmd.access == accessAdmin && (snap.User == nil || !snap.User.IsSuperuser) {
		a.println(msgAccessDenied)
		return false, nil
	}
	if cmd.needProject && rt.open() == nil {
		a.println(msgOpenProject)
		return false, nil
	}
	return true, nil
}

// report prints what the user has not already seen. Gateway failures were
// shown as toasts when they happened.
func (a *App) report(cmd *command, err error) {
	var gwErr *gateway.Error

	switch {
	case err == nil, errors.Is(err, errPanicked):
	case errors.Is(err, errUsage):
		a.printf("Usage: %s %s\n", cmd.name, cmd.args)
	case errors.Is(err, context.Canceled):
		a.println("Cancelled.")
	case errors.Is(err, gateway.ErrPaymentRequired):
		a.println(msgPaywall)
	case errors.As(err, &gwErr):
	default:
		a.println("Error:", err)
	}
}

func (a *App) help(_ context.Context, rt *runtime, _ []string) error {
	snap := rt.session.Snapshot()
	signedIn := snap.Status == session.Authenticated
	admin := signedIn && snap.User != nil && snap.User.IsSuperuser

	names := make([]string, 0, len(commands))
	for name, c := range commands {
		if name != c.name {
			continue
		}
		switch c.access {
		case accessMember:
			if !signedIn {
				continue
			}
		case accessAdmin:
			if !admin {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	a.println("Available commands:")
	for _, name := range names {
		c := commands[name]
		a.printf("  %-28s %s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	return nil
}
