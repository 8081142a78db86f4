package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/researcher/internal/client/chat"
	"github.com/dmitrijs2005/researcher/internal/client/config"
	"github.com/dmitrijs2005/researcher/internal/client/export"
	"github.com/dmitrijs2005/researcher/internal/client/gateway"
	"github.com/dmitrijs2005/researcher/internal/client/metrics"
	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/client/notify"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/researcher/internal/client/services"
	"github.com/dmitrijs2005/researcher/internal/client/session"
	"github.com/dmitrijs2005/researcher/internal/logging"
)

type Option func(*App)

// WithPlainOutput disables terminal styling of markdown.
func WithPlainOutput(plain bool) Option {
	return func(a *App) { a.plain = plain }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

// App is the REPL and everything it drives.
type App struct {
	config     *config.Config
	store      credentials.Repository
	log        logging.Logger
	reader     *bufio.Reader
	out        *syncWriter
	plain      bool
	httpClient *http.Client

	registry *prometheus.Registry
	metrics  *metrics.Collector
	render   *renderer
	exporter *export.Renderer

	mu sync.Mutex
	rt *runtime
}

// runtime is the state a full reload throws away and rebuilds.
type runtime struct {
	bus         *notify.Bus
	gw          *gateway.Gateway
	session     *session.Manager
	auth        services.AuthService
	projects    services.ProjectService
	workspace   services.WorkspaceService
	admin       services.AdminService
	stopToast   func()
	stopSession func()

	wsMu sync.Mutex
	ws   *workspace
}

// workspace is the open project and its two conversations.
type workspace struct {
	project  models.Project
	chat     *chat.Conversation
	research *chat.Conversation
}

func NewApp(c *config.Config, store credentials.Repository, in io.Reader, out io.Writer, opts ...Option) *App {
	c.Normalize()
	a := &App{
		config:   c,
		store:    store,
		log:      logging.NewNop(),
		reader:   bufio.NewReader(in),
		out:      &syncWriter{w: out},
		registry: prometheus.NewRegistry(),
		exporter: export.NewRenderer(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: c.RequestTimeout}
	}
	a.metrics = metrics.NewCollector(a.registry)
	a.render = newRenderer(a.plain, 80)
	return a
}

// boot builds a fresh runtime and starts restoring the session in the
// background.
func (a *App) boot(ctx context.Context) *runtime {
	rt := &runtime{bus: notify.NewBus()}

	var sm *session.Manager
	gwOpts := []gateway.Option{
		gateway.WithHTTPClient(a.httpClient),
		gateway.WithTokenSource(func() string { return sm.Token() }),
		gateway.WithUnauthorizedHandler(func(token string) { sm.HandleUnauthorized(token) }),
		gateway.WithErrorSink(rt.bus.ErrorSink()),
		gateway.WithMetrics(a.metrics),
		gateway.WithLogger(a.log.With("component", "gateway")),
	}
	if a.config.RateLimit > 0 {
		gwOpts = append(gwOpts, gateway.WithLimiter(rate.NewLimiter(rate.Limit(a.config.RateLimit), a.config.RateBurst)))
	}
	rt.gw = gateway.New(a.config.APIBaseURL, gwOpts...)

	rt.auth = services.NewAuthService(rt.gw)
	rt.projects = services.NewProjectService(rt.gw)
	rt.workspace = services.NewWorkspaceService(rt.gw)
	rt.admin = services.NewAdminService(rt.gw)

	sm = session.New(rt.auth, a.store,
		session.WithNavigator(session.NavigatorFunc(a.redirectToLogin)),
		session.WithLogger(a.log.With("component", "session")),
	)
	rt.session = sm
	rt.stopSession = sm.Subscribe(rt.followSession())

	rt.stopToast = rt.bus.Subscribe(func(ev notify.Event) {
		if ev.Kind == notify.Added {
			a.println(toastLine(ev.Toast))
		}
	})

	go func() {
		if err := sm.Init(ctx); err != nil {
			a.log.Warn(ctx, "session restore failed", "error", err)
		}
	}()
	return rt
}

func (rt *runtime) shutdown() {
	rt.stopSession()
	rt.stopToast()
	rt.bus.Close()
}

func (rt *runtime) open() *workspace {
	rt.wsMu.Lock()
	defer rt.wsMu.Unlock()
	return rt.ws
}

func (rt *runtime) setWorkspace(ws *workspace) {
	rt.wsMu.Lock()
	rt.ws = ws
	rt.wsMu.Unlock()
}

// followSession closes the open project when the session ends or another
// account signs in.
func (rt *runtime) followSession() func(session.Snapshot) {
	var email string
	return func(snap session.Snapshot) {
		switch snap.Status {
		case session.Unauthenticated:
			email = ""
			rt.setWorkspace(nil)
		case session.Authenticated:
			if snap.User == nil {
				return
			}
			if email != "" && email != snap.User.Email {
				rt.setWorkspace(nil)
			}
			email = snap.User.Email
		}
	}
}

func (a *App) current() *runtime {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rt
}

// reload discards all in-memory state and starts over from storage.
func (a *App) reload(ctx context.Context) {
	a.mu.Lock()
	old := a.rt
	a.rt = a.boot(ctx)
	a.mu.Unlock()

	if old != nil {
		old.shutdown()
	}
	a.log.Info(ctx, "client state reloaded")
}

func (a *App) redirectToLogin() {
	a.println("Your session has ended. Please log in again (login).")
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// syncWriter serializes writes from the REPL and from toast callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
