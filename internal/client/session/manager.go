package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/researcher/internal/client/gateway"
	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/researcher/internal/client/tokens"
	"github.com/dmitrijs2005/researcher/internal/common"
	"github.com/dmitrijs2005/researcher/internal/logging"
)

// AuthAPI is the part of services.AuthService the manager calls.
type AuthAPI interface {
	Token(ctx context.Context, email, password string) (models.TokenBundle, error)
	Register(ctx context.Context, email, password, fullName string) (*models.UserProfile, error)
	Me(ctx context.Context, token string) (*models.UserProfile, error)
}

// Navigator sends the user to the login screen.
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) RedirectToLogin() { f() }

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Token  string
	User   *models.UserProfile
	Status Status
}

type Option func(*Manager)

func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.nav = n }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

type Manager struct {
	mu    sync.Mutex
	state Snapshot

	// notifyMu keeps observer callbacks in transition order.
	notifyMu sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int

	auth  AuthAPI
	store credentials.Repository
	nav   Navigator
	log   logging.Logger
	now   func() time.Time

	initOnce sync.Once
	ready    chan struct{}
}

func New(auth AuthAPI, store credentials.Repository, opts ...Option) *Manager {
	m := &Manager{
		state: Snapshot{Status: Initializing},
		subs:  make(map[int]func(Snapshot)),
		auth:  auth,
		store: store,
		nav:   NavigatorFunc(func() {}),
		log:   logging.NewNop(),
		now:   time.Now,
		ready: make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Init restores the session from storage and validates it with the backend.
// It may run once; later calls return ErrAlreadyInitialized.
//
// Outcomes: no stored token -> Unauthenticated; identity confirmed ->
// Authenticated; 401 -> cleared, Unauthenticated, redirect. Any other
// failure keeps the stored token: Authenticated when a profile was stored,
// Unauthenticated otherwise.
func (m *Manager) Init(ctx context.Context) error {
	err := ErrAlreadyInitialized
	m.initOnce.Do(func() {
		defer close(m.ready)
		err = m.init(ctx)
	})
	return err
}

func (m *Manager) init(ctx context.Context) error {
	stored, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error(ctx, "load session", "error", err)
		_ = m.transition(ctx, Unauthenticated, clearState, nil)
		return fmt.Errorf("load session: %w", err)
	}

	if stored.Token == "" {
		return m.transition(ctx, Unauthenticated, clearState, nil)
	}

	m.logTokenInfo(ctx, stored.Token)

	u, err := m.auth.Me(ctx, stored.Token)
	switch {
	case err == nil:
		return m.transition(ctx, Authenticated, setState(stored.Token, u), m.saveUser(u))

	case errors.Is(err, gateway.ErrUnauthorized):
		m.log.Info(ctx, "stored token rejected")
		if terr := m.transition(ctx, Unauthenticated, clearState, m.store.Clear); terr != nil {
			return terr
		}
		m.nav.RedirectToLogin()
		return nil

	case stored.User != nil:
		m.log.Warn(ctx, "identity check failed, using stored profile", "error", err)
		return m.transition(ctx, Authenticated, setState(stored.Token, stored.User), nil)

	default:
		m.log.Warn(ctx, "identity check failed, no stored profile", "error", err)
		return m.transition(ctx, Unauthenticated, setState(stored.Token, nil), nil)
	}
}

// Loading reports whether Init has not finished yet.
func (m *Manager) Loading() bool {
	select {
	case <-m.ready:
		return false
	default:
		return true
	}
}

// WaitReady blocks until Init has finished or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login exchanges credentials for a token, then loads the profile. On
// success the session is Authenticated with the profile set before Login
// returns. On any failure the session ends Unauthenticated and an
// *AuthError is returned; a 401 from either call also redirects once.
func (m *Manager) Login(ctx context.Context, email, password string) (models.TokenBundle, error) {
	if err := m.transition(ctx, Authenticating, nil, nil); err != nil {
		return models.TokenBundle{}, &AuthError{Op: "login", Err: err}
	}

	tb, err := m.auth.Token(ctx, email, password)
	if err != nil {
		return models.TokenBundle{}, m.loginFailed(ctx, err)
	}

	if err := m.storeToken(ctx, tb.AccessToken); err != nil {
		return models.TokenBundle{}, m.loginFailed(ctx, err)
	}

	u, err := m.auth.Me(ctx, tb.AccessToken)
	if err != nil {
		return models.TokenBundle{}, m.loginFailed(ctx, err)
	}

	if err := m.transition(ctx, Authenticated, setUser(u), m.saveUser(u)); err != nil {
		return models.TokenBundle{}, &AuthError{Op: "login", Err: err}
	}
	return tb, nil
}

// storeToken records the fresh token while still Authenticating.
func (m *Manager) storeToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != Authenticating {
		return fmt.Errorf("%w: session left %s during login", ErrInvalidTransition, Authenticating)
	}
	m.state.Token = token
	m.state.User = nil
	if err := m.store.SaveToken(ctx, token); err != nil {
		m.log.Error(ctx, "persist token", "error", err)
	}
	return nil
}

func (m *Manager) loginFailed(ctx context.Context, err error) error {
	m.mu.Lock()
	authenticating := m.state.Status == Authenticating
	m.mu.Unlock()

	if authenticating {
		_ = m.transition(ctx, Unauthenticated, clearState, m.store.Clear)
	}
	if errors.Is(err, gateway.ErrUnauthorized) {
		m.nav.RedirectToLogin()
	}
	return &AuthError{Op: "login", Err: err}
}

// Register creates an account. It does not sign in: the session returns to
// the status it had before the call, unless the server answers 401, which
// clears the session and redirects like any other 401.
func (m *Manager) Register(ctx context.Context, email, password, fullName string) (*models.UserProfile, error) {
	m.mu.Lock()
	prev := m.state.Status
	m.mu.Unlock()

	if err := m.transition(ctx, Authenticating, nil, nil); err != nil {
		return nil, &AuthError{Op: "register", Err: err}
	}

	u, err := m.auth.Register(ctx, email, password, fullName)

	if errors.Is(err, gateway.ErrUnauthorized) {
		if terr := m.transition(ctx, Unauthenticated, clearState, m.store.Clear); terr != nil {
			m.log.Warn(ctx, "clear session after register", "error", terr)
		}
		m.nav.RedirectToLogin()
		return nil, &AuthError{Op: "register", Err: err}
	}
	if terr := m.transition(ctx, prev, nil, nil); terr != nil {
		m.log.Warn(ctx, "restore status after register", "error", terr)
	}
	if err != nil {
		return nil, &AuthError{Op: "register", Err: err}
	}
	return u, nil
}

// RefreshIdentity reloads the profile for the current token. A 401 clears
// the session and redirects; any other failure leaves the session as it
// was. A result for a token that was replaced meanwhile is discarded.
func (m *Manager) RefreshIdentity(ctx context.Context) error {
	m.mu.Lock()
	token, status := m.state.Token, m.state.Status
	m.mu.Unlock()

	if token == "" {
		return common.ErrNotLoggedIn
	}
	if status == Initializing || status == Authenticating {
		return ErrBusy
	}

	verifying := status == Unauthenticated
	if verifying {
		if err := m.transition(ctx, Authenticating, nil, nil); err != nil {
			return err
		}
	}

	u, err := m.auth.Me(ctx, token)
	switch {
	case err == nil:
		return m.transitionIfToken(ctx, token, Authenticated, setUser(u), m.saveUser(u))

	case errors.Is(err, gateway.ErrUnauthorized):
		m.HandleUnauthorized(token)
		return err

	default:
		if verifying {
			_ = m.transitionIfToken(ctx, token, Unauthenticated, nil, nil)
		}
		return err
	}
}

// HandleUnauthorized is the gateway's 401 hook. token is the one the failed
// request carried; when it is no longer the session's token the call is
// ignored. Otherwise the session is cleared and the navigator is called once.
func (m *Manager) HandleUnauthorized(token string) {
	ctx := context.Background()

	m.mu.Lock()
	if m.state.Token != token {
		m.mu.Unlock()
		m.log.Debug(ctx, "ignoring 401 for a replaced token")
		return
	}
	m.mu.Unlock()

	if err := m.transitionIfToken(ctx, token, Unauthenticated, clearState, m.store.Clear); err != nil {
		m.log.Warn(ctx, "clear session after 401", "error", err)
		return
	}
	m.nav.RedirectToLogin()
}

// Logout clears the session locally. There is no remote call and it never
// fails; storage errors are logged.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.transition(ctx, Unauthenticated, clearState, m.store.Clear); err != nil {
		m.log.Warn(ctx, "logout", "error", err)
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Status() Status {
	return m.Snapshot().Status
}

func (m *Manager) User() *models.UserProfile {
	return m.Snapshot().User
}

// Token is the gateway's token source.
func (m *Manager) Token() string {
	return m.Snapshot().Token
}

// TokenInfo decodes the current token's claims.
func (m *Manager) TokenInfo() (tokens.Info, error) {
	t := m.Token()
	if t == "" {
		return tokens.Info{}, common.ErrNotLoggedIn
	}
	return tokens.Inspect(t)
}

// Subscribe registers fn for every transition, delivered in order. fn must
// not call Manager methods that change the session.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.notifyMu.Lock()
		defer m.notifyMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) transition(ctx context.Context, to Status, mutate func(*Snapshot), persist func(context.Context) error) error {
	return m.apply(ctx, nil, to, mutate, persist)
}

// transitionIfToken is transition guarded by the session still holding
// token; otherwise it does nothing.
func (m *Manager) transitionIfToken(ctx context.Context, token string, to Status, mutate func(*Snapshot), persist func(context.Context) error) error {
	return m.apply(ctx, &token, to, mutate, persist)
}

// apply validates and performs a move under the lock, persists it, then
// notifies observers in order.
func (m *Manager) apply(ctx context.Context, token *string, to Status, mutate func(*Snapshot), persist func(context.Context) error) error {
	m.mu.Lock()
	if token != nil && m.state.Token != *token {
		m.mu.Unlock()
		return nil
	}

	from := m.state.Status
	if !canTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if mutate != nil {
		mutate(&m.state)
	}
	m.state.Status = to
	if persist != nil {
		if err := persist(ctx); err != nil {
			m.log.Error(ctx, "persist session", "status", to, "error", err)
		}
	}
	snap := m.state

	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	if from != to {
		m.log.Info(ctx, "session transition", "from", from, "to", to)
	}
	for _, fn := range m.subs {
		fn(snap)
	}
	return nil
}

func (m *Manager) saveUser(u *models.UserProfile) func(context.Context) error {
	return func(ctx context.Context) error { return m.store.SaveUser(ctx, u) }
}

func (m *Manager) logTokenInfo(ctx context.Context, token string) {
	info, err := tokens.Inspect(token)
	if err != nil {
		m.log.Debug(ctx, "stored token is not a JWT", "error", err)
		return
	}
	if info.Expired(m.now()) {
		m.log.Info(ctx, "stored token has expired", "expired_at", info.ExpiresAt)
		return
	}
	m.log.Debug(ctx, "stored token", "subject", info.Subject, "expires_in", info.Remaining(m.now()))
}

func clearState(s *Snapshot) {
	s.Token = ""
	s.User = nil
}

func setState(token string, u *models.UserProfile) func(*Snapshot) {
	return func(s *Snapshot) {
		s.Token = token
		s.User = u
	}
}

func setUser(u *models.UserProfile) func(*Snapshot) {
	return func(s *Snapshot) { s.User = u }
}
