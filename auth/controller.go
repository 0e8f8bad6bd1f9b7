package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cleanflow/go-client-session/relations"
	"github.com/cleanflow/go-client-session/sessions"
	"github.com/cleanflow/go-client-session/tabs"
	"github.com/cleanflow/go-client-session/token"
	"github.com/cleanflow/go-client-session/users"
)

// Verifier validates credentials and registers accounts. Implemented outside
// the core; failures carry user-facing messages surfaced verbatim.
type Verifier interface {
	// Login returns the user on success; unknown email, wrong password and
	// inactive accounts all fail.
	Login(ctx context.Context, email, password string) (*users.User, error)

	// Register creates an account without logging it in.
	Register(ctx context.Context, registration users.Registration) (*users.User, error)
}

// Subscription is returned by Subscribe; calling it removes the listener.
type Subscription func()

// Deps holds all collaborator dependencies for the Controller.
type Deps struct {
	Verifier  Verifier         // Credential verification and registration
	Relations relations.Loader // Role-linked record lookup
	Sessions  *sessions.Store  // Tab-scoped session persistence
	Tabs      *tabs.Registry   // Shared open-tab tracking
	Tokens    *token.Issuer    // Session token issuance
}

// Controller orchestrates the session lifecycle for one tab: restoration at
// startup, login, signup with auto-login, logout, and the role-derived
// routing decision. One instance exists per tab; instances share state only
// through the tab registry and, indirectly, the session-clearing it triggers.
type Controller struct {
	deps    Deps
	nowFunc func() time.Time
	logger  zerolog.Logger

	lock        sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSubID   int
	inFlight    bool // Serializes login/signup per controller instance
	disposed    bool
}

type ControllerOption func(*Controller)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowFunc = now
	}
}

// WithLogger sets the controller's logger.
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New initializes a Controller with required dependencies. Optional
// configuration can be provided via options (e.g. WithNowFunc for testing).
func New(deps Deps, options ...ControllerOption) (*Controller, error) {
	if deps.Verifier == nil {
		return nil, errors.New("[auth.New] Verifier is required")
	}
	if deps.Relations == nil {
		return nil, errors.New("[auth.New] Relations loader is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[auth.New] Sessions store is required")
	}
	if deps.Tabs == nil {
		return nil, errors.New("[auth.New] Tabs registry is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[auth.New] Tokens issuer is required")
	}

	controller := &Controller{
		deps:        deps,
		nowFunc:     time.Now,
		logger:      zerolog.Nop(),
		state:       unauthenticated(true),
		subscribers: make(map[int]func(State)),
	}

	for _, opt := range options {
		opt(controller)
	}

	return controller, nil
}

// Init registers this tab in the shared registry, starts the reconciler and
// restores any existing session. Invoked once per tab at startup.
func (c *Controller) Init(ctx context.Context) {
	c.deps.Tabs.AddSelf()
	c.deps.Tabs.StartReconciler(ctx)
	c.RestoreSession(ctx)
}

// Dispose unregisters the tab and stops the reconciler. If this was the last
// open tab, removal triggers the registry's cleanup hook and the session
// entry is cleared.
func (c *Controller) Dispose() {
	c.lock.Lock()
	if c.disposed {
		c.lock.Unlock()
		return
	}
	c.disposed = true
	c.subscribers = make(map[int]func(State))
	c.lock.Unlock()

	c.deps.Tabs.RemoveSelf()
	c.deps.Tabs.Stop()
}

// Subscribe registers a listener invoked on every state publication. The
// returned Subscription removes it.
func (c *Controller) Subscribe(listener func(State)) Subscription {
	c.lock.Lock()
	defer c.lock.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = listener
	return func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		delete(c.subscribers, id)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// RestoreSession reads the stored session and republishes the authenticated
// state, re-fetching the role-linked record. A session whose role data
// cannot be loaded is not trusted: any loader failure publishes the
// unauthenticated state instead (fail closed). The stored entry is kept so a
// transient failure does not destroy a valid session.
func (c *Controller) RestoreSession(ctx context.Context) {
	session := c.deps.Sessions.Read()
	if session == nil {
		c.publish(unauthenticated(false))
		return
	}

	record, err := c.deps.Relations.Load(ctx, session.User.ID, session.User.Role)
	if err != nil {
		c.logger.Warn().Err(err).Msg("role record load failed during restore, not trusting session")
		c.publish(unauthenticated(false))
		return
	}

	c.publish(authenticated(session.User, record))
}

// Login verifies credentials, persists a new session and publishes the
// authenticated state. Credential errors are returned verbatim with no state
// change beyond clearing the loading flag. A second call while one is in
// flight returns LoginInFlightErr instead of racing it.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	return c.performLogin(ctx, email, password)
}

// Signup registers the account and, on success, immediately logs it in with
// the same credentials.
func (c *Controller) Signup(ctx context.Context, registration users.Registration) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if _, err := c.deps.Verifier.Register(ctx, registration); err != nil {
		c.publishLoading(false)
		return err
	}

	return c.performLogin(ctx, registration.Email, registration.Password)
}

// Logout clears the session entry and publishes the unauthenticated state
// unconditionally - even when the clear reports an error, the UI must never
// be left looking authenticated. The tab registry is untouched: only closing
// the last tab triggers registry-based clearing.
func (c *Controller) Logout(_ context.Context) error {
	err := c.deps.Sessions.Clear()
	c.publish(unauthenticated(false))
	if err != nil {
		return errors.Wrap(err, "[Controller.Logout] clearing session")
	}
	return nil
}

// DashboardRoute returns the route for the current role; the login route
// when no user is authenticated.
func (c *Controller) DashboardRoute() string {
	state := c.Snapshot()
	if state.User == nil {
		return LoginRoute
	}
	return RouteForRole(state.User.Role)
}

func (c *Controller) performLogin(ctx context.Context, email, password string) error {
	user, err := c.deps.Verifier.Login(ctx, email, password)
	if err != nil {
		c.publishLoading(false)
		return err
	}

	record, err := c.deps.Relations.Load(ctx, user.ID, user.Role)
	if err != nil {
		c.publishLoading(false)
		return errors.Wrap(err, LoginFailedErr.Error())
	}

	signed, err := c.deps.Tokens.Issue(user)
	if err != nil {
		c.publishLoading(false)
		return errors.Wrap(err, LoginFailedErr.Error())
	}

	session := &sessions.Session{
		User:      user,
		Token:     signed,
		ExpiresAt: c.nowFunc().Add(c.deps.Tokens.Expiry()),
	}
	if err := c.deps.Sessions.Save(session); err != nil {
		c.publishLoading(false)
		return errors.Wrap(err, LoginFailedErr.Error())
	}

	c.publish(authenticated(user, record))
	return nil
}

// begin claims the single login/signup slot and raises the loading flag.
func (c *Controller) begin() error {
	c.lock.Lock()
	if c.disposed {
		c.lock.Unlock()
		return ControllerClosedErr
	}
	if c.inFlight {
		c.lock.Unlock()
		return LoginInFlightErr
	}
	c.inFlight = true
	c.state.Loading = true
	state := c.state
	listeners := c.listenersLocked()
	c.lock.Unlock()

	notify(listeners, state)
	return nil
}

func (c *Controller) end() {
	c.lock.Lock()
	c.inFlight = false
	c.lock.Unlock()
}

func (c *Controller) publish(state State) {
	c.lock.Lock()
	c.state = state
	listeners := c.listenersLocked()
	c.lock.Unlock()

	notify(listeners, state)
}

// publishLoading clears or raises the loading flag without touching the rest
// of the state.
func (c *Controller) publishLoading(loading bool) {
	c.lock.Lock()
	c.state.Loading = loading
	state := c.state
	listeners := c.listenersLocked()
	c.lock.Unlock()

	notify(listeners, state)
}

func (c *Controller) listenersLocked() []func(State) {
	listeners := make([]func(State), 0, len(c.subscribers))
	for _, listener := range c.subscribers {
		listeners = append(listeners, listener)
	}
	return listeners
}

func notify(listeners []func(State), state State) {
	for _, listener := range listeners {
		listener(state)
	}
}
