// Package auth tracks whether the user holds a valid admin session.
//
// The session lives in the cache store under auth:session. Nothing in this
// package caches validity: every read goes back to the store and re-checks
// the expiry against the clock.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/strrl/folio/internal/api"
	"github.com/strrl/folio/internal/cache"
	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/internal/logging"
	"github.com/strrl/folio/internal/validate"
	"github.com/strrl/folio/pkg/models"
)

// KeySession is the cache key of the persisted session.
var KeySession = cache.Key(cache.NamespaceAuth, "session")

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 120 * time.Minute

// State is the authentication state.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged-in"
	}
	return "logged-out"
}

// Changed is emitted whenever the effective state changes.
type Changed struct {
	IsLoggedIn bool
}

// Authenticator performs the login exchange. *api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (api.LoginResult, error)
}

// Manager owns the session. It is the only writer of auth:session.
type Manager struct {
	store *cache.Store
	api   Authenticator
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	mu      sync.Mutex
	last    State
	emitted bool
	subs    []subscriber
	nextID  int
}

// emitRule decides whether a transition notifies subscribers.
type emitRule int

const (
	// emitOnChange emits when the state differs from the last known one.
	emitOnChange emitRule = iota
	// emitUnlessRepeated emits unless the previous event carried the same state.
	emitUnlessRepeated
	emitAlways
)

type subscriber struct {
	id int
	fn func(Changed)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSessionTTL sets how long a fresh session stays valid.
func WithSessionTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager builds a Manager whose initial state comes from whatever
// session is already persisted.
func NewManager(store *cache.Store, authn Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		api:   authn,
		ttl:   DefaultSessionTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.OrNop(m.log).Named("auth")
	m.last = m.current(context.Background())
	return m
}

// Subscribe registers fn for Changed events. Events are delivered
// synchronously in subscription order. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Changed)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// Login validates creds, exchanges them for a token and persists the
// session. On any failure the state is left untouched and nothing is emitted.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) error {
	if err := validate.Credentials(creds); err != nil {
		return err
	}
	if m.api == nil {
		return &errs.StateError{Op: "login", Message: "client API indisponible"}
	}

	res, err := m.api.Login(ctx, creds)
	if err != nil {
		m.log.Info("login rejected", zap.Error(err))
		return err
	}
	if res.Token == "" {
		return errs.ErrNoToken
	}

	issued := m.now()
	session := models.Session{
		Token:     res.Token,
		UserID:    string(res.UserID),
		IssuedAt:  issued,
		ExpiresAt: m.expiry(res.Token, issued),
	}
	if !session.Valid(issued) {
		return &errs.StateError{Op: "login", Message: "session déjà expirée"}
	}

	ttl := session.ExpiresAt.Sub(issued)
	if err := m.store.Set(ctx, KeySession, session, ttl); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.log.Info("logged in", zap.String("user_id", session.UserID), zap.Time("expires_at", session.ExpiresAt))

	m.transition(LoggedIn, emitAlways)
	return nil
}

// expiry caps issued+ttl by the token's own exp claim when it is a JWT.
// The signature is not checked; the backend does that on every request.
func (m *Manager) expiry(token string, issued time.Time) time.Time {
	exp := issued.Add(m.ttl)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return exp
	}
	tokenExp, err := claims.GetExpirationTime()
	if err != nil || tokenExp == nil {
		return exp
	}
	if tokenExp.Time.Before(exp) {
		return tokenExp.Time
	}
	return exp
}

// Logout clears the session and emits Changed{false}, except when the
// previous event already was a logout.
func (m *Manager) Logout() {
	m.store.Invalidate(context.Background(), KeySession)
	m.log.Info("logged out")
	m.transition(LoggedOut, emitUnlessRepeated)
}

// CheckStatus re-reads the session and emits only if the effective state
// differs from the last emitted one.
func (m *Manager) CheckStatus() State {
	state := m.current(context.Background())
	m.transition(state, emitOnChange)
	return state
}

// IsLoggedIn reports whether a valid session exists right now.
func (m *Manager) IsLoggedIn() bool {
	return m.current(context.Background()) == LoggedIn
}

// Token returns the bearer token of a valid session, or "".
func (m *Manager) Token() string {
	s, ok := m.Session(context.Background())
	if !ok {
		return ""
	}
	return s.Token
}

// Session returns the persisted session when it is still valid.
func (m *Manager) Session(ctx context.Context) (models.Session, bool) {
	var s models.Session
	if !m.store.Get(ctx, KeySession, &s) {
		return models.Session{}, false
	}
	if !s.Valid(m.now()) {
		m.store.Invalidate(ctx, KeySession)
		return models.Session{}, false
	}
	return s, true
}

func (m *Manager) current(ctx context.Context) State {
	if _, ok := m.Session(ctx); ok {
		return LoggedIn
	}
	return LoggedOut
}

func (m *Manager) transition(to State, rule emitRule) {
	m.mu.Lock()
	skip := false
	switch rule {
	case emitOnChange:
		skip = m.last == to
	case emitUnlessRepeated:
		skip = m.emitted && m.last == to
	}
	if skip {
		m.mu.Unlock()
		return
	}
	m.last = to
	m.emitted = true
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	ev := Changed{IsLoggedIn: to == LoggedIn}
	for _, s := range subs {
		s.fn(ev)
	}
}
