package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/strrl/folio/internal/api"
	"github.com/strrl/folio/internal/cache"
	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/pkg/models"
)

type fakeAuthn struct {
	res   api.LoginResult
	err   error
	calls int
}

func (f *fakeAuthn) Login(context.Context, models.Credentials) (api.LoginResult, error) {
	f.calls++
	return f.res, f.err
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newFixture(t *testing.T, authn Authenticator) (*Manager, *cache.Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.New(cache.NewMemory(), cache.WithClock(c.Now))
	m := NewManager(store, authn,
		WithClock(c.Now),
		WithSessionTTL(2*time.Hour),
		WithLogger(zaptest.NewLogger(t)),
	)
	return m, store, c
}

func record(m *Manager) *[]Changed {
	var events []Changed
	m.Subscribe(func(ev Changed) { events = append(events, ev) })
	return &events
}

func TestLogin_AgainstBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"t1","userId":"5"}`)
	}))
	defer srv.Close()

	m, _, _ := newFixture(t, api.New(srv.URL))
	events := record(m)

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))
	assert.True(t, m.IsLoggedIn())
	assert.Equal(t, "t1", m.Token())
	assert.Equal(t, []Changed{{IsLoggedIn: true}}, *events)

	s, ok := m.Session(context.Background())
	require.True(t, ok)
	assert.Equal(t, "5", s.UserID)
}

func TestLogin_ValidationBeforeNetwork(t *testing.T) {
	authn := &fakeAuthn{}
	m, _, _ := newFixture(t, authn)
	events := record(m)

	err := m.Login(context.Background(), models.Credentials{Email: "nope", Password: "abc"})
	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Zero(t, authn.calls)
	assert.Empty(t, *events)
	assert.False(t, m.IsLoggedIn())
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name  string
		authn *fakeAuthn
		check func(t *testing.T, err error)
	}{
		{
			name:  "unauthorized",
			authn: &fakeAuthn{err: errs.NewAPIError(http.StatusUnauthorized)},
			check: func(t *testing.T, err error) {
				assert.True(t, errs.IsStatus(err, http.StatusUnauthorized))
			},
		},
		{
			name:  "empty token",
			authn: &fakeAuthn{res: api.LoginResult{UserID: "5"}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errs.ErrNoToken)
			},
		},
		{
			name:  "network",
			authn: &fakeAuthn{err: &errs.NetworkError{Op: "POST /users/login", Err: errors.New("refused")}},
			check: func(t *testing.T, err error) {
				assert.True(t, api.IsNetwork(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newFixture(t, tt.authn)
			events := record(m)

			err := m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"})
			require.Error(t, err)
			tt.check(t, err)
			assert.False(t, m.IsLoggedIn())
			assert.Empty(t, m.Token())
			assert.Empty(t, *events)
		})
	}
}

func TestLogout_Idempotent(t *testing.T) {
	m, _, _ := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: "t1", UserID: "5"}})
	events := record(m)

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))
	m.Logout()
	m.Logout()

	assert.False(t, m.IsLoggedIn())
	assert.Empty(t, m.Token())
	assert.Equal(t, []Changed{{IsLoggedIn: true}, {IsLoggedIn: false}}, *events)
}

func TestLogout_WhenAlreadyLoggedOut(t *testing.T) {
	m, _, _ := newFixture(t, &fakeAuthn{})
	events := record(m)

	m.Logout()
	m.Logout()

	assert.False(t, m.IsLoggedIn())
	assert.Equal(t, []Changed{{IsLoggedIn: false}}, *events)
}

func TestLogin_EmitsEvenWhenAlreadyLoggedIn(t *testing.T) {
	m, _, _ := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: "t1", UserID: "5"}})
	events := record(m)
	creds := models.Credentials{Email: "a@b.com", Password: "Abc123"}

	require.NoError(t, m.Login(context.Background(), creds))
	require.NoError(t, m.Login(context.Background(), creds))

	assert.Equal(t, []Changed{{IsLoggedIn: true}, {IsLoggedIn: true}}, *events)
}

func TestLogout_AfterExpiryDoesNotRepeat(t *testing.T) {
	m, _, c := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: "t1"}})
	events := record(m)

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))
	c.t = c.t.Add(3 * time.Hour)
	m.CheckStatus()
	m.Logout()

	assert.Equal(t, []Changed{{IsLoggedIn: true}, {IsLoggedIn: false}}, *events)
}

func TestCheckStatus_EmitsOnExpiryOnly(t *testing.T) {
	m, _, c := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: "t1"}})
	events := record(m)

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))
	assert.Equal(t, LoggedIn, m.CheckStatus())
	assert.Len(t, *events, 1)

	c.t = c.t.Add(2*time.Hour + time.Second)
	assert.Equal(t, LoggedOut, m.CheckStatus())
	assert.Equal(t, LoggedOut, m.CheckStatus())
	assert.Equal(t, []Changed{{IsLoggedIn: true}, {IsLoggedIn: false}}, *events)
	assert.Empty(t, m.Token())
}

func TestNewManager_RestoresPersistedSession(t *testing.T) {
	m, store, c := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: "t1"}})
	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))

	restored := NewManager(store, nil, WithClock(c.Now))
	assert.True(t, restored.IsLoggedIn())
	events := record(restored)
	assert.Equal(t, LoggedIn, restored.CheckStatus())
	assert.Empty(t, *events)

	c.t = c.t.Add(3 * time.Hour)
	expired := NewManager(store, nil, WithClock(c.Now))
	assert.False(t, expired.IsLoggedIn())
}

func TestLogin_JWTExpiryCapsSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 1,
		"exp":    now.Add(30 * time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	m, _, c := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: token, UserID: "1"}})
	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))

	s, ok := m.Session(context.Background())
	require.True(t, ok)
	assert.True(t, now.Add(30*time.Minute).Equal(s.ExpiresAt), "expires at %s", s.ExpiresAt)

	c.t = c.t.Add(31 * time.Minute)
	assert.False(t, m.IsLoggedIn())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m, _, _ := newFixture(t, &fakeAuthn{res: api.LoginResult{Token: "t1"}})

	var order []string
	var second atomic.Int32
	m.Subscribe(func(Changed) { order = append(order, "first") })
	unsub := m.Subscribe(func(Changed) { second.Add(1); order = append(order, "second") })

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))
	unsub()
	m.Logout()

	assert.Equal(t, []string{"first", "second", "first"}, order)
	assert.Equal(t, int32(1), second.Load())
}
