package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/folio/internal/api"
	"github.com/strrl/folio/internal/auth"
	"github.com/strrl/folio/internal/cache"
	"github.com/strrl/folio/pkg/models"
)

type fakeSurface struct {
	banner         int
	buttons        map[string]int
	filtersVisible bool
	link           LinkMode
	removals       int
}

func newSurface() *fakeSurface {
	return &fakeSurface{buttons: map[string]int{}, filtersVisible: true}
}

func (s *fakeSurface) InsertBanner()   { s.banner++ }
func (s *fakeSurface) RemoveBanner()   { s.banner--; s.removals++ }
func (s *fakeSurface) HasBanner() bool { return s.banner > 0 }
func (s *fakeSurface) AddEditButton(section string) {
	s.buttons[section]++
}
func (s *fakeSurface) RemoveEditButton(section string) {
	s.buttons[section]--
	s.removals++
}
func (s *fakeSurface) HasEditButton(section string) bool { return s.buttons[section] > 0 }
func (s *fakeSurface) SetFiltersVisible(v bool)          { s.filtersVisible = v }
func (s *fakeSurface) SetLoginLink(m LinkMode)           { s.link = m }

type fakeAuthn struct{}

func (fakeAuthn) Login(context.Context, models.Credentials) (api.LoginResult, error) {
	return api.LoginResult{Token: "t1", UserID: "5"}, nil
}

func newManager(t *testing.T) *auth.Manager {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	store := cache.New(cache.NewMemory(), cache.WithClock(now))
	return auth.NewManager(store, fakeAuthn{}, auth.WithClock(now))
}

func TestLoginShowsEditionMode(t *testing.T) {
	m := newManager(t)
	s := newSurface()
	c := New(s, m, nil, nil)
	c.Attach()

	assert.False(t, s.HasBanner())
	assert.True(t, s.filtersVisible)
	assert.Equal(t, LinkLogin, s.link)

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))

	assert.Equal(t, 1, s.banner)
	assert.False(t, s.filtersVisible)
	assert.Equal(t, LinkLogout, s.link)
	assert.Equal(t, 1, s.buttons[SectionPortfolio])
	assert.Equal(t, 1, s.buttons[SectionIntroduction])
}

func TestHandle_Idempotent(t *testing.T) {
	s := newSurface()
	c := New(s, newManager(t), nil, nil)

	c.Handle(auth.Changed{IsLoggedIn: true})
	c.Handle(auth.Changed{IsLoggedIn: true})
	assert.Equal(t, 1, s.banner)
	assert.Equal(t, 1, s.buttons[SectionPortfolio])

	c.Handle(auth.Changed{IsLoggedIn: false})
	c.Handle(auth.Changed{IsLoggedIn: false})
	assert.Equal(t, 0, s.banner)
	assert.Equal(t, 0, s.buttons[SectionPortfolio])
	assert.Equal(t, 3, s.removals)
	assert.True(t, s.filtersVisible)
}

func TestLeave_KeepsForeignElements(t *testing.T) {
	s := newSurface()
	s.InsertBanner()
	s.AddEditButton(SectionIntroduction)

	c := New(s, newManager(t), nil, nil)
	c.Handle(auth.Changed{IsLoggedIn: true})
	c.Handle(auth.Changed{IsLoggedIn: false})

	assert.Equal(t, 1, s.banner)
	assert.Equal(t, 1, s.buttons[SectionIntroduction])
	assert.Equal(t, 0, s.buttons[SectionPortfolio])
}

func TestLogout_Reloads(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))

	s := newSurface()
	reloads := 0
	c := New(s, m, func() { reloads++ }, nil)
	c.Attach()
	require.Equal(t, 1, s.banner)

	c.Logout()

	assert.False(t, m.IsLoggedIn())
	assert.Equal(t, 1, reloads)
	assert.Equal(t, 0, s.banner)
	assert.Equal(t, LinkLogin, s.link)
}

func TestDetach(t *testing.T) {
	m := newManager(t)
	s := newSurface()
	c := New(s, m, nil, nil)
	c.Attach()
	c.Detach()

	require.NoError(t, m.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "Abc123"}))
	assert.False(t, s.HasBanner())
}
