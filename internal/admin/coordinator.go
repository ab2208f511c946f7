// Package admin switches the home page between visitor and edition mode
// as the session comes and goes.
package admin

import (
	"go.uber.org/zap"

	"github.com/strrl/folio/internal/auth"
	"github.com/strrl/folio/internal/logging"
)

// Sections that receive an edit button in edition mode.
const (
	SectionPortfolio    = "portfolio"
	SectionIntroduction = "introduction"
)

// EditableSections lists them in display order.
var EditableSections = []string{SectionIntroduction, SectionPortfolio}

// LinkMode is what the login link does.
type LinkMode int

const (
	LinkLogin LinkMode = iota
	LinkLogout
)

func (m LinkMode) String() string {
	if m == LinkLogout {
		return "logout"
	}
	return "login"
}

// Surface is the page the coordinator decorates.
type Surface interface {
	InsertBanner()
	RemoveBanner()
	HasBanner() bool
	AddEditButton(section string)
	RemoveEditButton(section string)
	HasEditButton(section string) bool
	SetFiltersVisible(visible bool)
	SetLoginLink(mode LinkMode)
}

// Session is the part of the auth manager the coordinator uses.
type Session interface {
	Subscribe(fn func(auth.Changed)) func()
	IsLoggedIn() bool
	Logout()
}

// Coordinator keeps the surface in step with the session. It removes only
// the elements it inserted itself.
type Coordinator struct {
	surface Surface
	session Session
	reload  func()
	log     *zap.Logger

	ownsBanner bool
	owned      map[string]bool
	unsub      func()
}

// New builds a coordinator. reload runs after Logout to rebuild the page.
func New(surface Surface, session Session, reload func(), log *zap.Logger) *Coordinator {
	return &Coordinator{
		surface: surface,
		session: session,
		reload:  reload,
		log:     logging.OrNop(log).Named("admin"),
		owned:   make(map[string]bool),
	}
}

// Apply brings the surface in line with the current session.
func (c *Coordinator) Apply() {
	c.Handle(auth.Changed{IsLoggedIn: c.session.IsLoggedIn()})
}

// Attach applies the current state and follows future changes. Callers
// that deliver events themselves use Apply and Handle instead.
func (c *Coordinator) Attach() {
	if c.unsub != nil {
		return
	}
	c.Apply()
	c.unsub = c.session.Subscribe(c.Handle)
}

// Detach stops following the session.
func (c *Coordinator) Detach() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// Handle applies ev to the surface.
func (c *Coordinator) Handle(ev auth.Changed) {
	if ev.IsLoggedIn {
		c.enter()
		return
	}
	c.leave()
}

func (c *Coordinator) enter() {
	if !c.surface.HasBanner() {
		c.surface.InsertBanner()
		c.ownsBanner = true
	}
	for _, section := range EditableSections {
		if c.surface.HasEditButton(section) {
			continue
		}
		c.surface.AddEditButton(section)
		c.owned[section] = true
	}
	c.surface.SetFiltersVisible(false)
	c.surface.SetLoginLink(LinkLogout)
	c.log.Debug("edition mode on")
}

func (c *Coordinator) leave() {
	if c.ownsBanner {
		c.surface.RemoveBanner()
		c.ownsBanner = false
	}
	for _, section := range EditableSections {
		if !c.owned[section] {
			continue
		}
		c.surface.RemoveEditButton(section)
		delete(c.owned, section)
	}
	c.surface.SetFiltersVisible(true)
	c.surface.SetLoginLink(LinkLogin)
	c.log.Debug("edition mode off")
}

// Logout ends the session and reloads the page so nothing from edition
// mode survives.
func (c *Coordinator) Logout() {
	c.session.Logout()
	if c.reload != nil {
		c.reload()
	}
}
