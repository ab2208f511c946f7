// Package tui is the terminal front end: the portfolio page, the login
// page and the edition dialogs.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/strrl/folio/internal/admin"
	"github.com/strrl/folio/internal/auth"
	"github.com/strrl/folio/internal/catalog"
	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/internal/gallery"
	"github.com/strrl/folio/internal/logging"
	"github.com/strrl/folio/internal/modal"
)

// DefaultStatusInterval is how often the session expiry is re-checked.
const DefaultStatusInterval = 30 * time.Second

type page int

const (
	pageHome page = iota
	pageLogin
)

// Deps are the collaborators of the front end.
type Deps struct {
	Catalog        *catalog.Catalog
	Auth           *auth.Manager
	Log            *zap.Logger
	StatusInterval time.Duration
}

// Model is the root bubbletea model.
type Model struct {
	deps   Deps
	ctx    context.Context
	log    *zap.Logger
	events chan auth.Changed
	unsub  func()

	env     *env
	page    page
	home    *homePage
	login   *loginPage
	modals  *modal.Manager
	admin   *admin.Coordinator
	loading *LoadingIndicator
	loaded  int

	reloadRequested bool
	ready           bool
	width           int
	height          int
}

// New builds the root model and subscribes it to auth events.
func New(ctx context.Context, deps Deps) *Model {
	if deps.StatusInterval <= 0 {
		deps.StatusInterval = DefaultStatusInterval
	}
	m := &Model{
		deps:   deps,
		ctx:    ctx,
		log:    logging.OrNop(deps.Log).Named("tui"),
		events: make(chan auth.Changed, 16),
	}
	m.unsub = deps.Auth.Subscribe(func(ev auth.Changed) {
		select {
		case m.events <- ev:
		default:
			m.log.Warn("auth event dropped", zap.Bool("logged_in", ev.IsLoggedIn))
		}
	})
	m.build()
	return m
}

// Close detaches the model from the auth manager.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

// build creates a fresh page state. It is also how a reload happens.
func (m *Model) build() {
	if m.modals != nil {
		m.modals.CloseAll()
	}

	m.home = newHomePage()
	if m.ready {
		m.home.setSize(m.width, m.height)
	}
	works := gallery.NewController(m.home)
	m.modals = modal.NewManager(modal.WithTeardown(m.home.refresh))
	m.modals.SetSize(m.width, m.height)
	works.Subscribe(m.modals)

	m.env = &env{
		ctx:      m.ctx,
		catalog:  m.deps.Catalog,
		works:    works,
		inflight: gallery.NewInFlight(),
	}
	m.admin = admin.New(m.home, m.deps.Auth, func() { m.reloadRequested = true }, m.log)
	m.admin.Apply()

	m.page = pageHome
	m.login = nil
	m.loading = NewLoadingIndicator("Chargement des projets…")
	m.loading.SetSteps(0, loadSteps)
	m.loaded = 0
	m.reloadRequested = false
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		loadDataCmd(m.ctx, m.deps.Catalog),
		listenAuthCmd(m.events),
		statusTickCmd(m.deps.StatusInterval),
		tickCmd(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.home.setSize(msg.Width, msg.Height)
		m.modals.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case worksLoadedMsg:
		if msg.Err != nil {
			m.log.Warn("loading works failed", zap.Error(msg.Err))
			m.env.alert = errs.UserMessage(msg.Err)
		} else {
			m.env.works.SetWorks(msg.Works)
		}
		m.stepLoaded()
		return m, nil

	case categoriesLoadedMsg:
		if msg.Err != nil {
			m.log.Warn("loading categories failed", zap.Error(msg.Err))
			m.env.alert = errs.UserMessage(msg.Err)
		} else {
			m.home.setCategories(msg.Categories)
			m.env.works.SetCategories(msg.Categories)
		}
		m.stepLoaded()
		return m, nil

	case authChangedMsg:
		m.admin.Handle(auth.Changed(msg))
		if !msg.IsLoggedIn {
			m.modals.CloseAll()
		}
		return m, listenAuthCmd(m.events)

	case statusTickMsg:
		m.deps.Auth.CheckStatus()
		return m, statusTickCmd(m.deps.StatusInterval)

	case TickMsg:
		if m.loading == nil {
			return m, nil
		}
		m.loading.Tick()
		return m, tickCmd()

	case loginResultMsg:
		if m.login == nil {
			return m, nil
		}
		if msg.Err != nil {
			m.login.failed(msg.Err)
			return m, nil
		}
		m.login = nil
		m.page = pageHome
		return m, nil

	case deleteResultMsg:
		m.env.inflight.Release(deleteKey(msg.ID))
		if msg.Err != nil {
			m.log.Info("delete failed", zap.Int("id", msg.ID), zap.Error(msg.Err))
			m.env.alert = errs.UserMessage(msg.Err)
			return m, nil
		}
		if err := m.env.works.RemoveWork(msg.ID); err != nil {
			m.env.alert = errs.UserMessage(err)
		}
		return m, warmCmd(m.ctx, m.deps.Catalog)

	case createResultMsg:
		m.env.inflight.Release(createKey(msg.Frame))
		frame, _ := m.modals.Find(msg.Frame).(*addWorkFrame)
		if msg.Err != nil {
			m.log.Info("create failed", zap.Error(msg.Err))
			if frame != nil {
				frame.failed(msg.Err)
			} else {
				m.env.alert = errs.UserMessage(msg.Err)
			}
			return m, nil
		}
		m.env.works.AddWork(msg.Work)
		if frame != nil && m.modals.Active() == modal.Frame(frame) {
			m.modals.Back()
		}
		return m, warmCmd(m.ctx, m.deps.Catalog)

	case openFrameMsg:
		return m, m.openFrame(msg.Kind)

	case reloadMsg:
		m.build()
		return m, tea.Batch(loadDataCmd(m.ctx, m.deps.Catalog), tickCmd())
	}

	if handled, cmd := m.modals.Update(msg); handled {
		return m, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		if m.page == pageLogin {
			return m, m.updateLogin(key)
		}
		return m, m.updateHome(key)
	}

	if m.page == pageHome {
		var cmd tea.Cmd
		m.home.viewport, cmd = m.home.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) stepLoaded() {
	m.loaded++
	if m.loaded >= loadSteps {
		m.loading = nil
		return
	}
	if m.loading != nil {
		m.loading.SetSteps(m.loaded, loadSteps)
	}
}

func (m *Model) openFrame(kind string) tea.Cmd {
	if !m.deps.Auth.IsLoggedIn() {
		return nil
	}
	if f := m.modals.Active(); f != nil && f.Kind() == kind {
		return nil
	}
	switch kind {
	case kindGallery:
		return m.modals.Open(newGalleryFrame(m.env))
	case kindAddWork:
		return m.modals.Open(newAddWorkFrame(m.env))
	}
	return nil
}

func (m *Model) updateHome(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "q":
		return tea.Quit
	case "left", "right":
		if !m.home.filtersVisible {
			return nil
		}
		step := 1
		if key.String() == "left" {
			step = -1
		}
		m.env.works.FilterByCategory(m.home.nextFilter(step))
		return nil
	case "l":
		if m.home.link == admin.LinkLogout {
			m.admin.Logout()
			if m.reloadRequested {
				return reloadCmd()
			}
			return nil
		}
		m.login = newLoginPage()
		m.page = pageLogin
		return textinput.Blink
	case "e":
		if m.home.HasEditButton(admin.SectionPortfolio) {
			return m.openFrame(kindGallery)
		}
		return nil
	case "x":
		m.env.alert = ""
		return nil
	}

	var cmd tea.Cmd
	m.home.viewport, cmd = m.home.viewport.Update(key)
	return cmd
}

func (m *Model) updateLogin(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.login = nil
		m.page = pageHome
		return nil
	case tea.KeyEnter:
		creds, ok := m.login.submit()
		if !ok {
			return nil
		}
		return loginCmd(m.ctx, m.deps.Auth, creds)
	}
	return m.login.update(key)
}

func (m *Model) View() string {
	if !m.ready {
		return "\n  Initialisation..."
	}

	var base string
	switch {
	case m.page == pageLogin && m.login != nil:
		base = m.login.view()
	case m.loading != nil:
		base = LoadingOverlay(m.width, m.height, m.loading)
	default:
		base = m.home.view(m.env.alert)
	}
	return m.modals.View(base)
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
