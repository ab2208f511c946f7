// Package modal implements the stack of dialog frames drawn over the page.
//
// Only the top frame receives input. Opening a frame while another is
// active deactivates and stacks the current one; closing pops exactly one
// level. Dismissal happens through esc, a click on the close control or a
// click outside the dialog box.
package modal

import (
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strrl/folio/pkg/models"
)

// Frame is one dialog.
type Frame interface {
	ID() string
	Kind() string
	Title() string
	// Init runs once the frame is active for the first time.
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	Activate()
	Deactivate()
	Destroy()
}

// Targeted messages belong to the frame with the given id. They reach that
// frame even when it is stacked, and are dropped once it is destroyed.
type Targeted interface {
	FrameID() string
}

// CloseGlyph is the close control drawn in the top-right corner.
const CloseGlyph = "✕"

const minInnerWidth = 36

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	closeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// Manager owns the frame stack.
type Manager struct {
	active   Frame
	stack    []Frame
	started  map[string]bool
	width    int
	height   int
	box      rect
	closeX   int
	closeY   int
	teardown func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithTeardown registers fn to run each time the last frame closes.
func WithTeardown(fn func()) Option {
	return func(m *Manager) { m.teardown = fn }
}

// NewManager returns an empty stack.
func NewManager(opts ...Option) *Manager {
	m := &Manager{started: make(map[string]bool)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetSize records the terminal size used to centre the box.
func (m *Manager) SetSize(width, height int) {
	m.width, m.height = width, height
}

// Open makes f the active frame, stacking the current one.
func (m *Manager) Open(f Frame) tea.Cmd {
	if m.active != nil {
		m.active.Deactivate()
		m.stack = append(m.stack, m.active)
	}
	m.active = f
	f.Activate()
	if m.started[f.ID()] {
		return nil
	}
	m.started[f.ID()] = true
	return f.Init()
}

// Close destroys the active frame and reactivates the previous one.
// It is a no-op on an empty stack.
func (m *Manager) Close() {
	if m.active == nil {
		return
	}
	closing := m.active
	closing.Deactivate()
	closing.Destroy()
	delete(m.started, closing.ID())
	m.active = nil

	if n := len(m.stack); n > 0 {
		m.active = m.stack[n-1]
		m.stack = m.stack[:n-1]
		m.active.Activate()
		return
	}
	if m.teardown != nil {
		m.teardown()
	}
}

// Back returns to the previous frame.
func (m *Manager) Back() {
	m.Close()
}

// CloseAll unwinds the whole stack.
func (m *Manager) CloseAll() {
	for m.active != nil {
		m.Close()
	}
}

// Active returns the interactive frame, or nil.
func (m *Manager) Active() Frame {
	return m.active
}

// Depth counts open frames, the active one included.
func (m *Manager) Depth() int {
	if m.active == nil {
		return 0
	}
	return len(m.stack) + 1
}

// IsOpen reports whether any frame is open.
func (m *Manager) IsOpen() bool {
	return m.active != nil
}

// Find returns the open frame with the given id.
func (m *Manager) Find(id string) Frame {
	if m.active != nil && m.active.ID() == id {
		return m.active
	}
	for _, f := range m.stack {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// Update routes msg. Input goes to the active frame only and handled is
// true for every key or mouse message while a frame is open. Targeted
// messages go to their frame wherever it sits in the stack.
func (m *Manager) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	if t, ok := msg.(Targeted); ok {
		f := m.Find(t.FrameID())
		if f == nil {
			return true, nil
		}
		return true, f.Update(msg)
	}

	if m.active == nil {
		return false, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			m.Close()
			return true, nil
		}
		return true, m.active.Update(msg)

	case tea.MouseMsg:
		if msg.Type != tea.MouseLeft {
			return true, m.active.Update(msg)
		}
		if m.onCloseControl(msg.X, msg.Y) || !m.box.contains(msg.X, msg.Y) {
			m.Close()
			return true, nil
		}
		return true, m.active.Update(msg)
	}
	return false, nil
}

func (m *Manager) onCloseControl(x, y int) bool {
	return y == m.closeY && x >= m.closeX-1 && x <= m.closeX+1
}

// View draws the active frame centred over the page. base is returned
// untouched when no frame is open.
func (m *Manager) View(base string) string {
	if m.active == nil {
		return base
	}

	body := m.active.View()
	title := titleStyle.Render(m.active.Title())

	inner := lipgloss.Width(body)
	if w := lipgloss.Width(title) + 4; w > inner {
		inner = w
	}
	if inner < minInnerWidth {
		inner = minInnerWidth
	}
	if m.width > 0 && inner > m.width-4 {
		inner = max(m.width-4, lipgloss.Width(title)+2)
	}

	gap := inner - lipgloss.Width(title) - lipgloss.Width(CloseGlyph)
	header := title + strings.Repeat(" ", max(gap, 1)) + closeStyle.Render(CloseGlyph)
	box := boxStyle.Width(inner + 2).Render(header + "\n" + body)

	bw, bh := lipgloss.Width(box), lipgloss.Height(box)
	m.box = rect{x: offset(m.width, bw), y: offset(m.height, bh), w: bw, h: bh}
	m.closeX = m.box.x + bw - 3
	m.closeY = m.box.y + 1

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// offset mirrors how lipgloss.Place splits the gap around centred content.
func offset(total, size int) int {
	gap := total - size
	if gap <= 0 {
		return 0
	}
	return gap - int(math.Round(float64(gap)*float64(lipgloss.Center)))
}

// WorkAdded forwards to every open frame that tracks works.
func (m *Manager) WorkAdded(w models.Work) {
	m.each(func(f Frame) {
		if o, ok := f.(interface{ WorkAdded(models.Work) }); ok {
			o.WorkAdded(w)
		}
	})
}

// WorkRemoved forwards to every open frame that tracks works.
func (m *Manager) WorkRemoved(id int) {
	m.each(func(f Frame) {
		if o, ok := f.(interface{ WorkRemoved(int) }); ok {
			o.WorkRemoved(id)
		}
	})
}

func (m *Manager) each(fn func(Frame)) {
	for _, f := range m.stack {
		fn(f)
	}
	if m.active != nil {
		fn(m.active)
	}
}
