package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/strrl/folio/internal/admin"
	"github.com/strrl/folio/internal/gallery"
	"github.com/strrl/folio/pkg/models"
)

const (
	siteTitle    = "Sophie Bluel · Architecte d'intérieur"
	bannerText   = "✎ Mode édition"
	editText     = "✎ modifier"
	allFilter    = "Tous"
	introduction = "Designer d'espace, Sophie Bluel conçoit des intérieurs où chaque volume raconte une histoire."
)

// homePage is the portfolio page. It is the admin.Surface decorated by the
// coordinator and the gallery.Renderer fed by the controller.
type homePage struct {
	banner         bool
	editButtons    map[string]bool
	filtersVisible bool
	link           admin.LinkMode

	categories []models.Category
	visible    []models.Work
	selected   int

	viewport viewport.Model
	ready    bool
	width    int
}

func newHomePage() *homePage {
	return &homePage{
		editButtons:    make(map[string]bool),
		filtersVisible: true,
		link:           admin.LinkLogin,
	}
}

func (h *homePage) InsertBanner()   { h.banner = true }
func (h *homePage) RemoveBanner()   { h.banner = false }
func (h *homePage) HasBanner() bool { return h.banner }

func (h *homePage) AddEditButton(section string)      { h.editButtons[section] = true }
func (h *homePage) RemoveEditButton(section string)   { delete(h.editButtons, section) }
func (h *homePage) HasEditButton(section string) bool { return h.editButtons[section] }

func (h *homePage) SetFiltersVisible(visible bool)   { h.filtersVisible = visible }
func (h *homePage) SetLoginLink(mode admin.LinkMode) { h.link = mode }

// Render implements gallery.Renderer.
func (h *homePage) Render(visible []models.Work, category int) {
	h.visible = visible
	h.selected = category
	h.refresh()
}

func (h *homePage) setCategories(categories []models.Category) {
	h.categories = categories
}

func (h *homePage) setSize(width, height int) {
	h.width = width
	vh := height - 10
	if vh < 3 {
		vh = 3
	}
	if !h.ready {
		h.viewport = viewport.New(width, vh)
		h.ready = true
	} else {
		h.viewport.Width = width
		h.viewport.Height = vh
	}
	h.refresh()
}

func (h *homePage) refresh() {
	if !h.ready {
		return
	}
	h.viewport.SetContent(h.renderWorks())
}

// filterIDs is the cycle of filter values: all, then every category.
func (h *homePage) filterIDs() []int {
	ids := []int{gallery.AllCategories}
	for _, c := range h.categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// nextFilter returns the filter value step positions away from the current one.
func (h *homePage) nextFilter(step int) int {
	ids := h.filterIDs()
	pos := 0
	for i, id := range ids {
		if id == h.selected {
			pos = i
			break
		}
	}
	pos = (pos + step + len(ids)) % len(ids)
	return ids[pos]
}

func (h *homePage) renderWorks() string {
	if len(h.visible) == 0 {
		return dimStyle.Render("  Aucun projet")
	}
	var s strings.Builder
	for i, w := range h.visible {
		cat := w.Category.Name
		if cat == "" {
			cat = fmt.Sprintf("catégorie %d", w.CategoryKey())
		}
		fmt.Fprintf(&s, "  %s  %s\n", w.Title, dimStyle.Render("· "+cat))
		if i < len(h.visible)-1 {
			s.WriteString("\n")
		}
	}
	return s.String()
}

func (h *homePage) renderFilters() string {
	if !h.filtersVisible {
		return ""
	}
	var items []string
	render := func(label string, id int) {
		if id == h.selected {
			items = append(items, filterActiveStyle.Render(label))
			return
		}
		items = append(items, filterStyle.Render(label))
	}
	render(allFilter, gallery.AllCategories)
	for _, c := range h.categories {
		render(c.Name, c.ID)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func (h *homePage) section(name, title string) string {
	line := sectionStyle.Render(title)
	if h.editButtons[name] {
		line += "  " + editStyle.Render(editText)
	}
	return line
}

func (h *homePage) view(alert string) string {
	var s strings.Builder
	if h.banner {
		s.WriteString(bannerStyle.Width(h.width).Render(bannerText) + "\n")
	}

	link := "login"
	if h.link == admin.LinkLogout {
		link = "logout"
	}
	s.WriteString(headerStyle.Render(siteTitle) + "  " + dimStyle.Render("["+link+"]") + "\n\n")

	s.WriteString(h.section(admin.SectionIntroduction, "Présentation") + "\n")
	s.WriteString(dimStyle.Render(introduction) + "\n\n")

	s.WriteString(h.section(admin.SectionPortfolio, "Mes Projets") + "\n")
	if filters := h.renderFilters(); filters != "" {
		s.WriteString(filters + "\n")
	}
	s.WriteString(h.viewport.View() + "\n")

	if alert != "" {
		s.WriteString(alertStyle.Render(alert) + "\n")
	}
	s.WriteString(h.footer())
	return s.String()
}

func (h *homePage) footer() string {
	info := "↑/↓: défiler"
	if h.filtersVisible {
		info += " • ←/→: filtrer"
	}
	if h.link == admin.LinkLogout {
		info += " • e: modifier • l: logout"
	} else {
		info += " • l: login"
	}
	info += " • q: quitter"
	return footerStyle.Render(info)
}
