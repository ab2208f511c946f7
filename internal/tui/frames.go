package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/strrl/folio/internal/catalog"
	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/internal/gallery"
	"github.com/strrl/folio/internal/validate"
	"github.com/strrl/folio/pkg/models"
)

const (
	kindGallery = "gallery"
	kindAddWork = "add-work"
)

// env is the state shared by the page and its frames for one build of the
// root model.
type env struct {
	ctx      context.Context
	catalog  *catalog.Catalog
	works    *gallery.Controller
	inflight *gallery.InFlight
	alert    string
}

func deleteKey(id int) string {
	return "delete:" + strconv.Itoa(id)
}

func createKey(frame string) string {
	return "create:" + frame
}

// galleryFrame lists every work and deletes them.
type galleryFrame struct {
	id      string
	env     *env
	works   []models.Work
	cursor  int
	confirm int
	active  bool
}

func newGalleryFrame(e *env) *galleryFrame {
	return &galleryFrame{id: uuid.NewString(), env: e}
}

func (f *galleryFrame) ID() string    { return f.id }
func (f *galleryFrame) Kind() string  { return kindGallery }
func (f *galleryFrame) Title() string { return "Galerie photo" }

func (f *galleryFrame) Init() tea.Cmd {
	f.reload()
	return nil
}

func (f *galleryFrame) Activate() {
	f.active = true
	f.reload()
}

func (f *galleryFrame) Deactivate() {
	f.active = false
	f.confirm = 0
}

func (f *galleryFrame) Destroy() { f.works = nil }

func (f *galleryFrame) WorkAdded(models.Work) { f.reload() }
func (f *galleryFrame) WorkRemoved(int)       { f.reload() }

func (f *galleryFrame) reload() {
	f.works = f.env.works.All()
	if f.cursor >= len(f.works) {
		f.cursor = max(len(f.works)-1, 0)
	}
	if f.confirm != 0 {
		if _, ok := f.env.works.Find(f.confirm); !ok {
			f.confirm = 0
		}
	}
}

func (f *galleryFrame) current() (models.Work, bool) {
	if f.cursor < 0 || f.cursor >= len(f.works) {
		return models.Work{}, false
	}
	return f.works[f.cursor], true
}

func (f *galleryFrame) Update(msg tea.Msg) tea.Cmd {
	if !f.active {
		return nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "up", "k":
		if f.cursor > 0 {
			f.cursor--
			f.confirm = 0
		}
	case "down", "j":
		if f.cursor < len(f.works)-1 {
			f.cursor++
			f.confirm = 0
		}
	case "d", "delete":
		w, ok := f.current()
		if !ok || f.env.inflight.Busy(deleteKey(w.ID)) {
			return nil
		}
		f.confirm = w.ID
	case "n":
		f.confirm = 0
	case "y", "enter":
		if f.confirm == 0 {
			return nil
		}
		id := f.confirm
		f.confirm = 0
		if _, ok := f.env.works.Find(id); !ok {
			f.env.alert = errs.UserMessage(&errs.StateError{Op: "delete", Message: "Ce projet n'existe plus"})
			return nil
		}
		if !f.env.inflight.Acquire(deleteKey(id)) {
			return nil
		}
		f.env.alert = ""
		return deleteCmd(f.env.ctx, f.env.catalog, id)
	case "a":
		return func() tea.Msg { return openFrameMsg{Kind: kindAddWork} }
	}
	return nil
}

func (f *galleryFrame) View() string {
	var s strings.Builder
	if len(f.works) == 0 {
		s.WriteString(dimStyle.Render("Aucun projet") + "\n")
	}
	for i, w := range f.works {
		line := fmt.Sprintf("%3d  %s", w.ID, w.Title)
		switch {
		case f.env.inflight.Busy(deleteKey(w.ID)):
			line += dimStyle.Render("  suppression…")
		case f.confirm == w.ID:
			line += errorStyle.Render("  supprimer ? y/n")
		}
		if i == f.cursor {
			s.WriteString(selectedStyle.Render("› "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	if f.env.alert != "" {
		s.WriteString("\n" + alertStyle.Render(f.env.alert) + "\n")
	}
	s.WriteString("\n" + buttonStyle.Render("Ajouter une photo") + "\n")
	s.WriteString(footerStyle.Render("d: supprimer • a: ajouter • esc: fermer"))
	return s.String()
}

const (
	focusPath = iota
	focusTitle
	focusCategory
	focusSubmit
	focusCount
)

// addWorkFrame uploads a new work.
type addWorkFrame struct {
	id     string
	env    *env
	active bool

	path       textinput.Model
	title      textinput.Model
	categories []models.Category
	catIdx     int
	focus      int

	image   *models.ImageFile
	width   int
	height  int
	reading bool
	pending bool
	fields  map[string]string
	err     string
}

func newAddWorkFrame(e *env) *addWorkFrame {
	path := textinput.New()
	path.Placeholder = "chemin de l'image (jpg, png : 4mo max)"
	path.Width = 40

	title := textinput.New()
	title.Placeholder = "titre"
	title.CharLimit = 120
	title.Width = 40

	return &addWorkFrame{
		id:         uuid.NewString(),
		env:        e,
		path:       path,
		title:      title,
		categories: e.works.Categories(),
		catIdx:     -1,
		fields:     map[string]string{},
	}
}

func (f *addWorkFrame) ID() string    { return f.id }
func (f *addWorkFrame) Kind() string  { return kindAddWork }
func (f *addWorkFrame) Title() string { return "Ajout photo" }

func (f *addWorkFrame) Init() tea.Cmd {
	f.setFocus(focusPath)
	return textinput.Blink
}

func (f *addWorkFrame) Activate() { f.active = true }

func (f *addWorkFrame) Deactivate() {
	f.active = false
	f.path.Blur()
	f.title.Blur()
}

func (f *addWorkFrame) Destroy() { f.image = nil }

func (f *addWorkFrame) setFocus(i int) {
	f.focus = (i + focusCount) % focusCount
	f.path.Blur()
	f.title.Blur()
	switch f.focus {
	case focusPath:
		f.path.Focus()
	case focusTitle:
		f.title.Focus()
	}
}

func (f *addWorkFrame) category() int {
	if f.catIdx < 0 || f.catIdx >= len(f.categories) {
		return 0
	}
	return f.categories[f.catIdx].ID
}

// complete reports whether the form may be submitted.
func (f *addWorkFrame) complete() bool {
	return f.image != nil &&
		strings.TrimSpace(f.title.Value()) != "" &&
		f.category() > 0 &&
		!f.pending && !f.reading
}

func (f *addWorkFrame) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(previewMsg); ok {
		f.preview(m)
		return nil
	}
	if !f.active {
		return nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return nil
	case "ctrl+s":
		return f.submit()
	case "enter":
		switch f.focus {
		case focusPath:
			return f.read()
		case focusSubmit:
			return f.submit()
		default:
			f.setFocus(f.focus + 1)
			return nil
		}
	case "left", "right":
		if f.focus == focusCategory && len(f.categories) > 0 {
			step := 1
			if key.String() == "left" {
				step = -1
			}
			f.catIdx = (f.catIdx + step + len(f.categories)) % len(f.categories)
			delete(f.fields, validate.FieldCategory)
			return nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case focusPath:
		f.path, cmd = f.path.Update(key)
	case focusTitle:
		f.title, cmd = f.title.Update(key)
		delete(f.fields, validate.FieldTitle)
	}
	return cmd
}

func (f *addWorkFrame) read() tea.Cmd {
	path := strings.TrimSpace(f.path.Value())
	if path == "" {
		f.fields[validate.FieldImage] = validate.MsgImageMissing
		return nil
	}
	f.reading = true
	f.image = nil
	delete(f.fields, validate.FieldImage)
	return readImageCmd(f.id, path)
}

func (f *addWorkFrame) preview(m previewMsg) {
	f.reading = false
	if m.Err != nil {
		f.image = nil
		if fields := validate.Fields(m.Err); len(fields) > 0 {
			f.fields[validate.FieldImage] = fields[validate.FieldImage]
		} else {
			f.fields[validate.FieldImage] = m.Err.Error()
		}
		return
	}
	img := m.Image
	f.image = &img
	f.width, f.height = m.Width, m.Height
	delete(f.fields, validate.FieldImage)
	f.setFocus(focusTitle)
}

func (f *addWorkFrame) submit() tea.Cmd {
	if !f.complete() {
		return nil
	}
	w := models.NewWork{
		Title:      strings.TrimSpace(f.title.Value()),
		CategoryID: f.category(),
		Image:      *f.image,
	}
	if !f.env.inflight.Acquire(createKey(f.id)) {
		return nil
	}
	f.pending = true
	f.err = ""
	return createCmd(f.env.ctx, f.env.catalog, f.id, w)
}

// failed shows a rejected creation inline.
func (f *addWorkFrame) failed(err error) {
	f.pending = false
	if fields := validate.Fields(err); len(fields) > 0 {
		for k, v := range fields {
			f.fields[k] = v
		}
		return
	}
	f.err = errs.UserMessage(err)
}

func (f *addWorkFrame) View() string {
	var s strings.Builder
	label := func(i int, text string) string {
		if f.focus == i {
			return selectedStyle.Render(text)
		}
		return text
	}
	fieldErr := func(name string) {
		if msg := f.fields[name]; msg != "" {
			s.WriteString(errorStyle.Render(msg) + "\n")
		}
	}

	s.WriteString(label(focusPath, "Image") + "\n" + f.path.View() + "\n")
	switch {
	case f.reading:
		s.WriteString(dimStyle.Render("lecture…") + "\n")
	case f.image != nil:
		s.WriteString(dimStyle.Render(fmt.Sprintf("%s · %s · %d×%d",
			f.image.Name, humanSize(len(f.image.Data)), f.width, f.height)) + "\n")
	}
	fieldErr(validate.FieldImage)

	s.WriteString("\n" + label(focusTitle, "Titre") + "\n" + f.title.View() + "\n")
	fieldErr(validate.FieldTitle)

	cat := "‹ choisir ›"
	if f.catIdx >= 0 && f.catIdx < len(f.categories) {
		cat = "‹ " + f.categories[f.catIdx].Name + " ›"
	}
	s.WriteString("\n" + label(focusCategory, "Catégorie") + "\n" + cat + "\n")
	fieldErr(validate.FieldCategory)

	s.WriteString("\n")
	switch {
	case f.pending:
		s.WriteString(buttonDisabledStyle.Render("Envoi…"))
	case f.complete():
		s.WriteString(buttonStyle.Render("Valider"))
	default:
		s.WriteString(buttonDisabledStyle.Render("Valider"))
	}
	s.WriteString("\n")
	if f.err != "" {
		s.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	s.WriteString("\n" + footerStyle.Render("tab: champ suivant • enter: charger / valider • esc: retour"))
	return s.String()
}

func humanSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d o", n)
	}
	if n < 1024*1024 {
		return fmt.Sprintf("%.0f Ko", float64(n)/1024)
	}
	return fmt.Sprintf("%.1f Mo", float64(n)/(1024*1024))
}
