package tui

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/internal/validate"
	"github.com/strrl/folio/pkg/models"
)

type loginPage struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	fields   map[string]string
	err      string
	pending  bool
}

func newLoginPage() *loginPage {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "mot de passe"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &loginPage{email: email, password: password, fields: map[string]string{}}
}

func (l *loginPage) credentials() models.Credentials {
	return models.Credentials{
		Email:    strings.TrimSpace(l.email.Value()),
		Password: l.password.Value(),
	}
}

func (l *loginPage) setFocus(i int) {
	l.focus = i
	if i == 0 {
		l.email.Focus()
		l.password.Blur()
		return
	}
	l.email.Blur()
	l.password.Focus()
}

// submit validates the form. It returns the credentials and true when they
// can be sent.
func (l *loginPage) submit() (models.Credentials, bool) {
	if l.pending {
		return models.Credentials{}, false
	}
	creds := l.credentials()
	l.err = ""
	l.fields = validate.Fields(validate.Credentials(creds))
	if len(l.fields) > 0 {
		return models.Credentials{}, false
	}
	l.pending = true
	return creds, true
}

func (l *loginPage) failed(err error) {
	l.pending = false
	if fields := validate.Fields(err); len(fields) > 0 {
		l.fields = fields
		return
	}
	if errs.IsStatus(err, http.StatusUnauthorized) || errs.IsStatus(err, http.StatusNotFound) {
		l.err = "Erreur dans l'identifiant ou le mot de passe"
		return
	}
	l.err = errs.UserMessage(err)
}

func (l *loginPage) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		l.setFocus(1 - l.focus)
		return nil
	}
	var cmd tea.Cmd
	if l.focus == 0 {
		l.email, cmd = l.email.Update(msg)
	} else {
		l.password, cmd = l.password.Update(msg)
	}
	return cmd
}

func (l *loginPage) view() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Log In") + "\n\n")

	s.WriteString("E-mail\n" + l.email.View() + "\n")
	if msg := l.fields[validate.FieldEmail]; msg != "" {
		s.WriteString(errorStyle.Render(msg) + "\n")
	}
	s.WriteString("\nMot de passe\n" + l.password.View() + "\n")
	if msg := l.fields[validate.FieldPassword]; msg != "" {
		s.WriteString(errorStyle.Render(msg) + "\n")
	}

	s.WriteString("\n")
	if l.pending {
		s.WriteString(buttonDisabledStyle.Render("Connexion…"))
	} else {
		s.WriteString(buttonStyle.Render("Se connecter"))
	}
	s.WriteString("\n")
	if l.err != "" {
		s.WriteString("\n" + errorStyle.Render(l.err) + "\n")
	}
	s.WriteString("\n" + footerStyle.Render("tab: champ suivant • enter: se connecter • esc: retour"))
	return s.String()
}
