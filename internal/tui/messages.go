package tui

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/folio/internal/auth"
	"github.com/strrl/folio/internal/catalog"
	"github.com/strrl/folio/internal/validate"
	"github.com/strrl/folio/pkg/models"
)

// Message types for async operations
type (
	// worksLoadedMsg carries the works for the home page
	worksLoadedMsg struct {
		Works []models.Work
		Err   error
	}

	// categoriesLoadedMsg carries the categories for the filter bar
	categoriesLoadedMsg struct {
		Categories []models.Category
		Err        error
	}

	// authChangedMsg bridges auth.Changed into the event loop
	authChangedMsg auth.Changed

	// loginResultMsg is the outcome of a login attempt
	loginResultMsg struct {
		Err error
	}

	// deleteResultMsg is the outcome of a work deletion
	deleteResultMsg struct {
		ID  int
		Err error
	}

	// createResultMsg is the outcome of a work creation started by a frame
	createResultMsg struct {
		Frame string
		Work  models.Work
		Err   error
	}

	// previewMsg is a read and checked image file for an add-work frame
	previewMsg struct {
		Frame  string
		Image  models.ImageFile
		Width  int
		Height int
		Err    error
	}

	// openFrameMsg asks the root to push a frame
	openFrameMsg struct {
		Kind string
	}

	// reloadMsg rebuilds the whole page state
	reloadMsg struct{}

	// statusTickMsg triggers a session expiry check
	statusTickMsg time.Time

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time
)

func (m previewMsg) FrameID() string { return m.Frame }

// loadSteps is the number of collections the home page waits for
const loadSteps = 2

// loadDataCmd reads works and categories from the catalog concurrently
func loadDataCmd(ctx context.Context, c *catalog.Catalog) tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			works, err := c.Works(ctx)
			return worksLoadedMsg{Works: works, Err: err}
		},
		func() tea.Msg {
			categories, err := c.Categories(ctx)
			return categoriesLoadedMsg{Categories: categories, Err: err}
		},
	)
}

// warmCmd refills the catalog cache in the background
func warmCmd(ctx context.Context, c *catalog.Catalog) tea.Cmd {
	return func() tea.Msg {
		c.Warm(ctx)
		return nil
	}
}

// listenAuthCmd waits for the next auth event on ch
func listenAuthCmd(ch <-chan auth.Changed) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return authChangedMsg(ev)
	}
}

func loginCmd(ctx context.Context, m *auth.Manager, creds models.Credentials) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{Err: m.Login(ctx, creds)}
	}
}

func deleteCmd(ctx context.Context, c *catalog.Catalog, id int) tea.Cmd {
	return func() tea.Msg {
		return deleteResultMsg{ID: id, Err: c.DeleteWork(ctx, id)}
	}
}

func createCmd(ctx context.Context, c *catalog.Catalog, frame string, w models.NewWork) tea.Cmd {
	return func() tea.Msg {
		work, err := c.CreateWork(ctx, w)
		return createResultMsg{Frame: frame, Work: work, Err: err}
	}
}

// readImageCmd loads path, checks it and decodes its dimensions
func readImageCmd(frame, path string) tea.Cmd {
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return previewMsg{Frame: frame, Err: fmt.Errorf("lecture du fichier: %w", err)}
		}
		// The size is known before reading anything.
		if err := validate.ImageSize(info.Size()); err != nil {
			return previewMsg{Frame: frame, Err: err}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return previewMsg{Frame: frame, Err: fmt.Errorf("lecture du fichier: %w", err)}
		}
		img := models.ImageFile{Name: filepath.Base(path), Data: data}
		mtype, err := validate.Image(img)
		if err != nil {
			return previewMsg{Frame: frame, Err: err}
		}
		img.ContentType = mtype

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return previewMsg{Frame: frame, Err: fmt.Errorf("image illisible: %w", err)}
		}
		return previewMsg{Frame: frame, Image: img, Width: cfg.Width, Height: cfg.Height}
	}
}

func reloadCmd() tea.Cmd {
	return func() tea.Msg { return reloadMsg{} }
}

func statusTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
