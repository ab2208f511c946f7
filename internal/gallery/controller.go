// Package gallery holds the in-memory list of works shown by the client
// and the active category filter.
package gallery

import (
	"fmt"
	"sync"

	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/pkg/models"
)

// AllCategories is the filter value that shows every work.
const AllCategories = 0

// Renderer receives the visible works after every change.
type Renderer interface {
	Render(visible []models.Work, category int)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(visible []models.Work, category int)

func (f RenderFunc) Render(visible []models.Work, category int) { f(visible, category) }

// Observer is told about confirmed additions and removals.
type Observer interface {
	WorkAdded(w models.Work)
	WorkRemoved(id int)
}

// Controller is the authoritative local copy of the works. It only applies
// state that the backend has already confirmed.
type Controller struct {
	mu         sync.RWMutex
	works      []models.Work
	categories []models.Category
	selected   int
	renderer   Renderer
	observers  []observerEntry
	nextID     int
}

type observerEntry struct {
	id int
	o  Observer
}

// NewController returns an empty controller rendering to r. r may be nil.
func NewController(r Renderer) *Controller {
	return &Controller{renderer: r}
}

// Subscribe adds an observer. The returned func removes it.
func (c *Controller) Subscribe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observerEntry{id: id, o: o})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.observers {
			if e.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// SetWorks replaces the list with a copy of works.
func (c *Controller) SetWorks(works []models.Work) {
	c.mu.Lock()
	c.works = append([]models.Work(nil), works...)
	c.mu.Unlock()
	c.render()
}

// SetCategories replaces the known categories. A selected category that no
// longer exists falls back to AllCategories.
func (c *Controller) SetCategories(categories []models.Category) {
	c.mu.Lock()
	c.categories = append([]models.Category(nil), categories...)
	if c.selected != AllCategories && !hasCategory(c.categories, c.selected) {
		c.selected = AllCategories
	}
	c.mu.Unlock()
	c.render()
}

// Categories returns a copy of the known categories.
func (c *Controller) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category(nil), c.categories...)
}

// FilterByCategory selects a category and returns the works now visible.
func (c *Controller) FilterByCategory(id int) []models.Work {
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
	c.render()
	return c.Visible()
}

// Selected returns the active category filter.
func (c *Controller) Selected() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Visible returns the works matching the active filter, in list order.
func (c *Controller) Visible() []models.Work {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Filter(c.works, c.selected)
}

// All returns a copy of every work regardless of the filter.
func (c *Controller) All() []models.Work {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Work(nil), c.works...)
}

// Find looks a work up by id.
func (c *Controller) Find(id int) (models.Work, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.works {
		if w.ID == id {
			return w, true
		}
	}
	return models.Work{}, false
}

// AddWork appends a created work, re-renders and notifies observers.
func (c *Controller) AddWork(w models.Work) {
	c.mu.Lock()
	c.works = append(c.works, w)
	observers := append([]observerEntry(nil), c.observers...)
	c.mu.Unlock()

	c.render()
	for _, e := range observers {
		e.o.WorkAdded(w)
	}
}

// RemoveWork drops a deleted work. It fails with a StateError when the id
// is not in the list.
func (c *Controller) RemoveWork(id int) error {
	c.mu.Lock()
	idx := -1
	for i, w := range c.works {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return &errs.StateError{Op: "remove work", Message: fmt.Sprintf("work %d introuvable", id)}
	}
	c.works = append(c.works[:idx:idx], c.works[idx+1:]...)
	observers := append([]observerEntry(nil), c.observers...)
	c.mu.Unlock()

	c.render()
	for _, e := range observers {
		e.o.WorkRemoved(id)
	}
	return nil
}

func (c *Controller) render() {
	if c.renderer == nil {
		return
	}
	c.mu.RLock()
	visible := Filter(c.works, c.selected)
	selected := c.selected
	c.mu.RUnlock()
	c.renderer.Render(visible, selected)
}

// Filter returns the works of category id, or all of them for
// AllCategories. Order is preserved and works is never modified.
func Filter(works []models.Work, id int) []models.Work {
	out := make([]models.Work, 0, len(works))
	for _, w := range works {
		if id == AllCategories || w.CategoryKey() == id {
			out = append(out, w)
		}
	}
	return out
}

func hasCategory(categories []models.Category, id int) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
