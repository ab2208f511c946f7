// Package catalog reads works and categories through the cache and applies
// confirmed mutations to it. It is the only writer of the works and
// categories namespaces.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/strrl/folio/internal/cache"
	"github.com/strrl/folio/internal/config"
	"github.com/strrl/folio/internal/logging"
	"github.com/strrl/folio/internal/validate"
	"github.com/strrl/folio/pkg/models"
)

// Cache keys.
var (
	KeyWorks      = cache.Key(cache.NamespaceWorks, "all")
	KeyCategories = cache.Key(cache.NamespaceCategories, "all")
)

// Backend is the subset of the API client the catalog needs.
type Backend interface {
	ListWorks(ctx context.Context) ([]models.Work, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateWork(ctx context.Context, w models.NewWork) (models.Work, error)
	DeleteWork(ctx context.Context, id int) error
}

// Catalog combines the API client and the cache store.
type Catalog struct {
	api    Backend
	store  *cache.Store
	policy string
	log    *zap.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPolicy selects how mutations reach the cache: config.PolicyPatch or
// config.PolicyInvalidate.
func WithPolicy(p string) Option {
	return func(c *Catalog) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// New builds a Catalog.
func New(api Backend, store *cache.Store, opts ...Option) *Catalog {
	c := &Catalog{api: api, store: store, policy: config.PolicyPatch}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log).Named("catalog")
	return c
}

// Works returns the cached works, fetching them on a miss.
func (c *Catalog) Works(ctx context.Context) ([]models.Work, error) {
	var works []models.Work
	if c.store.Get(ctx, KeyWorks, &works) {
		return works, nil
	}
	works, err := c.api.ListWorks(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, KeyWorks, works)
	return works, nil
}

// Categories returns the cached categories, fetching them on a miss.
func (c *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if c.store.Get(ctx, KeyCategories, &categories) {
		return categories, nil
	}
	categories, err := c.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, KeyCategories, categories)
	return categories, nil
}

// Warm fetches both collections concurrently. Failures are logged only.
func (c *Catalog) Warm(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := c.Works(ctx); err != nil {
			c.log.Warn("warming works failed", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := c.Categories(ctx); err != nil {
			c.log.Warn("warming categories failed", zap.Error(err))
		}
	}()
	wg.Wait()
}

// CreateWork validates w, uploads it and applies the created work to the
// cache. Nothing is sent when validation fails.
func (c *Catalog) CreateWork(ctx context.Context, w models.NewWork) (models.Work, error) {
	if err := validate.NewWork(w, nil); err != nil {
		return models.Work{}, err
	}
	categories, err := c.Categories(ctx)
	if err != nil {
		c.log.Warn("categories unavailable, skipping category check", zap.Error(err))
	}
	if err := validate.NewWork(w, categories); err != nil {
		return models.Work{}, err
	}

	created, err := c.api.CreateWork(ctx, w)
	if err != nil {
		return models.Work{}, err
	}
	created = withCategory(created, w.CategoryID, categories)

	c.mutate(ctx, func(works []models.Work) ([]models.Work, bool) {
		if indexOf(works, created.ID) >= 0 {
			return nil, false
		}
		return append(works, created), true
	})
	c.log.Info("work created", zap.Int("id", created.ID), zap.String("title", created.Title))
	return created, nil
}

// DeleteWork deletes the work on the backend, then drops it from the cache.
func (c *Catalog) DeleteWork(ctx context.Context, id int) error {
	if err := c.api.DeleteWork(ctx, id); err != nil {
		return err
	}
	c.mutate(ctx, func(works []models.Work) ([]models.Work, bool) {
		i := indexOf(works, id)
		if i < 0 {
			return nil, false
		}
		out := make([]models.Work, 0, len(works)-1)
		out = append(out, works[:i]...)
		return append(out, works[i+1:]...), true
	})
	c.log.Info("work deleted", zap.Int("id", id))
	return nil
}

// mutate patches the cached works with fn, or invalidates them when the
// policy says so or fn reports that the cached list does not fit.
func (c *Catalog) mutate(ctx context.Context, fn func([]models.Work) ([]models.Work, bool)) {
	if c.policy == config.PolicyInvalidate {
		c.store.Invalidate(ctx, KeyWorks)
		return
	}
	var works []models.Work
	if !c.store.Get(ctx, KeyWorks, &works) {
		return
	}
	patched, ok := fn(works)
	if !ok {
		c.log.Info("cached works out of sync, invalidating")
		c.store.Invalidate(ctx, KeyWorks)
		return
	}
	c.save(ctx, KeyWorks, patched)
}

func (c *Catalog) save(ctx context.Context, key string, v any) {
	if err := c.store.Set(ctx, key, v, 0); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func indexOf(works []models.Work, id int) int {
	for i, w := range works {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func withCategory(w models.Work, fallback int, categories []models.Category) models.Work {
	id := w.CategoryKey()
	if id == 0 {
		id = fallback
	}
	if w.Category.ID == 0 {
		w.Category.ID = id
	}
	if w.Category.Name == "" {
		for _, cat := range categories {
			if cat.ID == id {
				w.Category.Name = cat.Name
				break
			}
		}
	}
	w.CategoryID = id
	return w
}
