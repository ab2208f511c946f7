package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/strrl/folio/internal/api"
	"github.com/strrl/folio/internal/cache"
	"github.com/strrl/folio/internal/config"
	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/internal/validate"
	"github.com/strrl/folio/pkg/models"
)

// backend is a small in-memory stand-in for the portfolio server.
type backend struct {
	mu         sync.Mutex
	works      []models.Work
	categories []models.Category
	hits       map[string]int
	deleteCode int
}

func newBackend() *backend {
	return &backend{
		works: []models.Work{
			{ID: 1, Title: "Abajour Tahina", Category: models.Category{ID: 1, Name: "Objets"}},
			{ID: 2, Title: "Appartement Paris V", Category: models.Category{ID: 2, Name: "Appartements"}},
		},
		categories: []models.Category{{ID: 1, Name: "Objets"}, {ID: 2, Name: "Appartements"}},
		hits:       map[string]int{},
	}
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[r.Method+" "+r.URL.Path]++
	b.hits[r.Method]++

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/works":
		_ = json.NewEncoder(w).Encode(b.works)
	case r.Method == http.MethodGet && r.URL.Path == "/categories":
		_ = json.NewEncoder(w).Encode(b.categories)
	case r.Method == http.MethodPost && r.URL.Path == "/works":
		cat, _ := strconv.Atoi(r.FormValue("category"))
		created := map[string]any{"id": 10 + len(b.works), "title": r.FormValue("title"), "imageUrl": "http://x/new.png", "categoryId": cat, "userId": 1}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/works/"):
		if b.deleteCode != 0 {
			w.WriteHeader(b.deleteCode)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newCatalog(t *testing.T, b *backend, policy string) (*Catalog, *cache.Store) {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	store := cache.New(cache.NewMemory())
	client := api.New(srv.URL, api.WithTokenSource(api.TokenFunc(func() string { return "t1" })))
	return New(client, store, WithPolicy(policy), WithLogger(zaptest.NewLogger(t))), store
}

func pngImage(t *testing.T) models.ImageFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return models.ImageFile{Name: "vase.png", ContentType: "image/png", Data: buf.Bytes()}
}

func TestWorks_CachedAfterFirstFetch(t *testing.T) {
	b := newBackend()
	c, _ := newCatalog(t, b, config.PolicyPatch)
	ctx := context.Background()

	first, err := c.Works(ctx)
	require.NoError(t, err)
	second, err := c.Works(ctx)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Equal(t, 1, b.count("GET /works"))
}

func TestWarm_FillsBothCollections(t *testing.T) {
	b := newBackend()
	c, store := newCatalog(t, b, config.PolicyPatch)
	ctx := context.Background()

	c.Warm(ctx)

	var works []models.Work
	var categories []models.Category
	assert.True(t, store.Get(ctx, KeyWorks, &works))
	assert.True(t, store.Get(ctx, KeyCategories, &categories))
	assert.Len(t, works, 2)
	assert.Len(t, categories, 2)
}

func TestWarm_BackendDownIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := cache.New(cache.NewMemory())
	c := New(api.New(url), store, WithLogger(zaptest.NewLogger(t)))
	c.Warm(context.Background())

	var works []models.Work
	assert.False(t, store.Get(context.Background(), KeyWorks, &works))
}

func TestCreateWork_OversizedImageNeverSent(t *testing.T) {
	b := newBackend()
	c, _ := newCatalog(t, b, config.PolicyPatch)

	img := pngImage(t)
	img.Data = append(img.Data, make([]byte, 5*1024*1024)...)

	_, err := c.CreateWork(context.Background(), models.NewWork{Title: "Vase", CategoryID: 1, Image: img})
	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, validate.MsgImageSize, valErr.Message)
	assert.Zero(t, b.count(http.MethodGet))
	assert.Zero(t, b.count(http.MethodPost))
}

func TestCreateWork_PatchesCache(t *testing.T) {
	b := newBackend()
	c, store := newCatalog(t, b, config.PolicyPatch)
	ctx := context.Background()
	_, err := c.Works(ctx)
	require.NoError(t, err)

	created, err := c.CreateWork(ctx, models.NewWork{Title: "Vase", CategoryID: 2, Image: pngImage(t)})
	require.NoError(t, err)
	assert.Equal(t, models.Category{ID: 2, Name: "Appartements"}, created.Category)

	var works []models.Work
	require.True(t, store.Get(ctx, KeyWorks, &works))
	require.Len(t, works, 3)
	assert.Equal(t, created.ID, works[2].ID)
	assert.Equal(t, 1, b.count("GET /works"))
}

func TestCreateWork_UnknownCategory(t *testing.T) {
	b := newBackend()
	c, _ := newCatalog(t, b, config.PolicyPatch)

	_, err := c.CreateWork(context.Background(), models.NewWork{Title: "Vase", CategoryID: 9, Image: pngImage(t)})
	assert.Equal(t, map[string]string{validate.FieldCategory: validate.MsgCategoryValue + " (9 inconnue)"}, validate.Fields(err))
	assert.Zero(t, b.count(http.MethodPost))
}

func TestDeleteWork_Policies(t *testing.T) {
	tests := []struct {
		policy    string
		wantCache bool
	}{
		{config.PolicyPatch, true},
		{config.PolicyInvalidate, false},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			b := newBackend()
			c, store := newCatalog(t, b, tt.policy)
			ctx := context.Background()
			_, err := c.Works(ctx)
			require.NoError(t, err)

			require.NoError(t, c.DeleteWork(ctx, 1))

			var works []models.Work
			ok := store.Get(ctx, KeyWorks, &works)
			assert.Equal(t, tt.wantCache, ok)
			if ok {
				require.Len(t, works, 1)
				assert.Equal(t, 2, works[0].ID)
			}
		})
	}
}

func TestDeleteWork_MissingFromCacheInvalidates(t *testing.T) {
	b := newBackend()
	c, store := newCatalog(t, b, config.PolicyPatch)
	ctx := context.Background()
	_, err := c.Works(ctx)
	require.NoError(t, err)

	require.NoError(t, c.DeleteWork(ctx, 42))

	var works []models.Work
	assert.False(t, store.Get(ctx, KeyWorks, &works))
}

func TestDeleteWork_NotFoundLeavesCache(t *testing.T) {
	b := newBackend()
	b.deleteCode = http.StatusNotFound
	c, store := newCatalog(t, b, config.PolicyPatch)
	ctx := context.Background()
	_, err := c.Works(ctx)
	require.NoError(t, err)

	err = c.DeleteWork(ctx, 1)
	assert.Equal(t, "Ressource non trouvée", errs.UserMessage(err))

	var works []models.Work
	require.True(t, store.Get(ctx, KeyWorks, &works))
	assert.Len(t, works, 2)
}
