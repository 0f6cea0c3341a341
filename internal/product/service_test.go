// AngelaMos | 2026
// service_test.go

package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type memRepo struct {
	mu       sync.Mutex
	products map[string]*Product
	reads    int
}

func newMemRepo(products ...*Product) *memRepo {
	m := &memRepo{products: map[string]*Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memRepo) Create(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	p, ok := m.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetByIDs(_ context.Context, ids []string) (map[string]*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memRepo) List(_ context.Context, params ListProductsParams) ([]Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.products)), nil
}

func (m *memRepo) DecrementStock(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Stock < quantity {
		return core.ErrConflict
	}
	p.Stock -= quantity
	return nil
}

func (m *memRepo) IncrementStock(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Stock += quantity
	return nil
}

func (m *memRepo) SetRating(_ context.Context, id string, rating float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Rating = rating
	p.ReviewCount = count
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func sampleProduct() *Product {
	return &Product{
		ID:       "p-1",
		Name:     "Linen Shirt",
		Price:    59.99,
		Category: "shirts",
		Sizes:    []string{"M", "L"},
		Colors:   []string{"white"},
		Stock:    10,
	}
}

func TestGetUsesCache(t *testing.T) {
	repo := newMemRepo(sampleProduct())
	svc := NewService(repo, newMemCache(), nil, nil)
	ctx := context.Background()

	first, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	second, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, repo.reads)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newMemRepo(sampleProduct())
	svc := NewService(repo, newMemCache(), nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)

	_, err = svc.Update(ctx, "p-1", UpdateProductRequest{Name: ptr("Linen Shirt II")})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt II", got.Name)
}

func TestStockChangesInvalidateCache(t *testing.T) {
	repo := newMemRepo(sampleProduct())
	svc := NewService(repo, newMemCache(), nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)

	require.NoError(t, svc.DecrementStock(ctx, "p-1", 3))
	got, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	require.NoError(t, svc.IncrementStock(ctx, "p-1", 3))
	got, err = svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	require.ErrorIs(t, svc.DecrementStock(ctx, "p-1", 11), core.ErrConflict)
	require.ErrorIs(t, svc.IncrementStock(ctx, "ghost", 1), core.ErrNotFound)
}

func TestSalePriceMustBeBelowPrice(t *testing.T) {
	svc := NewService(newMemRepo(sampleProduct()), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductRequest{
		Name:      "Coat",
		Price:     80,
		SalePrice: ptr(90.0),
		Category:  "coats",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Update(ctx, "p-1", UpdateProductRequest{SalePrice: ptr(49.99)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.InDelta(t, 49.99, got.UnitPrice(), 1e-9)

	_, err = svc.Update(ctx, "p-1", UpdateProductRequest{SalePrice: ptr(0.0)})
	require.NoError(t, err)

	got, err = svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, got.SalePrice)
	assert.InDelta(t, 59.99, got.UnitPrice(), 1e-9)
}

func TestPresignWithoutStorage(t *testing.T) {
	svc := NewService(newMemRepo(sampleProduct()), nil, nil, nil)

	_, err := svc.PresignImage(context.Background(), "p-1", "image/png")
	require.Error(t, err)
}

func TestSortSpec(t *testing.T) {
	p := ListProductsParams{}
	p.Normalize()
	assert.Equal(t, SortNewest, p.Sort)
	assert.Equal(t, "created_at", p.SortSpec()[0].Key)

	p.Sort = SortPriceDesc
	assert.Equal(t, "price", p.SortSpec()[0].Key)
	assert.Equal(t, -1, p.SortSpec()[0].Value)
}

func newProductRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	admin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: "admin-1",
				Email:  "admin@example.com",
				Role:   middleware.RoleAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	NewHandler(svc).RegisterRoutes(r, admin, middleware.RequireAdmin)
	return r
}

func TestHandlerListRejectsUnknownSort(t *testing.T) {
	router := newProductRouter(NewService(newMemRepo(sampleProduct()), nil, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?sort=cheapest", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListPaginates(t *testing.T) {
	router := newProductRouter(NewService(newMemRepo(sampleProduct()), nil, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?category=shirts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []ProductResponse `json:"items"`
		Total int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Items, 1)
	assert.True(t, body.Items[0].InStock)
}

func TestHandlerGetMissing(t *testing.T) {
	router := newProductRouter(NewService(newMemRepo(), nil, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerDeleteRequiresAdmin(t *testing.T) {
	r := chi.NewRouter()
	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: "u-1",
				Email:  "ann@example.com",
				Role:   "user",
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	NewHandler(NewService(newMemRepo(sampleProduct()), nil, nil, nil)).
		RegisterRoutes(r, asUser, middleware.RequireAdmin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/p-1", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
