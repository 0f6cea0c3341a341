// AngelaMos | 2026
// service_test.go

package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/product"
)

type memCarts struct {
	mu    sync.Mutex
	carts map[string]Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: map[string]Cart{}}
}

func (m *memCarts) Get(_ context.Context, email string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	c.Items = append([]Item(nil), c.Items...)
	return &c, nil
}

func (m *memCarts) Save(_ context.Context, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	m.carts[c.UserEmail] = cp
	return nil
}

func (m *memCarts) Clear(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[email]; ok {
		c.Items = []Item{}
		m.carts[email] = c
	}
	return nil
}

type fakeCatalog map[string]*product.Product

func (f fakeCatalog) Get(_ context.Context, id string) (*product.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f fakeCatalog) GetMany(_ context.Context, ids []string) (map[string]*product.Product, error) {
	out := map[string]*product.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testCatalog() fakeCatalog {
	sale := 15.0
	return fakeCatalog{
		"shirt": {
			ID:     "shirt",
			Name:   "Linen Shirt",
			Price:  59.99,
			Sizes:  []string{"M", "L"},
			Colors: []string{"white", "navy"},
			Stock:  10,
		},
		"socks": {ID: "socks", Name: "Socks", Price: 20, SalePrice: &sale, Stock: 3},
	}
}

const ann = "ann@example.com"

func TestAddItemMergesSameVariant(t *testing.T) {
	svc := NewService(newMemCarts(), testCatalog())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "shirt", Quantity: 1, Size: "M", Color: "white"})
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "shirt", Quantity: 2, Size: "M", Color: "white"})
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItemDifferentVariantIsSeparateLine(t *testing.T) {
	svc := NewService(newMemCarts(), testCatalog())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "shirt", Quantity: 1, Size: "M", Color: "white"})
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "shirt", Quantity: 1, Size: "L", Color: "white"})
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.ItemCount())
}

func TestAddItemValidation(t *testing.T) {
	svc := NewService(newMemCarts(), testCatalog())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "shirt", Quantity: 1, Size: "XXL", Color: "white"})
	require.ErrorIs(t, err, ErrInvalidVariant)

	_, err = svc.AddItem(ctx, ann, AddItemRequest{ProductID: "ghost", Quantity: 1})
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.AddItem(ctx, ann, AddItemRequest{ProductID: "socks", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, ann, AddItemRequest{ProductID: "socks", Quantity: 2})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	svc := NewService(newMemCarts(), testCatalog())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "socks", Quantity: 1})
	require.NoError(t, err)

	c, err := svc.UpdateItem(ctx, ann, UpdateItemRequest{ProductID: "socks", Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = svc.UpdateItem(ctx, ann, UpdateItemRequest{ProductID: "socks", Quantity: 1})
	require.ErrorIs(t, err, ErrItemNotInCart)
}

func TestViewPricesWithSalePrice(t *testing.T) {
	svc := NewService(newMemCarts(), testCatalog())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "shirt", Quantity: 1, Size: "M", Color: "navy"})
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "socks", Quantity: 2})
	require.NoError(t, err)

	view, err := svc.View(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, 3, view.ItemCount)
	assert.InDelta(t, 89.99, view.Subtotal, 1e-9)
	assert.InDelta(t, 30.0, view.Items[1].LineTotal, 1e-9)
}

func TestClearKeepsCart(t *testing.T) {
	repo := newMemCarts()
	svc := NewService(repo, testCatalog())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, ann, AddItemRequest{ProductID: "socks", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, ann))

	c, err := repo.Get(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestHandlerAddItem(t *testing.T) {
	svc := NewService(newMemCarts(), testCatalog())
	r := chi.NewRouter()
	asAnn := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: "u-1",
				Email:  ann,
				Role:   "user",
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	NewHandler(svc).RegisterRoutes(r, asAnn)

	add := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)))
		return rec
	}

	require.Equal(t, http.StatusOK, add(`{"product_id":"socks","quantity":1}`).Code)
	rec := add(`{"product_id":"socks","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var view CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	assert.Equal(t, http.StatusBadRequest, add(`{"product_id":"socks","quantity":0}`).Code)
	assert.Equal(t, http.StatusNotFound, add(`{"product_id":"ghost","quantity":1}`).Code)
}
