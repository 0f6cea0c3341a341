// AngelaMos | 2026
// service_test.go

package order

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/audit"
	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/product"
)

type memOrders struct {
	mu        sync.Mutex
	orders    map[string]*Order
	numbers   map[string]bool
	collide   int
	createErr error
	creations int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]*Order{}, numbers: map[string]bool{}}
}

func (m *memOrders) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collide > 0 {
		m.collide--
		return core.ErrDuplicateKey
	}
	if m.createErr != nil {
		return m.createErr
	}
	if m.numbers[o.OrderNumber] {
		return core.ErrDuplicateKey
	}
	m.numbers[o.OrderNumber] = true
	cp := *o
	m.orders[o.ID] = &cp
	m.creations++
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) List(_ context.Context, params ListOrdersParams) ([]Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if params.Email != "" && o.UserEmail != params.Email {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memOrders) UpdateStatus(
	_ context.Context,
	id string,
	status, paymentStatus *string,
) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if status != nil {
		o.Status = *status
	}
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) Cancel(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status == StatusCancelled {
		return nil, core.ErrNotFound
	}
	o.Status = StatusCancelled
	cp := *o
	return &cp, nil
}

func (m *memOrders) SetPaymentIntent(_ context.Context, id, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return core.ErrNotFound
	}
	o.PaymentIntentID = intentID
	return nil
}

func (m *memOrders) SetPaymentStatusByIntent(
	_ context.Context,
	intentID, status string,
) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentIntentID == intentID {
			o.PaymentStatus = status
			cp := *o
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memOrders) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.orders)), nil
}

func (m *memOrders) Revenue(context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, o := range m.orders {
		if o.Status != StatusCancelled {
			total += o.Total
		}
	}
	return core.Round2(total), nil
}

func (m *memOrders) CountByStatus(context.Context) ([]StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, o := range m.orders {
		counts[o.Status]++
	}
	var out []StatusCount
	for _, s := range Statuses {
		if n := counts[s]; n > 0 {
			out = append(out, StatusCount{Status: s, Count: n})
		}
	}
	return out, nil
}

func (m *memOrders) Recent(_ context.Context, limit int) ([]Order, error) {
	all, _, _ := m.List(context.Background(), ListOrdersParams{})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*product.Product
	// afterRead runs once the products were read, under the lock.
	afterRead func(products map[string]*product.Product)
}

func (f *fakeCatalog) GetMany(_ context.Context, ids []string) (map[string]*product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]*product.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	if f.afterRead != nil {
		f.afterRead(f.products)
	}
	return out, nil
}

func (f *fakeCatalog) IncrementStock(_ context.Context, id string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Stock += quantity
	return nil
}

func (f *fakeCatalog) DecrementStock(_ context.Context, id string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return core.ErrConflict
	}
	p.Stock -= quantity
	return nil
}

func (f *fakeCatalog) stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

type fakeCarts struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
}

func (f *fakeCarts) Get(_ context.Context, email string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[email]
	if !ok {
		return &cart.Cart{UserEmail: email}, nil
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

func (f *fakeCarts) Clear(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[email]; ok {
		c.Items = []cart.Item{}
	}
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeAudit) Record(_ context.Context, e audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) RecordBestEffort(ctx context.Context, e audit.Entry) {
	_ = f.Record(ctx, e)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

const ann = "ann@example.com"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc     *Service
	orders  *memOrders
	catalog *fakeCatalog
	carts   *fakeCarts
	audit   *fakeAudit
	mailer  *fakeMailer
	metrics *Metrics
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders: newMemOrders(),
		catalog: &fakeCatalog{products: map[string]*product.Product{
			"shirt": {ID: "shirt", Name: "Linen Shirt", Price: 59.99, Stock: 5},
			"coat":  {ID: "coat", Name: "Wool Coat", Price: 150, Stock: 1},
		}},
		carts: &fakeCarts{carts: map[string]*cart.Cart{
			ann: {UserEmail: ann, Items: []cart.Item{
				{ProductID: "shirt", Quantity: 1, Size: "M", Color: "white"},
			}},
		}},
		audit:   &fakeAudit{},
		mailer:  &fakeMailer{},
		metrics: NewMetrics(prometheus.NewRegistry(), "test"),
	}

	env.svc = NewService(ServiceConfig{
		Repo:    env.orders,
		Catalog: env.catalog,
		Carts:   env.carts,
		Mailer:  env.mailer,
		Audit:   env.audit,
		Metrics: env.metrics,
		Now:     func() time.Time { return fixedNow },
	})

	return env
}

func testAddress() ShippingAddress {
	return ShippingAddress{
		FullName:   "Ann Example",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func TestCheckoutFromCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	o, err := env.svc.Checkout(ctx, ann, "10.0.0.1", CreateOrderRequest{
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.NoError(t, err)

	assert.InDelta(t, 59.99, o.Subtotal, 1e-9)
	assert.InDelta(t, 9.99, o.Shipping, 1e-9)
	assert.InDelta(t, 4.80, o.Tax, 1e-9)
	assert.InDelta(t, 74.78, o.Total, 1e-9)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), o.EstimatedDelivery)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Linen Shirt", o.Items[0].Name)
	assert.Equal(t, "M", o.Items[0].Size)

	c, err := env.carts.Get(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	assert.Equal(t, 4, env.catalog.stock("shirt"))

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, notify.TemplateOrderConfirmation, env.mailer.sent[0].Template)

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, audit.TypeOrderCreated, env.audit.entries[0].Type)

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.created), 1e-9)
}

func TestCheckoutMissingProductWritesNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Checkout(ctx, ann, "", CreateOrderRequest{
		Items: []ItemRequest{
			{ProductID: "shirt", Quantity: 1},
			{ProductID: "ghost", Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.ErrorIs(t, err, core.ErrNotFound)

	assert.Zero(t, env.orders.creations)
	assert.Equal(t, 5, env.catalog.stock("shirt"))

	c, err := env.carts.Get(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assert.Empty(t, env.mailer.sent)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Checkout(context.Background(), ann, "", CreateOrderRequest{
		Items:           []ItemRequest{{ProductID: "coat", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodStripe,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Zero(t, env.orders.creations)
}

func TestCheckoutStockTakenAfterPricingWritesNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.afterRead = func(products map[string]*product.Product) {
		products["coat"].Stock = 0
	}

	_, err := env.svc.Checkout(ctx, ann, "", CreateOrderRequest{
		Items: []ItemRequest{
			{ProductID: "shirt", Quantity: 1},
			{ProductID: "coat", Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Wool Coat")

	assert.Zero(t, env.orders.creations)
	count, err := env.orders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 5, env.catalog.stock("shirt"))

	c, err := env.carts.Get(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assert.Empty(t, env.mailer.sent)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.rejected.WithLabelValues("stock")), 1e-9)
}

func TestCheckoutOrderWriteFailureRestoresStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.orders.createErr = errors.New("mongo down")

	_, err := env.svc.Checkout(ctx, ann, "", CreateOrderRequest{
		Items: []ItemRequest{
			{ProductID: "shirt", Quantity: 2},
			{ProductID: "coat", Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.Error(t, err)

	count, err := env.orders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 5, env.catalog.stock("shirt"))
	assert.Equal(t, 1, env.catalog.stock("coat"))

	c, err := env.carts.Get(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Checkout(context.Background(), "nobody@example.com", "", CreateOrderRequest{
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCheckoutEmailFailureIsNotFatal(t *testing.T) {
	env := newTestEnv()
	env.mailer.err = errors.New("queue down")

	o, err := env.svc.Checkout(context.Background(), ann, "", CreateOrderRequest{
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.OrderNumber)
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	env := newTestEnv()
	env.orders.collide = 2

	o, err := env.svc.Checkout(context.Background(), ann, "", CreateOrderRequest{
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.orders.creations)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-20260301-120000-"))
	assert.Equal(t, 4, env.catalog.stock("shirt"))
}

func TestCheckoutGivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv()
	env.orders.collide = orderNumberTries

	_, err := env.svc.Checkout(context.Background(), ann, "", CreateOrderRequest{
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.ErrorIs(t, err, core.ErrDuplicateKey)
}

func placeOrder(t *testing.T, env *testEnv) *Order {
	t.Helper()
	o, err := env.svc.Checkout(context.Background(), ann, "", CreateOrderRequest{
		Items:           []ItemRequest{{ProductID: "shirt", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   MethodCOD,
	})
	require.NoError(t, err)
	return o
}

func ptr[T any](v T) *T { return &v }

func TestOwnerMayOnlyCancel(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)
	ctx := context.Background()

	_, err := env.svc.Update(ctx, o.ID, ann, "", false, UpdateOrderRequest{Status: ptr(StatusShipped)})
	require.ErrorIs(t, err, ErrOwnerStatusChange)

	_, err = env.svc.Update(ctx, o.ID, ann, "", false, UpdateOrderRequest{PaymentStatus: ptr(PaymentPaid)})
	require.ErrorIs(t, err, ErrOwnerStatusChange)

	updated, err := env.svc.Update(ctx, o.ID, ann, "", false, UpdateOrderRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestOwnerCannotCancelShippedOrder(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)
	ctx := context.Background()

	_, err := env.svc.Update(ctx, o.ID, "admin@example.com", "", true, UpdateOrderRequest{Status: ptr(StatusShipped)})
	require.NoError(t, err)

	_, err = env.svc.Update(ctx, o.ID, ann, "", false, UpdateOrderRequest{Status: ptr(StatusCancelled)})
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelReturnsStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	o := placeOrder(t, env)
	require.Equal(t, 4, env.catalog.stock("shirt"))

	_, err := env.svc.Update(ctx, o.ID, ann, "", false, UpdateOrderRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 5, env.catalog.stock("shirt"))

	_, err = env.svc.Update(ctx, o.ID, "admin@example.com", "", true, UpdateOrderRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 5, env.catalog.stock("shirt"))
}

func TestAdminCancelReturnsStockAndSetsPayment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	o := placeOrder(t, env)
	_, err := env.svc.Update(ctx, o.ID, "admin@example.com", "", true, UpdateOrderRequest{Status: ptr(StatusShipped)})
	require.NoError(t, err)

	updated, err := env.svc.Update(ctx, o.ID, "admin@example.com", "", true, UpdateOrderRequest{
		Status:        ptr(StatusCancelled),
		PaymentStatus: ptr(PaymentRefunded),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, PaymentRefunded, updated.PaymentStatus)
	assert.Equal(t, 5, env.catalog.stock("shirt"))
}

func TestCancelSkipsDeletedProducts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	o := placeOrder(t, env)
	env.catalog.mu.Lock()
	delete(env.catalog.products, "shirt")
	env.catalog.mu.Unlock()

	updated, err := env.svc.Update(ctx, o.ID, ann, "", false, UpdateOrderRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestStrangerCannotSeeOrder(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	_, err := env.svc.Get(context.Background(), o.ID, "eve@example.com", false)
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = env.svc.Get(context.Background(), o.ID, "admin@example.com", true)
	require.NoError(t, err)
}

func TestListAllRequiresAdmin(t *testing.T) {
	env := newTestEnv()
	placeOrder(t, env)
	ctx := context.Background()

	orders, _, err := env.svc.List(ctx, "eve@example.com", false, true, ListOrdersParams{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	orders, total, err := env.svc.List(ctx, "admin@example.com", true, true, ListOrdersParams{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(1), total)
}

func TestDashboardExcludesCancelledRevenue(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	kept := placeOrder(t, env)
	cancelled := placeOrder(t, env)
	_, err := env.svc.Update(ctx, cancelled.ID, ann, "", false, UpdateOrderRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)

	d, err := env.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Count)
	assert.InDelta(t, kept.Total, d.Revenue, 1e-9)
	assert.Len(t, d.ByStatus, 2)
}

func TestHandlerOwnerStatusCodes(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

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
	passthrough := func(next http.Handler) http.Handler { return next }
	NewHandler(env.svc).RegisterRoutes(r, asAnn, passthrough)

	put := func(body string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/orders/"+o.ID, strings.NewReader(body)))
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, put(`{"status":"shipped"}`))
	assert.Equal(t, http.StatusOK, put(`{"status":"cancelled"}`))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(
		`{"items":[{"product_id":"ghost","quantity":1}],"payment_method":"cod",`+
			`"shipping_address":{"full_name":"Ann","line1":"1 Main","city":"X","postal_code":"1","country":"US"}}`,
	)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
