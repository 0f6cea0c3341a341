// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront/internal/audit"
	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/product"
)

const (
	tracerName        = "storefront/order"
	deliveryWindow    = 7 * 24 * time.Hour
	orderNumberTries  = 3
	recentOrdersLimit = 5
)

var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrOwnerStatusChange = errors.New("customers may only cancel orders")
)

type Catalog interface {
	GetMany(ctx context.Context, ids []string) (map[string]*product.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

type Carts interface {
	Get(ctx context.Context, email string) (*cart.Cart, error)
	Clear(ctx context.Context, email string) error
}

type ServiceConfig struct {
	Repo    Repository
	Catalog Catalog
	Carts   Carts
	Tx      core.TxRunner
	Mailer  notify.Sender
	Audit   audit.Recorder
	Metrics *Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

type Service struct {
	repo    Repository
	catalog Catalog
	carts   Carts
	tx      core.TxRunner
	mailer  notify.Sender
	audit   audit.Recorder
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:    cfg.Repo,
		catalog: cfg.Catalog,
		carts:   cfg.Carts,
		tx:      cfg.Tx,
		mailer:  cfg.Mailer,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}

	if s.tx == nil {
		s.tx = core.NoTx{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Checkout prices the requested items (or the caller's cart) against the
// live catalog, writes the order, decrements stock and empties the cart.
func (s *Service) Checkout(
	ctx context.Context,
	email, ipAddress string,
	req CreateOrderRequest,
) (_ *Order, err error) {
	email = strings.ToLower(email)

	ctx, span := core.StartSpan(ctx, tracerName, "order.checkout",
		attribute.String("order.payment_method", req.PaymentMethod),
	)
	defer func() {
		core.SetSpanError(span, err)
		span.End()
	}()

	items, err := s.requestedItems(ctx, email, req.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		s.metrics.observeRejected("empty")
		return nil, ErrEmptyOrder
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	lines, rawSubtotal, err := PriceLines(items, products)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			s.metrics.observeRejected("missing_product")
		case errors.Is(err, ErrInsufficientStock):
			s.metrics.observeRejected("stock")
		}
		return nil, err
	}

	totals := ComputeTotals(rawSubtotal)
	now := s.now().UTC()

	o := &Order{
		ID:                uuid.New().String(),
		UserEmail:         email,
		Items:             lines,
		Subtotal:          totals.Subtotal,
		Shipping:          totals.Shipping,
		Tax:               totals.Tax,
		Total:             totals.Total,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		PaymentMethod:     req.PaymentMethod,
		ShippingAddress:   req.ShippingAddress,
		EstimatedDelivery: now.Add(deliveryWindow),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.place(ctx, o); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.lines", len(o.Items)),
		attribute.Float64("order.total", o.Total),
	)
	s.metrics.observeCreated(o.Total)

	s.audit.RecordBestEffort(ctx, audit.Entry{
		Type:      audit.TypeOrderCreated,
		UserEmail: email,
		Message:   "order " + o.OrderNumber + " placed",
		Metadata: map[string]any{
			"order_id": o.ID,
			"total":    o.Total,
		},
		IPAddress: ipAddress,
	})

	s.sendConfirmation(ctx, o)

	return o, nil
}

func (s *Service) requestedItems(
	ctx context.Context,
	email string,
	items []ItemRequest,
) ([]ItemRequest, error) {
	if len(items) > 0 {
		return items, nil
	}

	c, err := s.carts.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	out := make([]ItemRequest, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, ItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	return out, nil
}

// place reserves stock, writes the order and clears the cart, as one unit
// when transactions are enabled. Without them a failed step hands back the
// stock reserved so far, so a rejected checkout leaves no order behind. A
// duplicate order number retries with a fresh one.
func (s *Service) place(ctx context.Context, o *Order) error {
	var err error
	for range orderNumberTries {
		o.OrderNumber = NewOrderNumber(o.CreatedAt)

		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.reserve(ctx, o.Items); err != nil {
				return err
			}

			if err := s.repo.Create(ctx, o); err != nil {
				s.restock(ctx, o.Items)
				return err
			}

			if err := s.carts.Clear(ctx, o.UserEmail); err != nil {
				s.logger.Error("clear cart after checkout",
					"error", err,
					"order_id", o.ID,
				)
			}
			return nil
		})
		if !errors.Is(err, core.ErrDuplicateKey) {
			return err
		}

		s.logger.Warn("order number collision, retrying", "order_number", o.OrderNumber)
	}

	return fmt.Errorf("allocate order number: %w", err)
}

// reserve decrements stock line by line. A line that runs short hands back
// the lines before it.
func (s *Service) reserve(ctx context.Context, lines []LineItem) error {
	for i, line := range lines {
		err := s.catalog.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err == nil {
			continue
		}

		s.restock(ctx, lines[:i])

		if errors.Is(err, core.ErrConflict) {
			s.metrics.observeRejected("stock")
			return fmt.Errorf("%w for %s", ErrInsufficientStock, line.Name)
		}
		return fmt.Errorf("reserve stock: %w", err)
	}

	return nil
}

func (s *Service) restock(ctx context.Context, lines []LineItem) {
	for _, line := range lines {
		if err := s.catalog.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Error("restock",
				"error", err,
				"product_id", line.ProductID,
				"quantity", line.Quantity,
			)
		}
	}
}

func (s *Service) sendConfirmation(ctx context.Context, o *Order) {
	summary := notify.OrderSummary{
		Number:            o.OrderNumber,
		Lines:             make([]notify.OrderLine, 0, len(o.Items)),
		Subtotal:          o.Subtotal,
		Shipping:          o.Shipping,
		Tax:               o.Tax,
		Total:             o.Total,
		EstimatedDelivery: o.EstimatedDelivery,
	}
	for _, it := range o.Items {
		summary.Lines = append(summary.Lines, notify.OrderLine{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	if err := s.mailer.Send(ctx, notify.OrderConfirmationEmail(o.UserEmail, summary)); err != nil {
		s.logger.Error("send order confirmation",
			"error", err,
			"order_id", o.ID,
		)
	}
}

// Get returns the order if the caller owns it or is an admin.
func (s *Service) Get(
	ctx context.Context,
	id, email string,
	isAdmin bool,
) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.UserEmail != strings.ToLower(email) {
		return nil, fmt.Errorf("get order: %w", core.ErrForbidden)
	}

	return o, nil
}

// List returns the caller's orders. Admins asking for all get every order.
func (s *Service) List(
	ctx context.Context,
	email string,
	isAdmin, all bool,
	params ListOrdersParams,
) ([]Order, int64, error) {
	params.Email = strings.ToLower(email)
	if isAdmin && all {
		params.Email = ""
	}

	return s.repo.List(ctx, params)
}

// Update changes status fields. Admins may set anything; owners may only
// cancel, and only while the order is pending or processing. Cancelling
// returns the order's units to stock.
func (s *Service) Update(
	ctx context.Context,
	id, email, ipAddress string,
	isAdmin bool,
	req UpdateOrderRequest,
) (*Order, error) {
	o, err := s.Get(ctx, id, email, isAdmin)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if req.PaymentStatus != nil || req.Status == nil || *req.Status != StatusCancelled {
			return nil, ErrOwnerStatusChange
		}
		if !o.Cancellable() {
			return nil, ErrNotCancellable
		}
	}

	if req.Status == nil && req.PaymentStatus == nil {
		return o, nil
	}

	var updated *Order
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if req.Status == nil || *req.Status != StatusCancelled || o.Status == StatusCancelled {
			updated, err = s.repo.UpdateStatus(ctx, id, req.Status, req.PaymentStatus)
			return err
		}

		if updated, err = s.cancel(ctx, o); err != nil {
			return err
		}
		if req.PaymentStatus != nil {
			updated, err = s.repo.UpdateStatus(ctx, id, nil, req.PaymentStatus)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.RecordBestEffort(ctx, audit.Entry{
		Type:      audit.TypeOrderStatusChanged,
		UserEmail: strings.ToLower(email),
		Message:   fmt.Sprintf("order %s: %s -> %s", o.OrderNumber, o.Status, updated.Status),
		Metadata: map[string]any{
			"order_id":       o.ID,
			"status":         updated.Status,
			"payment_status": updated.PaymentStatus,
		},
		IPAddress: ipAddress,
	})

	return updated, nil
}

// cancel marks o cancelled and puts its units back on sale. Losing a race to
// another cancel yields ErrNotCancellable and restocks nothing. Products
// deleted since checkout are skipped.
func (s *Service) cancel(ctx context.Context, o *Order) (*Order, error) {
	cancelled, err := s.repo.Cancel(ctx, o.ID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNotCancellable
	}
	if err != nil {
		return nil, err
	}

	for _, line := range o.Items {
		err := s.catalog.IncrementStock(ctx, line.ProductID, line.Quantity)
		switch {
		case errors.Is(err, core.ErrNotFound):
			s.logger.Warn("restock skipped, product gone",
				"order_id", o.ID,
				"product_id", line.ProductID,
			)
		case err != nil:
			return nil, fmt.Errorf("restock %s: %w", line.ProductID, err)
		}
	}

	return cancelled, nil
}

func (s *Service) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	return s.repo.SetPaymentIntent(ctx, id, intentID)
}

func (s *Service) SetPaymentStatusByIntent(
	ctx context.Context,
	intentID, status string,
) (*Order, error) {
	return s.repo.SetPaymentStatusByIntent(ctx, intentID, status)
}

// Dashboard is the order slice of the admin overview.
type Dashboard struct {
	Count    int64         `json:"count"`
	Revenue  float64       `json:"revenue"`
	ByStatus []StatusCount `json:"by_status"`
	Recent   []Order       `json:"-"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.repo.Revenue(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.Recent(ctx, recentOrdersLimit)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Count:    count,
		Revenue:  revenue,
		ByStatus: byStatus,
		Recent:   recent,
	}, nil
}
