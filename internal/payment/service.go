// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/order"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

var (
	ErrNotCardOrder   = errors.New("order is not payable by card")
	ErrAlreadyPaid    = errors.New("order is already paid")
	ErrOrderCancelled = errors.New("order has been cancelled")
	ErrNotConfigured  = errors.New("payments are not configured")
	ErrInvalidWebhook = errors.New("invalid webhook signature")
)

// IntentCreator is satisfied by paymentintent.Client.
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type Orders interface {
	Get(ctx context.Context, id, email string, isAdmin bool) (*order.Order, error)
	SetPaymentIntent(ctx context.Context, id, intentID string) error
	SetPaymentStatusByIntent(ctx context.Context, intentID, status string) (*order.Order, error)
}

type Service struct {
	intents       IntentCreator
	orders        Orders
	currency      string
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeIntents returns a client bound to key, or nil when key is empty.
func NewStripeIntents(key string) IntentCreator {
	if key == "" {
		return nil
	}
	return &paymentintent.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: key,
	}
}

func NewService(
	intents IntentCreator,
	orders Orders,
	cfg config.StripeConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	return &Service{
		intents:       intents,
		orders:        orders,
		currency:      currency,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// CreateIntent opens a card payment for an order the caller can see. The
// idempotency key is derived from the order so a retried request returns
// the same intent.
func (s *Service) CreateIntent(
	ctx context.Context,
	orderID, email string,
	isAdmin bool,
) (*IntentResponse, error) {
	if s.intents == nil {
		return nil, ErrNotConfigured
	}

	o, err := s.orders.Get(ctx, orderID, email, isAdmin)
	if err != nil {
		return nil, err
	}

	switch {
	case o.PaymentMethod != order.MethodStripe:
		return nil, ErrNotCardOrder
	case o.PaymentStatus == order.PaymentPaid:
		return nil, ErrAlreadyPaid
	case o.Status == order.StatusCancelled:
		return nil, ErrOrderCancelled
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(o.AmountCents()),
		Currency:    stripe.String(s.currency),
		Description: stripe.String("Order " + o.OrderNumber),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("order_number", o.OrderNumber)
	params.SetIdempotencyKey("order-" + o.ID)

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	if err := s.orders.SetPaymentIntent(ctx, o.ID, pi.ID); err != nil {
		return nil, fmt.Errorf("store payment intent: %w", err)
	}

	return &IntentResponse{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		Amount:          o.AmountCents(),
		Currency:        s.currency,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header against the payload.
func (s *Service) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	if s.webhookSecret == "" {
		return stripe.Event{}, ErrNotConfigured
	}

	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}

	return event, nil
}

// HandleEvent applies intent outcomes to the matching order. Unknown event
// types and intents we never issued are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	var status string
	switch string(event.Type) {
	case EventIntentSucceeded:
		status = order.PaymentPaid
	case EventIntentFailed:
		status = order.PaymentFailed
	default:
		s.logger.Debug("ignoring stripe event", "type", event.Type, "event_id", event.ID)
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}

	o, err := s.orders.SetPaymentStatusByIntent(ctx, pi.ID, status)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.logger.Warn("payment intent has no order",
				"payment_intent_id", pi.ID,
				"event_id", event.ID,
			)
			return nil
		}
		return fmt.Errorf("update payment status: %w", err)
	}

	s.logger.Info("payment status updated",
		"order_id", o.ID,
		"payment_intent_id", pi.ID,
		"payment_status", status,
	)

	return nil
}
