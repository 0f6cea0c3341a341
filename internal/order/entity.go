// AngelaMos | 2026
// entity.go

package order

import (
	"math"
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

const (
	MethodStripe = "stripe"
	MethodPayPal = "paypal"
	MethodCOD    = "cod"
)

var Statuses = []string{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Order is immutable after checkout except for status, payment_status and
// payment_intent_id. Line items carry the name and price paid at the time.
type Order struct {
	ID                string          `bson:"_id"`
	OrderNumber       string          `bson:"order_number"`
	UserEmail         string          `bson:"user_email"`
	Items             []LineItem      `bson:"items"`
	Subtotal          float64         `bson:"subtotal"`
	Shipping          float64         `bson:"shipping"`
	Tax               float64         `bson:"tax"`
	Total             float64         `bson:"total"`
	Status            string          `bson:"status"`
	PaymentStatus     string          `bson:"payment_status"`
	PaymentMethod     string          `bson:"payment_method"`
	PaymentIntentID   string          `bson:"payment_intent_id,omitempty"`
	ShippingAddress   ShippingAddress `bson:"shipping_address"`
	EstimatedDelivery time.Time       `bson:"estimated_delivery"`
	CreatedAt         time.Time       `bson:"created_at"`
	UpdatedAt         time.Time       `bson:"updated_at"`
}

type LineItem struct {
	ProductID string  `bson:"product_id"`
	Name      string  `bson:"name"`
	Price     float64 `bson:"price"`
	Image     string  `bson:"image"`
	Quantity  int     `bson:"quantity"`
	Size      string  `bson:"size"`
	Color     string  `bson:"color"`
}

type ShippingAddress struct {
	FullName   string `bson:"full_name"   json:"full_name"   validate:"required,max=100"`
	Line1      string `bson:"line1"       json:"line1"       validate:"required,max=200"`
	Line2      string `bson:"line2"       json:"line2"       validate:"max=200"`
	City       string `bson:"city"        json:"city"        validate:"required,max=100"`
	State      string `bson:"state"       json:"state"       validate:"max=100"`
	PostalCode string `bson:"postal_code" json:"postal_code" validate:"required,max=20"`
	Country    string `bson:"country"     json:"country"     validate:"required,max=60"`
	Phone      string `bson:"phone"       json:"phone"       validate:"max=30"`
}

// Cancellable reports whether the customer may still cancel.
func (o *Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

// AmountCents is the total in the processor's minor unit.
func (o *Order) AmountCents() int64 {
	return int64(math.Round(o.Total * 100))
}
