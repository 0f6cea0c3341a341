// AngelaMos | 2026
// dto.go

package order

import (
	"time"
)

type ItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity"   validate:"required,min=1,max=99"`
	Size      string `json:"size"       validate:"max=20"`
	Color     string `json:"color"      validate:"max=40"`
}

// CreateOrderRequest checks out Items, or the caller's cart when Items is
// empty.
type CreateOrderRequest struct {
	Items           []ItemRequest   `json:"items"            validate:"omitempty,max=50,dive"`
	ShippingAddress ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   string          `json:"payment_method"   validate:"required,oneof=stripe paypal cod"`
}

type UpdateOrderRequest struct {
	Status        *string `json:"status,omitempty"         validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=pending paid failed refunded"`
}

type ListOrdersParams struct {
	Page     int
	PageSize int
	Email    string
	Status   string
}

func (p *ListOrdersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

type LineItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
}

type OrderResponse struct {
	ID                string             `json:"id"`
	OrderNumber       string             `json:"order_number"`
	UserEmail         string             `json:"user_email"`
	Items             []LineItemResponse `json:"items"`
	Subtotal          float64            `json:"subtotal"`
	Shipping          float64            `json:"shipping"`
	Tax               float64            `json:"tax"`
	Total             float64            `json:"total"`
	Status            string             `json:"status"`
	PaymentStatus     string             `json:"payment_status"`
	PaymentMethod     string             `json:"payment_method"`
	ShippingAddress   ShippingAddress    `json:"shipping_address"`
	EstimatedDelivery time.Time          `json:"estimated_delivery"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func ToOrderResponse(o *Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItemResponse(it))
	}

	return OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserEmail:         o.UserEmail,
		Items:             items,
		Subtotal:          o.Subtotal,
		Shipping:          o.Shipping,
		Tax:               o.Tax,
		Total:             o.Total,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		PaymentMethod:     o.PaymentMethod,
		ShippingAddress:   o.ShippingAddress,
		EstimatedDelivery: o.EstimatedDelivery,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out
}

// StatusCount is one row of the admin orders-by-status breakdown.
type StatusCount struct {
	Status string `bson:"_id"   json:"status"`
	Count  int64  `bson:"count" json:"count"`
}
