// AngelaMos | 2026
// dto.go

package cart

import (
	"time"
)

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity"   validate:"required,min=1,max=99"`
	Size      string `json:"size"       validate:"max=20"`
	Color     string `json:"color"      validate:"max=40"`
}

type UpdateItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity"   validate:"min=0,max=99"`
	Size      string `json:"size"       validate:"max=20"`
	Color     string `json:"color"      validate:"max=40"`
}

type RemoveItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Size      string `json:"size"       validate:"max=20"`
	Color     string `json:"color"      validate:"max=40"`
}

type ItemResponse struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	LineTotal float64   `json:"line_total"`
	InStock   bool      `json:"in_stock"`
	AddedAt   time.Time `json:"added_at"`
}

type CartResponse struct {
	Items     []ItemResponse `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  float64        `json:"subtotal"`
	UpdatedAt time.Time      `json:"updated_at"`
}
