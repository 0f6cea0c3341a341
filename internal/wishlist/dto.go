// AngelaMos | 2026
// dto.go

package wishlist

import (
	"time"
)

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Size      string `json:"size"       validate:"max=20"`
	Color     string `json:"color"      validate:"max=40"`
}

type ItemResponse struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	InStock   bool      `json:"in_stock"`
	AddedAt   time.Time `json:"added_at"`
}

type WishlistResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}
