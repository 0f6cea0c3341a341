// AngelaMos | 2026
// dto.go

package product

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

type CreateProductRequest struct {
	Name        string   `json:"name"        validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       float64  `json:"price"       validate:"required,gt=0"`
	SalePrice   *float64 `json:"sale_price"  validate:"omitempty,gt=0"`
	Category    string   `json:"category"    validate:"required,min=1,max=100"`
	Images      []string `json:"images"      validate:"omitempty,dive,url"`
	Sizes       []string `json:"sizes"       validate:"omitempty,dive,min=1,max=20"`
	Colors      []string `json:"colors"      validate:"omitempty,dive,min=1,max=40"`
	Stock       int      `json:"stock"       validate:"gte=0"`
	Featured    bool     `json:"featured"`
}

type UpdateProductRequest struct {
	Name        *string   `json:"name,omitempty"        validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *float64  `json:"price,omitempty"       validate:"omitempty,gt=0"`
	SalePrice   *float64  `json:"sale_price,omitempty"  validate:"omitempty,gte=0"`
	Category    *string   `json:"category,omitempty"    validate:"omitempty,min=1,max=100"`
	Images      *[]string `json:"images,omitempty"      validate:"omitempty,dive,url"`
	Sizes       *[]string `json:"sizes,omitempty"`
	Colors      *[]string `json:"colors,omitempty"`
	Stock       *int      `json:"stock,omitempty"       validate:"omitempty,gte=0"`
	Featured    *bool     `json:"featured,omitempty"`
}

type PresignImageRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp image/gif"`
}

type ListProductsParams struct {
	Page     int
	PageSize int
	Category string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Featured *bool
	Sort     string `validate:"omitempty,oneof=newest price_asc price_desc rating"`
}

func (p *ListProductsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 12
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	if p.Sort == "" {
		p.Sort = SortNewest
	}
}

func (p *ListProductsParams) SortSpec() bson.D {
	switch p.Sort {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case SortRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "review_count", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	SalePrice   *float64  `json:"sale_price,omitempty"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	Sizes       []string  `json:"sizes"`
	Colors      []string  `json:"colors"`
	Stock       int       `json:"stock"`
	InStock     bool      `json:"in_stock"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Category:    p.Category,
		Images:      nonNil(p.Images),
		Sizes:       nonNil(p.Sizes),
		Colors:      nonNil(p.Colors),
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
