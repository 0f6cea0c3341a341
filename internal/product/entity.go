// AngelaMos | 2026
// entity.go

package product

import (
	"time"
)

type Product struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	SalePrice   *float64  `bson:"sale_price,omitempty"`
	Category    string    `bson:"category"`
	Images      []string  `bson:"images"`
	Sizes       []string  `bson:"sizes"`
	Colors      []string  `bson:"colors"`
	Stock       int       `bson:"stock"`
	Rating      float64   `bson:"rating"`
	ReviewCount int       `bson:"review_count"`
	Featured    bool      `bson:"featured"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// UnitPrice is the price a buyer pays for one unit.
func (p *Product) UnitPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
