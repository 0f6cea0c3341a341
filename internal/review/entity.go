// AngelaMos | 2026
// entity.go

package review

import (
	"time"
)

// Review is unique per (product_id, user_email).
type Review struct {
	ID        string    `bson:"_id"`
	ProductID string    `bson:"product_id"`
	UserEmail string    `bson:"user_email"`
	UserName  string    `bson:"user_name"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

// Summary is the aggregate written back onto the product.
type Summary struct {
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}
