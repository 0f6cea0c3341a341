// AngelaMos | 2026
// entity.go

package wishlist

import (
	"time"
)

type Wishlist struct {
	ID        string    `bson:"_id"`
	UserEmail string    `bson:"user_email"`
	Items     []Item    `bson:"items"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Item is keyed by ProductID alone; size and color are remembered from the
// first add.
type Item struct {
	ProductID string    `bson:"product_id"`
	Size      string    `bson:"size"`
	Color     string    `bson:"color"`
	AddedAt   time.Time `bson:"added_at"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Add appends item unless the product is already listed. It reports whether
// the wishlist changed.
func (w *Wishlist) Add(item Item) bool {
	if w.Contains(item.ProductID) {
		return false
	}
	w.Items = append(w.Items, item)
	return true
}

func (w *Wishlist) Remove(productID string) bool {
	for i, it := range w.Items {
		if it.ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}
