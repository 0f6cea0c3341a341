// AngelaMos | 2026
// entity.go

package cart

import (
	"time"
)

// Cart belongs to exactly one user and is created on first write.
type Cart struct {
	ID        string    `bson:"_id"`
	UserEmail string    `bson:"user_email"`
	Items     []Item    `bson:"items"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type Item struct {
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	Size      string    `bson:"size"`
	Color     string    `bson:"color"`
	AddedAt   time.Time `bson:"added_at"`
}

// Key identifies a cart line. Two adds with the same key merge.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

func (c *Cart) indexOf(k Key) int {
	for i := range c.Items {
		if c.Items[i].Key() == k {
			return i
		}
	}
	return -1
}

// Add merges item into the cart: an existing line with the same key gains
// item.Quantity, otherwise item is appended.
func (c *Cart) Add(item Item) {
	if i := c.indexOf(item.Key()); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		return
	}
	c.Items = append(c.Items, item)
}

// SetQuantity replaces the quantity of the line at k. Zero removes the line.
// It reports whether the line existed.
func (c *Cart) SetQuantity(k Key, quantity int) bool {
	i := c.indexOf(k)
	if i < 0 {
		return false
	}

	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}

	c.Items[i].Quantity = quantity
	return true
}

func (c *Cart) Remove(k Key) bool {
	return c.SetQuantity(k, 0)
}

func (c *Cart) Quantity(k Key) int {
	if i := c.indexOf(k); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
