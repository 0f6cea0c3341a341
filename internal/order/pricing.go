// AngelaMos | 2026
// pricing.go

package order

import (
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/product"
)

const (
	FreeShippingThreshold = 100.0
	FlatShipping          = 9.99
	TaxRate               = 0.08
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Totals struct {
	Subtotal float64
	Shipping float64
	Tax      float64
	Total    float64
}

// ComputeTotals derives shipping and tax from the unrounded subtotal. Each
// component is rounded to cents on its own and the total is the rounded sum
// of the rounded components.
func ComputeTotals(rawSubtotal float64) Totals {
	shipping := FlatShipping
	if rawSubtotal > FreeShippingThreshold {
		shipping = 0
	}

	subtotal := core.Round2(rawSubtotal)
	shipping = core.Round2(shipping)
	tax := core.Round2(rawSubtotal * TaxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    core.Round2(subtotal + shipping + tax),
	}
}

// PriceLines builds denormalized line items from live catalog data and
// returns them with the unrounded subtotal. Every product must exist and
// have enough stock; nothing is written on failure.
func PriceLines(
	requested []ItemRequest,
	products map[string]*product.Product,
) ([]LineItem, float64, error) {
	lines := make([]LineItem, 0, len(requested))
	wanted := make(map[string]int, len(requested))
	var subtotal float64

	for _, it := range requested {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("product %s: %w", it.ProductID, core.ErrNotFound)
		}

		wanted[it.ProductID] += it.Quantity
		if wanted[it.ProductID] > p.Stock {
			return nil, 0, fmt.Errorf("%w for %s", ErrInsufficientStock, p.Name)
		}

		unit := p.UnitPrice()
		subtotal += unit * float64(it.Quantity)

		lines = append(lines, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     unit,
			Image:     p.PrimaryImage(),
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	return lines, subtotal, nil
}
