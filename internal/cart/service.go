// AngelaMos | 2026
// service.go

package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/product"
)

var (
	ErrInvalidVariant    = errors.New("size or color not offered for this product")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotInCart     = errors.New("item not in cart")
)

type Catalog interface {
	Get(ctx context.Context, id string) (*product.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]*product.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog, now: time.Now}
}

// Get returns the user's cart, or an unsaved empty one.
func (s *Service) Get(ctx context.Context, email string) (*Cart, error) {
	email = strings.ToLower(email)

	c, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return &Cart{ID: uuid.New().String(), UserEmail: email, Items: []Item{}}, nil
		}
		return nil, err
	}

	return c, nil
}

func (s *Service) AddItem(
	ctx context.Context,
	email string,
	req AddItemRequest,
) (*Cart, error) {
	p, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := checkVariant(p, req.Size, req.Color); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	item := Item{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
		AddedAt:   s.now().UTC(),
	}

	if c.Quantity(item.Key())+item.Quantity > p.Stock {
		return nil, ErrInsufficientStock
	}

	c.Add(item)

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// UpdateItem sets the quantity of an existing line; 0 removes it.
func (s *Service) UpdateItem(
	ctx context.Context,
	email string,
	req UpdateItemRequest,
) (*Cart, error) {
	c, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	key := Key{ProductID: req.ProductID, Size: req.Size, Color: req.Color}

	if req.Quantity > 0 {
		p, err := s.catalog.Get(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if req.Quantity > p.Stock {
			return nil, ErrInsufficientStock
		}
	}

	if !c.SetQuantity(key, req.Quantity) {
		return nil, ErrItemNotInCart
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) RemoveItem(
	ctx context.Context,
	email string,
	req RemoveItemRequest,
) (*Cart, error) {
	c, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if !c.Remove(Key{ProductID: req.ProductID, Size: req.Size, Color: req.Color}) {
		return nil, ErrItemNotInCart
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Clear(ctx context.Context, email string) error {
	return s.repo.Clear(ctx, strings.ToLower(email))
}

// View prices the cart against the current catalog. Lines whose product
// has since been deleted are left out.
func (s *Service) View(ctx context.Context, c *Cart) (*CartResponse, error) {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}

	products := map[string]*product.Product{}
	if len(ids) > 0 {
		var err error
		products, err = s.catalog.GetMany(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load cart products: %w", err)
		}
	}

	resp := &CartResponse{Items: make([]ItemResponse, 0, len(c.Items)), UpdatedAt: c.UpdatedAt}

	var subtotal float64
	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}

		line := p.UnitPrice() * float64(it.Quantity)
		subtotal += line

		resp.Items = append(resp.Items, ItemResponse{
			ProductID: it.ProductID,
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			Price:     p.UnitPrice(),
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
			LineTotal: core.Round2(line),
			InStock:   p.Stock >= it.Quantity,
			AddedAt:   it.AddedAt,
		})
		resp.ItemCount += it.Quantity
	}

	resp.Subtotal = core.Round2(subtotal)

	return resp, nil
}

func checkVariant(p *product.Product, size, color string) error {
	if len(p.Sizes) > 0 && !slices.Contains(p.Sizes, size) {
		return ErrInvalidVariant
	}
	if len(p.Colors) > 0 && !slices.Contains(p.Colors, color) {
		return ErrInvalidVariant
	}
	return nil
}
