// AngelaMos | 2026
// service.go

package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/product"
)

var ErrItemNotInWishlist = errors.New("item not in wishlist")

type Catalog interface {
	Get(ctx context.Context, id string) (*product.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]*product.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

func (s *Service) Get(ctx context.Context, email string) (*Wishlist, error) {
	email = strings.ToLower(email)

	w, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return &Wishlist{ID: uuid.New().String(), UserEmail: email, Items: []Item{}}, nil
		}
		return nil, err
	}

	return w, nil
}

// AddItem is idempotent: adding a product already on the list succeeds
// without writing.
func (s *Service) AddItem(
	ctx context.Context,
	email string,
	req AddItemRequest,
) (*Wishlist, error) {
	if _, err := s.catalog.Get(ctx, req.ProductID); err != nil {
		return nil, err
	}

	w, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	added := w.Add(Item{
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		AddedAt:   time.Now().UTC(),
	})
	if !added {
		return w, nil
	}

	if err := s.repo.Save(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

func (s *Service) RemoveItem(
	ctx context.Context,
	email, productID string,
) (*Wishlist, error) {
	w, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if !w.Remove(productID) {
		return nil, ErrItemNotInWishlist
	}

	if err := s.repo.Save(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

func (s *Service) View(ctx context.Context, w *Wishlist) (*WishlistResponse, error) {
	ids := make([]string, 0, len(w.Items))
	for _, it := range w.Items {
		ids = append(ids, it.ProductID)
	}

	products := map[string]*product.Product{}
	if len(ids) > 0 {
		var err error
		products, err = s.catalog.GetMany(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load wishlist products: %w", err)
		}
	}

	resp := &WishlistResponse{Items: make([]ItemResponse, 0, len(w.Items))}
	for _, it := range w.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		resp.Items = append(resp.Items, ItemResponse{
			ProductID: it.ProductID,
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			Price:     p.UnitPrice(),
			Size:      it.Size,
			Color:     it.Color,
			InStock:   p.Stock > 0,
			AddedAt:   it.AddedAt,
		})
	}
	resp.Count = len(resp.Items)

	return resp, nil
}
