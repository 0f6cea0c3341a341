// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/storage"
)

const (
	cacheKeyPrefix = "product:"
	cacheTTL       = 5 * time.Minute
)

// Cache is the read-through cache for product detail. *core.Redis
// satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type ImagePresigner interface {
	PresignProductImage(
		ctx context.Context,
		productID, contentType string,
	) (*storage.Upload, error)
}

type Service struct {
	repo      Repository
	cache     Cache
	presigner ImagePresigner
	logger    *slog.Logger
}

// NewService wires the catalog. cache and presigner may be nil.
func NewService(
	repo Repository,
	cache Cache,
	presigner ImagePresigner,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		presigner: presigner,
		logger:    logger,
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if s.cache != nil {
		var cached Product
		hit, err := s.cache.GetJSON(ctx, cacheKey(id), &cached)
		if err != nil {
			s.logger.Warn("product cache read failed", "error", err, "product_id", id)
		}
		if hit {
			return &cached, nil
		}
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey(id), p, cacheTTL); err != nil {
			s.logger.Warn("product cache write failed", "error", err, "product_id", id)
		}
	}

	return p, nil
}

// GetMany reads products straight from the store, bypassing the cache, so
// checkout always prices against live data.
func (s *Service) GetMany(
	ctx context.Context,
	ids []string,
) (map[string]*Product, error) {
	return s.repo.GetByIDs(ctx, ids)
}

func (s *Service) List(
	ctx context.Context,
	params ListProductsParams,
) ([]Product, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Create(
	ctx context.Context,
	req CreateProductRequest,
) (*Product, error) {
	if err := checkSalePrice(req.Price, req.SalePrice); err != nil {
		return nil, err
	}

	p := &Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Category:    req.Category,
		Images:      req.Images,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Update applies the non-nil fields of req. A sale_price of 0 clears the
// sale.
func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateProductRequest,
) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.SalePrice != nil {
		if *req.SalePrice == 0 {
			p.SalePrice = nil
		} else {
			p.SalePrice = req.SalePrice
		}
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.Sizes != nil {
		p.Sizes = *req.Sizes
	}
	if req.Colors != nil {
		p.Colors = *req.Colors
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}

	if err := checkSalePrice(p.Price, p.SalePrice); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.Invalidate(ctx, id)

	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.Invalidate(ctx, id)

	return nil
}

func (s *Service) DecrementStock(ctx context.Context, id string, quantity int) error {
	if err := s.repo.DecrementStock(ctx, id, quantity); err != nil {
		return err
	}

	s.Invalidate(ctx, id)

	return nil
}

func (s *Service) IncrementStock(ctx context.Context, id string, quantity int) error {
	if err := s.repo.IncrementStock(ctx, id, quantity); err != nil {
		return err
	}

	s.Invalidate(ctx, id)

	return nil
}

func (s *Service) SetRating(
	ctx context.Context,
	id string,
	rating float64,
	count int,
) error {
	if err := s.repo.SetRating(ctx, id, rating, count); err != nil {
		return err
	}

	s.Invalidate(ctx, id)

	return nil
}

func (s *Service) PresignImage(
	ctx context.Context,
	id, contentType string,
) (*storage.Upload, error) {
	if s.presigner == nil {
		return nil, fmt.Errorf("presign image: storage not configured")
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	return s.presigner.PresignProductImage(ctx, id, contentType)
}

func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(id))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("product cache invalidation failed", "error", err)
	}
}

func checkSalePrice(price float64, sale *float64) error {
	if sale != nil && *sale >= price {
		return fmt.Errorf(
			"sale_price must be below price: %w",
			core.ErrInvalidInput,
		)
	}
	return nil
}
