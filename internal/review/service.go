// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/product"
)

var ErrAlreadyReviewed = errors.New("you have already reviewed this product")

type Catalog interface {
	Get(ctx context.Context, id string) (*product.Product, error)
	SetRating(ctx context.Context, id string, rating float64, count int) error
}

type Reviewers interface {
	GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error)
}

type Service struct {
	repo      Repository
	catalog   Catalog
	reviewers Reviewers
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	catalog Catalog,
	reviewers Reviewers,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		catalog:   catalog,
		reviewers: reviewers,
		logger:    logger,
	}
}

func (s *Service) List(
	ctx context.Context,
	params ListReviewsParams,
) ([]Review, int64, error) {
	return s.repo.ListByProduct(ctx, params)
}

// Create stores one review per user and product and then refreshes the
// product's rating and review_count.
func (s *Service) Create(
	ctx context.Context,
	email string,
	req CreateReviewRequest,
) (*Review, error) {
	if _, err := s.catalog.Get(ctx, req.ProductID); err != nil {
		return nil, err
	}

	email = strings.ToLower(email)

	exists, err := s.repo.Exists(ctx, req.ProductID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	reviewer, err := s.reviewers.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get reviewer: %w", err)
	}

	rev := &Review{
		ID:        uuid.New().String(),
		ProductID: req.ProductID,
		UserEmail: email,
		UserName:  reviewer.Name,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}

	if err := s.repo.Create(ctx, rev); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	if err := s.refreshRating(ctx, req.ProductID); err != nil {
		return nil, err
	}

	return rev, nil
}

func (s *Service) refreshRating(ctx context.Context, productID string) error {
	summary, err := s.repo.Summarize(ctx, productID)
	if err != nil {
		return err
	}

	return s.catalog.SetRating(ctx, productID, Round1(summary.Average), summary.Count)
}

func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
