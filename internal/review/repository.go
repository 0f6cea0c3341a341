// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	Exists(ctx context.Context, productID, email string) (bool, error)
	ListByProduct(ctx context.Context, params ListReviewsParams) ([]Review, int64, error)
	Summarize(ctx context.Context, productID string) (*Summary, error)
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColReviews)}
}

func (r *repository) Create(ctx context.Context, rev *Review) error {
	rev.CreatedAt = time.Now().UTC()

	if _, err := r.col.InsertOne(ctx, rev); err != nil {
		return fmt.Errorf("create review: %w", core.WrapMongoError(err))
	}

	return nil
}

func (r *repository) Exists(
	ctx context.Context,
	productID, email string,
) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{
		"product_id": productID,
		"user_email": email,
	})
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}

	return n > 0, nil
}

func (r *repository) ListByProduct(
	ctx context.Context,
	params ListReviewsParams,
) ([]Review, int64, error) {
	params.Normalize()

	filter := bson.M{"product_id": params.ProductID}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	opts := core.PageOptions(
		params.Page,
		params.PageSize,
		bson.D{{Key: "created_at", Value: -1}},
	)

	reviews, err := core.FindMany[Review](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// Summarize computes the mean rating and review count for productID. A
// product without reviews yields a zero Summary.
func (r *repository) Summarize(ctx context.Context, productID string) (*Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$product_id",
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("summarize reviews: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck // read-only cursor

	var summary Summary
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return nil, fmt.Errorf("decode review summary: %w", err)
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("summarize reviews: %w", err)
	}

	return &summary, nil
}
