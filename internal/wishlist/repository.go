// AngelaMos | 2026
// repository.go

package wishlist

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Get(ctx context.Context, email string) (*Wishlist, error)
	Save(ctx context.Context, w *Wishlist) error
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColWishlists)}
}

func (r *repository) Get(ctx context.Context, email string) (*Wishlist, error) {
	var w Wishlist
	if err := r.col.FindOne(ctx, bson.M{"user_email": email}).Decode(&w); err != nil {
		return nil, fmt.Errorf("get wishlist: %w", core.WrapMongoError(err))
	}

	return &w, nil
}

func (r *repository) Save(ctx context.Context, w *Wishlist) error {
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)

	if _, err := r.col.ReplaceOne(ctx, bson.M{"user_email": w.UserEmail}, w, opts); err != nil {
		return fmt.Errorf("save wishlist: %w", core.WrapMongoError(err))
	}

	return nil
}
