// AngelaMos | 2026
// repository.go

package cart

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
	Get(ctx context.Context, email string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, email string) error
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColCarts)}
}

func (r *repository) Get(ctx context.Context, email string) (*Cart, error) {
	var c Cart
	if err := r.col.FindOne(ctx, bson.M{"user_email": email}).Decode(&c); err != nil {
		return nil, fmt.Errorf("get cart: %w", core.WrapMongoError(err))
	}

	return &c, nil
}

// Save upserts the whole cart document keyed by user_email.
func (r *repository) Save(ctx context.Context, c *Cart) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)

	if _, err := r.col.ReplaceOne(ctx, bson.M{"user_email": c.UserEmail}, c, opts); err != nil {
		return fmt.Errorf("save cart: %w", core.WrapMongoError(err))
	}

	return nil
}

// Clear empties the cart but keeps the document.
func (r *repository) Clear(ctx context.Context, email string) error {
	update := bson.M{"$set": bson.M{
		"items":      bson.A{},
		"updated_at": time.Now().UTC(),
	}}

	if _, err := r.col.UpdateOne(ctx, bson.M{"user_email": email}, update); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}
