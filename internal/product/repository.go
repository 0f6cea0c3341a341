// AngelaMos | 2026
// repository.go

package product

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListProductsParams) ([]Product, int64, error)
	Count(ctx context.Context) (int64, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
	SetRating(ctx context.Context, id string, rating float64, count int) error
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColProducts)}
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", core.WrapMongoError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, fmt.Errorf("get product: %w", core.WrapMongoError(err))
	}

	return &p, nil
}

// GetByIDs returns the products that exist, keyed by id. Missing ids are
// simply absent from the map.
func (r *repository) GetByIDs(
	ctx context.Context,
	ids []string,
) (map[string]*Product, error) {
	products, err := core.FindMany[Product](ctx, r.col, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	out := make(map[string]*Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}

	return out, nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"images":      p.Images,
		"sizes":       p.Sizes,
		"colors":      p.Colors,
		"stock":       p.Stock,
		"featured":    p.Featured,
		"updated_at":  p.UpdatedAt,
	}
	update := bson.M{"$set": set}

	if p.SalePrice != nil {
		set["sale_price"] = *p.SalePrice
	} else {
		update["$unset"] = bson.M{"sale_price": ""}
	}

	result, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("update product: %w", core.WrapMongoError(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("delete product: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListProductsParams,
) ([]Product, int64, error) {
	params.Normalize()

	filter := listFilter(params)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := core.PageOptions(params.Page, params.PageSize, params.SortSpec())

	products, err := core.FindMany[Product](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func listFilter(params ListProductsParams) bson.M {
	filter := bson.M{}

	if params.Category != "" {
		filter["category"] = params.Category
	}

	if params.Search != "" {
		filter["name"] = bson.Regex{
			Pattern: regexp.QuoteMeta(params.Search),
			Options: "i",
		}
	}

	price := bson.M{}
	if params.MinPrice != nil {
		price["$gte"] = *params.MinPrice
	}
	if params.MaxPrice != nil {
		price["$lte"] = *params.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if params.Featured != nil {
		filter["featured"] = *params.Featured
	}

	return filter
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// DecrementStock removes quantity units only if that many are available.
func (r *repository) DecrementStock(
	ctx context.Context,
	id string,
	quantity int,
) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("decrement stock %s: %w", id, core.ErrConflict)
	}

	return nil
}

// IncrementStock returns quantity units to sale.
func (r *repository) IncrementStock(
	ctx context.Context,
	id string,
	quantity int,
) error {
	result, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("increment stock %s: %w", id, core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetRating(
	ctx context.Context,
	id string,
	rating float64,
	count int,
) error {
	update := bson.M{"$set": bson.M{
		"rating":       rating,
		"review_count": count,
		"updated_at":   time.Now().UTC(),
	}}

	result, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("set rating: %w", core.ErrNotFound)
	}

	return nil
}
