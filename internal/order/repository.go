// AngelaMos | 2026
// repository.go

package order

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
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status, paymentStatus *string) (*Order, error)
	Cancel(ctx context.Context, id string) (*Order, error)
	SetPaymentIntent(ctx context.Context, id, intentID string) error
	SetPaymentStatusByIntent(ctx context.Context, intentID, status string) (*Order, error)
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	Recent(ctx context.Context, limit int) ([]Order, error)
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColOrders)}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("create order: %w", core.WrapMongoError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, fmt.Errorf("get order: %w", core.WrapMongoError(err))
	}

	return &o, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListOrdersParams,
) ([]Order, int64, error) {
	params.Normalize()

	filter := bson.M{}
	if params.Email != "" {
		filter["user_email"] = params.Email
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := core.PageOptions(
		params.Page,
		params.PageSize,
		bson.D{{Key: "created_at", Value: -1}},
	)

	orders, err := core.FindMany[Order](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status, paymentStatus *string,
) (*Order, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if status != nil {
		set["status"] = *status
	}
	if paymentStatus != nil {
		set["payment_status"] = *paymentStatus
	}

	return r.findOneAndSet(ctx, "update order", bson.M{"_id": id}, set)
}

// Cancel moves an order to cancelled unless it already is. Of two concurrent
// cancels only one matches; the other gets core.ErrNotFound.
func (r *repository) Cancel(ctx context.Context, id string) (*Order, error) {
	return r.findOneAndSet(ctx, "cancel order",
		bson.M{"_id": id, "status": bson.M{"$ne": StatusCancelled}},
		bson.M{"status": StatusCancelled, "updated_at": time.Now().UTC()},
	)
}

func (r *repository) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	_, err := r.findOneAndSet(ctx, "set payment intent", bson.M{"_id": id}, bson.M{
		"payment_intent_id": intentID,
		"updated_at":        time.Now().UTC(),
	})
	return err
}

func (r *repository) SetPaymentStatusByIntent(
	ctx context.Context,
	intentID, status string,
) (*Order, error) {
	return r.findOneAndSet(ctx, "set payment status",
		bson.M{"payment_intent_id": intentID},
		bson.M{"payment_status": status, "updated_at": time.Now().UTC()},
	)
}

func (r *repository) findOneAndSet(
	ctx context.Context,
	op string,
	filter, set bson.M,
) (*Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o Order
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.WrapMongoError(err))
	}

	return &o, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

// Revenue sums the totals of every order that was not cancelled.
func (r *repository) Revenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": StatusCancelled}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total"},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("revenue: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck // read-only cursor

	var row struct {
		Total float64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return 0, fmt.Errorf("decode revenue: %w", err)
		}
	}

	return core.Round2(row.Total), cursor.Err()
}

func (r *repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}

	counts := make([]StatusCount, 0, len(Statuses))
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("decode orders by status: %w", err)
	}

	return counts, nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	orders, err := core.FindMany[Order](ctx, r.col, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}

	return orders, nil
}
