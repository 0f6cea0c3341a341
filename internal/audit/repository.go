// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, log *Log) error
	List(ctx context.Context, params ListLogsParams) ([]Log, int64, error)
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColLogs)}
}

func (r *repository) Insert(ctx context.Context, log *Log) error {
	if _, err := r.col.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListLogsParams,
) ([]Log, int64, error) {
	params.Normalize()

	filter := bson.M{}
	if params.Type != "" {
		filter["type"] = params.Type
	}
	if params.Email != "" {
		filter["user_email"] = params.Email
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	opts := core.PageOptions(
		params.Page,
		params.PageSize,
		bson.D{{Key: "created_at", Value: -1}},
	)

	logs, err := core.FindMany[Log](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	return logs, total, nil
}
