// AngelaMos | 2026
// repository.go

package auth

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
	Create(ctx context.Context, session *Session) error
	FindByHash(ctx context.Context, tokenHash string) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	GetActiveSessionsForUser(
		ctx context.Context,
		userID string,
	) ([]Session, error)
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColSessions)}
}

func (r *repository) Create(ctx context.Context, session *Session) error {
	session.CreatedAt = time.Now().UTC()

	if _, err := r.col.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", core.WrapMongoError(err))
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*Session, error) {
	return r.findOne(ctx, bson.M{"token_hash": tokenHash})
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *repository) findOne(ctx context.Context, filter bson.M) (*Session, error) {
	var session Session
	if err := r.col.FindOne(ctx, filter).Decode(&session); err != nil {
		return nil, fmt.Errorf("find session: %w", core.WrapMongoError(err))
	}

	return &session, nil
}

func (r *repository) MarkAsUsed(
	ctx context.Context,
	id, replacedByID string,
) error {
	filter := bson.M{"_id": id, "is_used": false}
	update := bson.M{"$set": bson.M{
		"is_used":        true,
		"used_at":        time.Now().UTC(),
		"replaced_by_id": replacedByID,
	}}

	result, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mark session used: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("mark session used: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	result, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": id, "revoked_at": nil},
		revokeNow(),
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeByFamilyID(
	ctx context.Context,
	familyID string,
) error {
	_, err := r.col.UpdateMany(
		ctx,
		bson.M{"family_id": familyID, "revoked_at": nil},
		revokeNow(),
	)
	if err != nil {
		return fmt.Errorf("revoke session family: %w", err)
	}

	return nil
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
) error {
	_, err := r.col.UpdateMany(
		ctx,
		bson.M{"user_id": userID, "revoked_at": nil},
		revokeNow(),
	)
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}

	return nil
}

func (r *repository) GetActiveSessionsForUser(
	ctx context.Context,
	userID string,
) ([]Session, error) {
	filter := bson.M{
		"user_id":    userID,
		"revoked_at": nil,
		"is_used":    false,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	sessions, err := core.FindMany[Session](ctx, r.col, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}

	return sessions, nil
}

func revokeNow() bson.M {
	return bson.M{"$set": bson.M{"revoked_at": time.Now().UTC()}}
}
