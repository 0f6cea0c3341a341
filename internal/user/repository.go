// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) ([]User, int64, error)
	Count(ctx context.Context) (int64, error)
	SetResetToken(
		ctx context.Context,
		id, tokenHash string,
		expiresAt time.Time,
	) error
	ConsumeResetToken(
		ctx context.Context,
		tokenHash, passwordHash string,
		now time.Time,
	) (*User, error)
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{col: db.Collection(core.ColUsers)}
}

func active(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

func (r *repository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", core.WrapMongoError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.col.FindOne(ctx, active(bson.M{"_id": id})).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", core.WrapMongoError(err))
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	var user User
	err := r.col.FindOne(ctx, active(bson.M{"email": email})).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", core.WrapMongoError(err))
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"name":       user.Name,
		"phone":      user.Phone,
		"role":       user.Role,
		"updated_at": user.UpdatedAt,
	}
	update := bson.M{"$set": set}

	if user.Address != nil {
		set["address"] = user.Address
	} else {
		update["$unset"] = bson.M{"address": ""}
	}

	return r.updateOne(ctx, "update user", user.ID, update)
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	update := bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}}

	return r.updateOne(ctx, "update password", id, update)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	update := bson.M{
		"$inc": bson.M{"token_version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	return r.updateOne(ctx, "increment token version", id, update)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"deleted_at": now,
		"updated_at": now,
	}}

	return r.updateOne(ctx, "delete user", id, update)
}

func (r *repository) updateOne(
	ctx context.Context,
	op, id string,
	update bson.M,
) error {
	result, err := r.col.UpdateOne(ctx, active(bson.M{"_id": id}), update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, core.WrapMongoError(err))
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	f Filter,
) ([]User, int64, error) {
	filter := active(bson.M{})

	if f.Search != "" {
		pattern := bson.Regex{
			Pattern: regexp.QuoteMeta(f.Search),
			Options: "i",
		}
		filter["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"name": pattern},
			bson.M{"phone": pattern},
		}
	}

	if f.Role != "" {
		filter["role"] = f.Role
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := core.PageOptions(
		f.Page,
		f.PageSize,
		bson.D{{Key: "created_at", Value: -1}},
	).SetProjection(bson.M{"password_hash": 0, "reset_token": 0})

	users, err := core.FindMany[User](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	total, err := r.col.CountDocuments(ctx, active(bson.M{}))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// SetResetToken overwrites any previously issued token.
func (r *repository) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	update := bson.M{"$set": bson.M{
		"reset_token":        tokenHash,
		"reset_token_expiry": expiresAt.UTC(),
		"updated_at":         time.Now().UTC(),
	}}

	return r.updateOne(ctx, "set reset token", id, update)
}

// ConsumeResetToken matches an unexpired token and, in the same atomic
// operation, sets the new password, clears the token and bumps
// token_version. A token can therefore be consumed at most once.
func (r *repository) ConsumeResetToken(
	ctx context.Context,
	tokenHash, passwordHash string,
	now time.Time,
) (*User, error) {
	filter := active(bson.M{
		"reset_token":        tokenHash,
		"reset_token_expiry": bson.M{"$gt": now.UTC()},
	})

	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    now.UTC(),
		},
		"$unset": bson.M{
			"reset_token":        "",
			"reset_token_expiry": "",
		},
		"$inc": bson.M{"token_version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", core.WrapMongoError(err))
	}

	return &user, nil
}
