// AngelaMos | 2026
// mongo.go

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/carterperez-dev/storefront/internal/config"
)

const (
	ColUsers     = "users"
	ColSessions  = "sessions"
	ColProducts  = "products"
	ColCarts     = "carts"
	ColWishlists = "wishlists"
	ColOrders    = "orders"
	ColReviews   = "reviews"
	ColLogs      = "logs"
)

// Expired sessions are kept a day for reuse detection, then reaped by mongod.
const sessionRetention = 24 * time.Hour

type Mongo struct {
	Client       *mongo.Client
	DB           *mongo.Database
	transactions bool
}

func NewMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background()) //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{
		Client:       client,
		DB:           client.Database(cfg.Database),
		transactions: cfg.Transactions,
	}, nil
}

func (m *Mongo) Close() error {
	if m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

func (m *Mongo) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.Client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	return nil
}

func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

// MongoStats is the subset of serverStatus the admin dashboard reports.
type MongoStats struct {
	Version          string `json:"version"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	CurrentConns     int32  `json:"current_connections"`
	AvailableConns   int32  `json:"available_connections"`
	TotalCreatedConn int32  `json:"total_created_connections"`
}

func (m *Mongo) Stats(ctx context.Context) (*MongoStats, error) {
	var raw struct {
		Version     string  `bson:"version"`
		Uptime      float64 `bson:"uptime"`
		Connections struct {
			Current      int32 `bson:"current"`
			Available    int32 `bson:"available"`
			TotalCreated int32 `bson:"totalCreated"`
		} `bson:"connections"`
	}

	cmd := bson.D{{Key: "serverStatus", Value: 1}}
	if err := m.Client.Database("admin").RunCommand(ctx, cmd).Decode(&raw); err != nil {
		return nil, fmt.Errorf("server status: %w", err)
	}

	return &MongoStats{
		Version:          raw.Version,
		UptimeSeconds:    int64(raw.Uptime),
		CurrentConns:     raw.Connections.Current,
		AvailableConns:   raw.Connections.Available,
		TotalCreatedConn: raw.Connections.TotalCreated,
	}, nil
}

// TxRunner runs fn atomically when the deployment supports it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTx runs fn inside a multi-document transaction. With transactions
// disabled fn runs directly against the session-less context.
func (m *Mongo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(txCtx)
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	return nil
}

// NoTx runs fn without a transaction. Tests and single-node setups use it.
type NoTx struct{}

func (NoTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type index struct {
	col    string
	keys   bson.D
	unique bool
	ttl    time.Duration
}

// EnsureIndexes creates every index the repositories rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := []index{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true, 0},
		{ColUsers, bson.D{{Key: "reset_token", Value: 1}}, false, 0},

		{ColSessions, bson.D{{Key: "token_hash", Value: 1}}, true, 0},
		{ColSessions, bson.D{{Key: "user_id", Value: 1}}, false, 0},
		{ColSessions, bson.D{{Key: "family_id", Value: 1}}, false, 0},
		{ColSessions, bson.D{{Key: "expires_at", Value: 1}}, false, sessionRetention},

		{ColProducts, bson.D{{Key: "category", Value: 1}}, false, 0},
		{ColProducts, bson.D{{Key: "created_at", Value: -1}}, false, 0},

		{ColCarts, bson.D{{Key: "user_email", Value: 1}}, true, 0},
		{ColWishlists, bson.D{{Key: "user_email", Value: 1}}, true, 0},

		{ColOrders, bson.D{{Key: "order_number", Value: 1}}, true, 0},
		{ColOrders, bson.D{{Key: "user_email", Value: 1}, {Key: "created_at", Value: -1}}, false, 0},
		{ColOrders, bson.D{{Key: "status", Value: 1}}, false, 0},

		{ColReviews, bson.D{{Key: "product_id", Value: 1}, {Key: "user_email", Value: 1}}, true, 0},

		{ColLogs, bson.D{{Key: "created_at", Value: -1}}, false, 0},
		{ColLogs, bson.D{{Key: "type", Value: 1}}, false, 0},
	}

	for _, i := range indexes {
		opts := options.Index()
		if i.unique {
			opts.SetUnique(true)
		}
		if i.ttl > 0 {
			opts.SetExpireAfterSeconds(int32(i.ttl.Seconds()))
		}
		model := mongo.IndexModel{Keys: i.keys, Options: opts}
		if _, err := m.Collection(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}

// WrapMongoError translates driver errors into the package sentinels.
func WrapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

// FindMany decodes every document matched by filter.
func FindMany[T any](
	ctx context.Context,
	col *mongo.Collection,
	filter any,
	opts ...options.Lister[options.FindOptions],
) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, WrapMongoError(err)
	}
	defer cursor.Close(ctx) //nolint:errcheck // read-only cursor

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// PageOptions builds sort/skip/limit options for a 1-based page.
func PageOptions(page, pageSize int, sort bson.D) *options.FindOptionsBuilder {
	//nolint:gosec // G115: page and page size are normalized to small positive values
	return options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
}
