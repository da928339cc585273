// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Options configures the MongoDB connection.
type Options struct {
	URI             string
	Database        string
	UseTransactions bool // requires a replica set or sharded cluster
	ConnectTimeout  time.Duration
}

type MongoDB struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Channels *mongo.Collection
	Videos   *mongo.Collection
	Comments *mongo.Collection

	useTransactions bool
	log             *zap.Logger
}

var _ Store = (*MongoDB)(nil)

func NewMongoDB(ctx context.Context, opts Options, log *zap.Logger) (*MongoDB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOpts := options.Client().ApplyURI(opts.URI).SetServerAPIOptions(serverAPI)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(connectCtx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", opts.Database), zap.Bool("transactions", opts.UseTransactions))

	db := client.Database(opts.Database)
	return &MongoDB{
		Client:          client,
		Users:           db.Collection("users"),
		Channels:        db.Collection("channels"),
		Videos:          db.Collection("videos"),
		Comments:        db.Collection("comments"),
		useTransactions: opts.UseTransactions,
		log:             log,
	}, nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes every collection relies on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if err := m.EnsureUserIndexes(ctx); err != nil {
		return err
	}
	if err := m.EnsureChannelIndexes(ctx); err != nil {
		return err
	}
	if err := m.EnsureVideoIndexes(ctx); err != nil {
		return err
	}
	return m.EnsureCommentIndexes(ctx)
}

func parseID(raw string, kind string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID in database: %w", kind, err)
	}
	return id, nil
}

// duplicateKeyOn reports whether err is a duplicate key error raised by the
// index over field.
func duplicateKeyOn(err error, field string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}
	return strings.Contains(err.Error(), field+"_")
}
