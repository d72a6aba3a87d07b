package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/telshop/storefront/internal/domain"
)

// MongoStore keeps the snapshot as one document keyed by session id. The
// cart itself is stored as an opaque JSON payload, same as every other
// backend, so decimal precision survives the round trip.
type MongoStore struct {
	collection *mongo.Collection
	sessionID  string
}

type snapshotDoc struct {
	SessionID string    `bson:"session_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(database), nil
}

func NewMongoStore(db *mongo.Database, sessionID string) *MongoStore {
	return &MongoStore{collection: db.Collection("cart_snapshots"), sessionID: sessionID}
}

func (s *MongoStore) Load(ctx context.Context) (*domain.Cart, error) {
	filter := bson.M{"session_id": s.sessionID}

	var doc snapshotDoc
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.EmptyCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	return decodeSnapshot(doc.Payload), nil
}

func (s *MongoStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := encodeSnapshot(cart)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	filter := bson.M{"session_id": s.sessionID}
	update := bson.M{"$set": snapshotDoc{
		SessionID: s.sessionID,
		Payload:   data,
		UpdatedAt: time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	filter := bson.M{"session_id": s.sessionID}
	if _, err := s.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("clear cart snapshot: %w", err)
	}
	return nil
}
