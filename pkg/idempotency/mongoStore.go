package idempotency

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
)

// MongoStore keeps processed order ids in a processed_orders collection.
type MongoStore struct {
	client     *mongo.Client
	database   string
	collection string
	retention  time.Duration
}

func NewMongoStore(client *mongo.Client, database string, retention time.Duration) *MongoStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MongoStore{
		client:     client,
		database:   database,
		collection: "processed_orders",
		retention:  retention,
	}
}

func (m *MongoStore) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	tracer := otel.Tracer("go-orderflow")
	ctx, span := tracer.Start(ctx, "IsProcessed")
	defer span.End()

	coll := m.client.Database(m.database).Collection(m.collection)
	filter := bson.M{
		"_id":          orderID,
		"processed_at": bson.M{"$gte": time.Now().Add(-m.retention)},
	}
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return n > 0, nil
}

func (m *MongoStore) MarkProcessed(ctx context.Context, orderID string) error {
	tracer := otel.Tracer("go-orderflow")
	ctx, span := tracer.Start(ctx, "MarkProcessed")
	defer span.End()

	now := time.Now()
	coll := m.client.Database(m.database).Collection(m.collection)
	_, err := coll.ReplaceOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"_id": orderID, "processed_at": now},
		options.Replace().SetUpsert(true))
	if err != nil {
		span.RecordError(err)
		return err
	}

	// retention sweep piggybacks on every write
	_, err = coll.DeleteMany(ctx, bson.M{
		"processed_at": bson.M{"$lt": now.Add(-m.retention)},
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
