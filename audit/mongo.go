package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "audit_log"

// MongoRecorder appends entries to a MongoDB collection.
type MongoRecorder struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoRecorder(col *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{col: col, now: time.Now}
}

func (r *MongoRecorder) Record(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ConnectMongo opens a client, pings it and returns a recorder on the
// audit collection of dbName. The caller disconnects the client.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *MongoRecorder, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, NewMongoRecorder(client.Database(dbName).Collection(collectionName)), nil
}
