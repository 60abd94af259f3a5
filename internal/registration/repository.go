package registration

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"registration/internal/constants"
	pkgerrors "registration/pkg/errors"
)

// RecordStore is the durable key/value store for customer records. Put is an
// idempotent upsert on (pk, sk); re-driving a workflow for the same id
// overwrites instead of duplicating.
type RecordStore interface {
	Put(ctx context.Context, record CustomerRecord) error
}

type MongoRecordStore struct {
	collection *mongo.Collection
}

func NewMongoRecordStore(client *mongo.Client, database string) *MongoRecordStore {
	if database == "" {
		database = constants.DefaultMongoDBName
	}
	return &MongoRecordStore{
		collection: client.Database(database).Collection(constants.RecordCollection),
	}
}

func (s *MongoRecordStore) Put(ctx context.Context, record CustomerRecord) error {
	filter := bson.M{"pk": record.PK, "sk": record.SK}
	opts := options.Replace().SetUpsert(true)

	if _, err := s.collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrPersistence).WithDetail("customer_id", record.ID)
	}

	return nil
}
