package store

import (
	"context"
	"errors"

	chatmodel "PTalk/module/chat/model"
	usermodel "PTalk/module/user/model"
	"PTalk/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBProvider returns the current database handle. The connection manager
// may swap clients on reconnect, so the store never caches the result.
type DBProvider func() (*mongo.Database, error)

// MongoStore implements Store on MongoDB, one collection per model table.
type MongoStore struct {
	db DBProvider
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db DBProvider) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) coll(name string) (*mongo.Collection, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// EnsureIndexes creates the indexes the store relies on. The unique
// pair_key index is what makes FindOrCreateDirectConversation race free.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	specs := map[string][]mongo.IndexModel{
		chatmodel.DirectConversationTableName: {
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_pair_key")},
			{Keys: bson.D{{Key: "participants", Value: 1}}},
		},
		chatmodel.GroupConversationTableName: {
			{Keys: bson.D{{Key: "participants", Value: 1}}},
		},
		chatmodel.CallLogTableName: {
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "call_type", Value: 1}}},
			{Keys: bson.D{{Key: "start_time", Value: -1}}},
		},
		chatmodel.FriendRequestTableName: {
			{Keys: bson.D{{Key: "recipient", Value: 1}}},
			{Keys: bson.D{{Key: "sender", Value: 1}}},
		},
		usermodel.UserTableName: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "verified", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errs.ErrPersistence.WrapCause(err, "create indexes", "collection", name)
		}
	}
	return nil
}

// pairFilter matches documents whose participants are exactly {a, b}.
func pairFilter(a, b string) bson.M {
	return bson.M{"participants": bson.M{"$size": 2, "$all": bson.A{a, b}}}
}

// findOne decodes the first match into out, mapping ErrNoDocuments to
// ErrNotFound with what as the detail.
func findOne(ctx context.Context, c *mongo.Collection, filter any, out any, what string, kv ...any) error {
	err := c.FindOne(ctx, filter).Decode(out)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.ErrNotFound.WrapMsg(what, kv...)
	default:
		return errs.ErrPersistence.WrapCause(err, "find "+what, kv...)
	}
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, errs.ErrPersistence.WrapCause(err, "find", "collection", c.Name())
	}
	defer cur.Close(ctx)
	out := make([]*T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.ErrPersistence.WrapCause(err, "decode", "collection", c.Name())
	}
	return out, nil
}

func persistErr(err error, op string, kv ...any) error {
	return errs.ErrPersistence.WrapCause(err, op, kv...)
}
