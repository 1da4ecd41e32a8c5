package store

import (
	"context"
	"errors"

	chatmodel "PTalk/module/chat/model"
	"PTalk/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) CreateCallLog(ctx context.Context, l *chatmodel.CallLog) error {
	c, err := s.coll(chatmodel.CallLogTableName)
	if err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = NewID()
	}
	if _, err := c.InsertOne(ctx, l); err != nil {
		return persistErr(err, "create call log", "from", l.From, "to", l.To)
	}
	return nil
}

func (s *MongoStore) FindCallLog(ctx context.Context, a, b string, kind chatmodel.CallKind) (*chatmodel.CallLog, error) {
	c, err := s.coll(chatmodel.CallLogTableName)
	if err != nil {
		return nil, err
	}
	filter := pairFilter(a, b)
	filter["call_type"] = kind
	var out chatmodel.CallLog
	if err := findOne(ctx, c, filter, &out, "call log", "pair", chatmodel.PairKey(a, b), "type", kind); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCallLog only touches a log without a verdict, so a second signal
// for the same attempt cannot overwrite the first.
func (s *MongoStore) UpdateCallLog(ctx context.Context, a, b string, kind chatmodel.CallKind, upd chatmodel.CallUpdate) (*chatmodel.CallLog, error) {
	c, err := s.coll(chatmodel.CallLogTableName)
	if err != nil {
		return nil, err
	}
	filter := pairFilter(a, b)
	filter["call_type"] = kind
	filter["verdict"] = bson.M{"$in": bson.A{nil, ""}}

	set := bson.M{"verdict": upd.Verdict}
	if upd.Status != "" {
		set["status"] = upd.Status
	}
	if upd.EndTime != nil {
		set["end_time"] = *upd.EndTime
	}
	var out chatmodel.CallLog
	err = c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WrapMsg("undecided call log", "pair", chatmodel.PairKey(a, b), "type", kind)
	}
	if err != nil {
		return nil, persistErr(err, "update call log", "pair", chatmodel.PairKey(a, b), "type", kind)
	}
	return &out, nil
}

func (s *MongoStore) FindCallLogsByParticipant(ctx context.Context, userID string) ([]*chatmodel.CallLog, error) {
	c, err := s.coll(chatmodel.CallLogTableName)
	if err != nil {
		return nil, err
	}
	return findAll[chatmodel.CallLog](ctx, c, bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}))
}
