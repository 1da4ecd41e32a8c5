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

func (s *MongoStore) FindOrCreateDirectConversation(ctx context.Context, a, b string) (*chatmodel.DirectConversation, error) {
	conv, err := s.FindDirectConversation(ctx, a, b)
	if err == nil || !errs.Is(err, errs.ErrNotFound) {
		return conv, err
	}

	c, err := s.coll(chatmodel.DirectConversationTableName)
	if err != nil {
		return nil, err
	}
	key := chatmodel.PairKey(a, b)
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          NewID(),
		"participants": bson.A{a, b},
		"messages":     bson.A{},
	}}
	var out chatmodel.DirectConversation
	err = c.FindOneAndUpdate(ctx, bson.M{"pair_key": key}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// lost the upsert race; the winner's record is there now
		return s.FindDirectConversation(ctx, a, b)
	}
	if err != nil {
		return nil, persistErr(err, "upsert direct conversation", "pair", key)
	}
	return &out, nil
}

func (s *MongoStore) FindDirectConversation(ctx context.Context, a, b string) (*chatmodel.DirectConversation, error) {
	c, err := s.coll(chatmodel.DirectConversationTableName)
	if err != nil {
		return nil, err
	}
	var out chatmodel.DirectConversation
	if err := findOne(ctx, c, pairFilter(a, b), &out, "direct conversation", "pair", chatmodel.PairKey(a, b)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoStore) FindDirectConversationByID(ctx context.Context, id string) (*chatmodel.DirectConversation, error) {
	c, err := s.coll(chatmodel.DirectConversationTableName)
	if err != nil {
		return nil, err
	}
	var out chatmodel.DirectConversation
	if err := findOne(ctx, c, bson.M{"_id": id}, &out, "direct conversation", "id", id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoStore) FindDirectConversations(ctx context.Context, userID string) ([]*chatmodel.DirectConversation, error) {
	c, err := s.coll(chatmodel.DirectConversationTableName)
	if err != nil {
		return nil, err
	}
	return findAll[chatmodel.DirectConversation](ctx, c,
		bson.M{"participants": bson.M{"$size": 2, "$all": bson.A{userID}}})
}

func (s *MongoStore) CreateGroupConversation(ctx context.Context, g *chatmodel.GroupConversation) error {
	c, err := s.coll(chatmodel.GroupConversationTableName)
	if err != nil {
		return err
	}
	if g.ID == "" {
		g.ID = NewID()
	}
	if g.Messages == nil {
		g.Messages = []*chatmodel.Message{}
	}
	if _, err := c.InsertOne(ctx, g); err != nil {
		return persistErr(err, "create group conversation", "name", g.GroupName)
	}
	return nil
}

func (s *MongoStore) FindGroupConversationByID(ctx context.Context, id string) (*chatmodel.GroupConversation, error) {
	c, err := s.coll(chatmodel.GroupConversationTableName)
	if err != nil {
		return nil, err
	}
	var out chatmodel.GroupConversation
	if err := findOne(ctx, c, bson.M{"_id": id}, &out, "group conversation", "id", id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoStore) FindGroupConversations(ctx context.Context, userID string) ([]*chatmodel.GroupConversation, error) {
	c, err := s.coll(chatmodel.GroupConversationTableName)
	if err != nil {
		return nil, err
	}
	return findAll[chatmodel.GroupConversation](ctx, c, bson.M{"participants": userID})
}

func (s *MongoStore) ListMessages(ctx context.Context, kind chatmodel.ChatType, id string) ([]*chatmodel.Message, error) {
	c, err := s.coll(kind.TableName())
	if err != nil {
		return nil, err
	}
	var doc struct {
		Messages []*chatmodel.Message `bson:"messages"`
	}
	err = c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"messages": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "chat_type", kind, "id", id)
	}
	if err != nil {
		return nil, persistErr(err, "list messages", "chat_type", kind, "id", id)
	}
	if doc.Messages == nil {
		doc.Messages = []*chatmodel.Message{}
	}
	return doc.Messages, nil
}

// AppendMessage pushes msg and rewrites the summary in a single update, so a
// reader never observes one without the other.
func (s *MongoStore) AppendMessage(ctx context.Context, kind chatmodel.ChatType, id string, msg *chatmodel.Message) (*chatmodel.Message, error) {
	c, err := s.coll(kind.TableName())
	if err != nil {
		return nil, err
	}
	stored := *msg
	if stored.ID == "" {
		stored.ID = NewID()
	}
	sum := chatmodel.SummaryOf(&stored)
	update := bson.M{
		"$push": bson.M{"messages": stored},
		"$set": bson.M{
			"last_msg":      sum.LastMsg,
			"last_msg_from": sum.LastMsgFrom,
			"last_msg_time": sum.LastMsgTime,
		},
	}
	var doc struct {
		Messages []*chatmodel.Message `bson:"messages"`
	}
	err = c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"messages": bson.M{"$slice": -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "chat_type", kind, "id", id)
	}
	if err != nil {
		return nil, persistErr(err, "append message", "chat_type", kind, "id", id)
	}
	if len(doc.Messages) == 1 {
		return doc.Messages[0], nil
	}
	return &stored, nil
}
