package store

import (
	"context"
	"time"

	chatmodel "PTalk/module/chat/model"
	usermodel "PTalk/module/user/model"
	"PTalk/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*usermodel.User, error) {
	c, err := s.coll(usermodel.UserTableName)
	if err != nil {
		return nil, err
	}
	var u usermodel.User
	if err := findOne(ctx, c, bson.M{"_id": id}, &u, "user", "id", id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	c, err := s.coll(usermodel.UserTableName)
	if err != nil {
		return nil, err
	}
	var u usermodel.User
	if err := findOne(ctx, c, bson.M{"email": email}, &u, "user", "email", email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUsers(ctx context.Context, ids []string) ([]*usermodel.User, error) {
	if len(ids) == 0 {
		return []*usermodel.User{}, nil
	}
	c, err := s.coll(usermodel.UserTableName)
	if err != nil {
		return nil, err
	}
	found, err := findAll[usermodel.User](ctx, c, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*usermodel.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]*usermodel.User, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MongoStore) SetUserStatus(ctx context.Context, id string, status usermodel.Status) error {
	c, err := s.coll(usermodel.UserTableName)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	if err != nil {
		return persistErr(err, "set user status", "id", id)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	return nil
}

func (s *MongoStore) AddFriend(ctx context.Context, userID, friendID string) error {
	c, err := s.coll(usermodel.UserTableName)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"friends": friendID}})
	if err != nil {
		return persistErr(err, "add friend", "user", userID, "friend", friendID)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("user", "id", userID)
	}
	return nil
}

func (s *MongoStore) FindVerifiedUsers(ctx context.Context) ([]*usermodel.User, error) {
	c, err := s.coll(usermodel.UserTableName)
	if err != nil {
		return nil, err
	}
	return findAll[usermodel.User](ctx, c, bson.M{"verified": true},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *MongoStore) CreateFriendRequest(ctx context.Context, req *chatmodel.FriendRequest) error {
	c, err := s.coll(chatmodel.FriendRequestTableName)
	if err != nil {
		return err
	}
	if req.ID == "" {
		req.ID = NewID()
	}
	if _, err := c.InsertOne(ctx, req); err != nil {
		return persistErr(err, "create friend request", "sender", req.Sender, "recipient", req.Recipient)
	}
	return nil
}

func (s *MongoStore) FindFriendRequestByID(ctx context.Context, id string) (*chatmodel.FriendRequest, error) {
	c, err := s.coll(chatmodel.FriendRequestTableName)
	if err != nil {
		return nil, err
	}
	var r chatmodel.FriendRequest
	if err := findOne(ctx, c, bson.M{"_id": id}, &r, "friend request", "id", id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) FindFriendRequestsByRecipient(ctx context.Context, userID string) ([]*chatmodel.FriendRequest, error) {
	c, err := s.coll(chatmodel.FriendRequestTableName)
	if err != nil {
		return nil, err
	}
	return findAll[chatmodel.FriendRequest](ctx, c, bson.M{"recipient": userID})
}

func (s *MongoStore) FindFriendRequestsByUser(ctx context.Context, userID string) ([]*chatmodel.FriendRequest, error) {
	c, err := s.coll(chatmodel.FriendRequestTableName)
	if err != nil {
		return nil, err
	}
	return findAll[chatmodel.FriendRequest](ctx, c,
		bson.M{"$or": bson.A{bson.M{"sender": userID}, bson.M{"recipient": userID}}})
}

func (s *MongoStore) DeleteFriendRequest(ctx context.Context, id string) error {
	c, err := s.coll(chatmodel.FriendRequestTableName)
	if err != nil {
		return err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistErr(err, "delete friend request", "id", id)
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound.WrapMsg("friend request", "id", id)
	}
	return nil
}
