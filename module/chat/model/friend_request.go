package model

import "time"

const FriendRequestTableName = "friend_requests"

// FriendRequest is a pending one-directional proposal. It is deleted once
// accepted.
type FriendRequest struct {
	ID        string    `bson:"_id" json:"_id"`
	Sender    string    `bson:"sender" json:"sender"`
	Recipient string    `bson:"recipient" json:"recipient"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (r *FriendRequest) GetTableName() string {
	return FriendRequestTableName
}
