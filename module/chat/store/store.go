// Package store is the persistence contract of the coordination layer and
// its Mongo and in-memory implementations. Lookups that find nothing return
// errs.ErrNotFound; driver failures come back as errs.ErrPersistence.
package store

import (
	"context"

	chatmodel "PTalk/module/chat/model"
	usermodel "PTalk/module/user/model"
)

type Store interface {
	UserStore
	FriendRequestStore
	ConversationStore
	CallLogStore
}

type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*usermodel.User, error)
	FindUserByEmail(ctx context.Context, email string) (*usermodel.User, error)
	// FindUsers returns the users that exist, in the order of ids.
	FindUsers(ctx context.Context, ids []string) ([]*usermodel.User, error)
	SetUserStatus(ctx context.Context, id string, status usermodel.Status) error
	// AddFriend adds friendID to userID's friend set; adding twice is a no-op.
	AddFriend(ctx context.Context, userID, friendID string) error
	// FindVerifiedUsers returns every verified user ordered by id.
	FindVerifiedUsers(ctx context.Context) ([]*usermodel.User, error)
}

type FriendRequestStore interface {
	CreateFriendRequest(ctx context.Context, req *chatmodel.FriendRequest) error
	FindFriendRequestByID(ctx context.Context, id string) (*chatmodel.FriendRequest, error)
	FindFriendRequestsByRecipient(ctx context.Context, userID string) ([]*chatmodel.FriendRequest, error)
	// FindFriendRequestsByUser returns the requests userID sent or received.
	FindFriendRequestsByUser(ctx context.Context, userID string) ([]*chatmodel.FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, id string) error
}

type ConversationStore interface {
	// FindOrCreateDirectConversation returns the single conversation whose
	// participant set is exactly {a, b}, creating it if needed. Concurrent
	// callers for the same pair get the same record.
	FindOrCreateDirectConversation(ctx context.Context, a, b string) (*chatmodel.DirectConversation, error)
	FindDirectConversation(ctx context.Context, a, b string) (*chatmodel.DirectConversation, error)
	FindDirectConversationByID(ctx context.Context, id string) (*chatmodel.DirectConversation, error)
	FindDirectConversations(ctx context.Context, userID string) ([]*chatmodel.DirectConversation, error)

	CreateGroupConversation(ctx context.Context, g *chatmodel.GroupConversation) error
	FindGroupConversationByID(ctx context.Context, id string) (*chatmodel.GroupConversation, error)
	FindGroupConversations(ctx context.Context, userID string) ([]*chatmodel.GroupConversation, error)

	// ListMessages returns the message sequence of a conversation of kind.
	ListMessages(ctx context.Context, kind chatmodel.ChatType, id string) ([]*chatmodel.Message, error)
	// AppendMessage appends msg and sets the summary from it in one atomic
	// step, returning the message as stored.
	AppendMessage(ctx context.Context, kind chatmodel.ChatType, id string, msg *chatmodel.Message) (*chatmodel.Message, error)
}

type CallLogStore interface {
	CreateCallLog(ctx context.Context, l *chatmodel.CallLog) error
	// FindCallLog returns the first log for the unordered pair and kind.
	FindCallLog(ctx context.Context, a, b string, kind chatmodel.CallKind) (*chatmodel.CallLog, error)
	// UpdateCallLog applies upd to the first log for the pair and kind that
	// has no verdict yet and returns it updated. ErrNotFound when none.
	UpdateCallLog(ctx context.Context, a, b string, kind chatmodel.CallKind, upd chatmodel.CallUpdate) (*chatmodel.CallLog, error)
	FindCallLogsByParticipant(ctx context.Context, userID string) ([]*chatmodel.CallLog, error)
}
