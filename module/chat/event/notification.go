package event

import (
	"time"

	chatmodel "PTalk/module/chat/model"
	usermodel "PTalk/module/user/model"
)

// Notice is the {message} payload of the friend request events.
type Notice struct {
	Message string `json:"message"`
}

const (
	MsgNewFriendRequest = "New friend request received"
	MsgRequestSent      = "Request Sent successfully!"
	MsgRequestAccepted  = "Friend Request Accepted"
)

// NewMessagePayload is sent for every delivered message. Exactly one of
// ConversationID and GroupID is set, matching ChatType.
type NewMessagePayload struct {
	ChatType       chatmodel.ChatType `json:"chat_type"`
	ConversationID string             `json:"conversation_id,omitempty"`
	GroupID        string             `json:"group_id,omitempty"`
	Message        *chatmodel.Message `json:"message"`
}

// CallInvite is the incoming call notice and also the reply of call setup.
type CallInvite struct {
	From     usermodel.Brief `json:"from"`
	RoomID   string          `json:"roomID"`
	StreamID string          `json:"streamID"`
	UserID   string          `json:"userID"`
	UserName string          `json:"userName"`
}

// CallSignal is the {from, to} payload of every call transition notice.
type CallSignal struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CallLogEntry is one row of a user's call history.
type CallLogEntry struct {
	ID       string             `json:"id"`
	Img      string             `json:"img"`
	Name     string             `json:"name"`
	Online   bool               `json:"online"`
	Incoming bool               `json:"incoming"`
	Missed   bool               `json:"missed"`
	CallType chatmodel.CallKind `json:"callType"`
	Time     time.Time          `json:"time"`
}

// FriendRequestView is a pending request with its sender expanded.
type FriendRequestView struct {
	ID        string          `json:"_id"`
	Sender    usermodel.Brief `json:"sender"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ErrorReply is the ack payload of a failed request.
type ErrorReply struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
