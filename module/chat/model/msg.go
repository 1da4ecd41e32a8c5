package model

import (
	"time"

	"PTalk/tools/errs"
)

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText     MessageType = "Text"
	MessageMedia    MessageType = "Media"
	MessageDocument MessageType = "Document"
	MessageLink     MessageType = "Link"
)

// ParseMessageType accepts the canonical names case-insensitively; empty
// means Text.
func ParseMessageType(s string) (MessageType, error) {
	switch normalize(s) {
	case "", "text":
		return MessageText, nil
	case "media":
		return MessageMedia, nil
	case "document":
		return MessageDocument, nil
	case "link":
		return MessageLink, nil
	}
	return "", errs.ErrValidation.WrapMsg("unknown message type", "type", s)
}

// Message is immutable once appended. FromName and FromImg are captured at
// send time and never re-resolved.
type Message struct {
	ID        string      `bson:"_id" json:"_id"`
	To        string      `bson:"to,omitempty" json:"to,omitempty"`
	From      string      `bson:"from" json:"from"`
	FromName  string      `bson:"from_name" json:"fromName"`
	FromImg   string      `bson:"from_img,omitempty" json:"fromImg,omitempty"`
	Type      MessageType `bson:"type" json:"type"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	Text      string      `bson:"text,omitempty" json:"text,omitempty"`
	File      string      `bson:"file,omitempty" json:"file,omitempty"`
}

// Summary is the denormalized "last message" block shared by both
// conversation kinds.
type Summary struct {
	LastMsg     string     `bson:"last_msg,omitempty" json:"lastMsg,omitempty"`
	LastMsgFrom string     `bson:"last_msg_from,omitempty" json:"lastMsgFrom,omitempty"`
	LastMsgTime *time.Time `bson:"last_msg_time,omitempty" json:"lastMsgTime,omitempty"`
}

func SummaryOf(m *Message) Summary {
	t := m.CreatedAt
	return Summary{
		LastMsg:     m.Text,
		LastMsgFrom: m.FromName,
		LastMsgTime: &t,
	}
}
