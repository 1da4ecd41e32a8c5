package event

import (
	"strings"

	chatmodel "PTalk/module/chat/model"
	"PTalk/tools/errs"
)

// Command is a decoded inbound payload.
type Command interface {
	Validate() error
}

func required(kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if strings.TrimSpace(kv[i+1]) == "" {
			return errs.ErrValidation.WrapMsg("missing field", "field", kv[i])
		}
	}
	return nil
}

type FriendRequestCmd struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (c *FriendRequestCmd) Validate() error {
	if err := required("from", c.From, "to", c.To); err != nil {
		return err
	}
	if c.From == c.To {
		return errs.ErrValidation.WrapMsg("cannot befriend yourself", "user_id", c.From)
	}
	return nil
}

type AcceptRequestCmd struct {
	RequestID string `json:"request_id"`
}

func (c *AcceptRequestCmd) Validate() error {
	return required("request_id", c.RequestID)
}

// ListConversationsCmd serves both get_direct_conversations and
// get_group_conversations.
type ListConversationsCmd struct {
	UserID string `json:"user_id"`
}

func (c *ListConversationsCmd) Validate() error {
	return required("user_id", c.UserID)
}

type StartConversationCmd struct {
	To   string `json:"to"`
	From string `json:"from"`
}

func (c *StartConversationCmd) Validate() error {
	if err := required("to", c.To, "from", c.From); err != nil {
		return err
	}
	if c.From == c.To {
		return errs.ErrValidation.WrapMsg("a conversation needs two distinct users", "user_id", c.From)
	}
	return nil
}

type StartGroupCmd struct {
	GroupName    string   `json:"group_name"`
	Participants []string `json:"participants"`
}

func (c *StartGroupCmd) Validate() error {
	if err := required("group_name", c.GroupName); err != nil {
		return err
	}
	if len(c.Participants) == 0 {
		return errs.ErrValidation.WrapMsg("missing field", "field", "participants")
	}
	for _, p := range c.Participants {
		if strings.TrimSpace(p) == "" {
			return errs.ErrValidation.WrapMsg("empty participant id")
		}
	}
	return nil
}

type GetMessagesCmd struct {
	ConversationID string `json:"conversation_id"`
	ChatType       string `json:"chat_type"`

	Kind chatmodel.ChatType `json:"-"`
}

func (c *GetMessagesCmd) Validate() error {
	if err := required("conversation_id", c.ConversationID); err != nil {
		return err
	}
	kind, err := chatmodel.ParseChatType(c.ChatType)
	if err != nil {
		return err
	}
	c.Kind = kind
	return nil
}

type TextMessageCmd struct {
	ConversationID string `json:"conversation_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Message        string `json:"message"`
	Type           string `json:"type"`

	Kind chatmodel.MessageType `json:"-"`
}

func (c *TextMessageCmd) Validate() error {
	if err := required("conversation_id", c.ConversationID, "from", c.From, "to", c.To); err != nil {
		return err
	}
	kind, err := chatmodel.ParseMessageType(c.Type)
	if err != nil {
		return err
	}
	c.Kind = kind
	return nil
}

type GroupMessageCmd struct {
	GroupID string `json:"group_id"`
	From    string `json:"from"`
	Message string `json:"message"`
	Type    string `json:"type"`

	Kind chatmodel.MessageType `json:"-"`
}

func (c *GroupMessageCmd) Validate() error {
	if err := required("group_id", c.GroupID, "from", c.From); err != nil {
		return err
	}
	kind, err := chatmodel.ParseMessageType(c.Type)
	if err != nil {
		return err
	}
	c.Kind = kind
	return nil
}

type StartCallCmd struct {
	From   string `json:"from"`
	To     string `json:"to"`
	RoomID string `json:"roomID"`
}

func (c *StartCallCmd) Validate() error {
	return required("from", c.From, "to", c.To)
}

// CallSignalCmd carries not-picked, accepted, denied and busy. From is the
// caller and To the callee, whichever side sends it.
type CallSignalCmd struct {
	To   string `json:"to"`
	From string `json:"from"`
}

func (c *CallSignalCmd) Validate() error {
	return required("to", c.To, "from", c.From)
}

type EndCmd struct {
	UserID string `json:"user_id"`
}

func (c *EndCmd) Validate() error { return nil }
