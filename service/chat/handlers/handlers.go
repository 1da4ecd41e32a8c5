// Package handlers binds inbound websocket events to the chat services.
package handlers

import (
	"PTalk/module/chat/service"
	"PTalk/service/chat"
	"PTalk/tools/errs"
)

// Services is everything the handlers call into.
type Services struct {
	Friends       *service.FriendService
	Conversations *service.ConversationService
	Messages      *service.MessageService
	Calls         *service.CallService
}

// Register installs the handler of every inbound event on d.
func Register(d *chat.Dispatcher, svc Services) {
	d.Register(
		NewFriendHandler(svc.Friends),
		NewConversationHandler(svc.Conversations),
		NewMessageHandler(svc.Messages),
		NewCallHandler(svc.Calls),
		NewSessionHandler(),
	)
}

// actAs rejects a payload that names someone other than the connection's
// user as one of ids. Anonymous connections are not checked.
func actAs(c *chat.Context, ids ...string) error {
	me := c.UserID()
	if me == "" {
		return nil
	}
	for _, id := range ids {
		if id == me {
			return nil
		}
	}
	return errs.ErrValidation.WrapMsg("payload does not belong to this connection", "user_id", me, "event", c.Event())
}

// respond answers through the ack when the client asked for one and
// otherwise emits name to this connection.
func respond(c *chat.Context, name string, data any) error {
	if c.WantsReply() {
		return c.Reply(data)
	}
	return c.Emit(name, data)
}
