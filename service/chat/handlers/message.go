package handlers

import (
	"PTalk/module/chat/event"
	"PTalk/module/chat/service"
	"PTalk/service/chat"
	"PTalk/tools/errs"
)

type MessageHandler struct{ svc *service.MessageService }

func NewMessageHandler(svc *service.MessageService) chat.Handler { return &MessageHandler{svc: svc} }

func (h *MessageHandler) Events() []string {
	return []string{event.TextMessage, event.GroupMessage}
}

func (h *MessageHandler) Handle(c *chat.Context) error {
	switch c.Event() {
	case event.TextMessage:
		cmd, err := chat.Bind[event.TextMessageCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.From); err != nil {
			return err
		}
		msg, err := h.svc.SendDirect(c, cmd.ConversationID, cmd.From, cmd.To, cmd.Kind, cmd.Message)
		if err != nil {
			return err
		}
		return c.Reply(msg)

	case event.GroupMessage:
		cmd, err := chat.Bind[event.GroupMessageCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.From); err != nil {
			return err
		}
		msg, err := h.svc.SendGroup(c, cmd.GroupID, cmd.From, cmd.Kind, cmd.Message)
		if err != nil {
			return err
		}
		return c.Reply(msg)
	}
	return errs.ErrValidation.WrapMsg("unexpected event", "event", c.Event())
}
