package handlers

import (
	"PTalk/module/chat/event"
	"PTalk/module/chat/service"
	"PTalk/service/chat"
	"PTalk/tools/errs"
)

type ConversationHandler struct{ svc *service.ConversationService }

func NewConversationHandler(svc *service.ConversationService) chat.Handler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) Events() []string {
	return []string{
		event.GetDirectConversations,
		event.GetGroupConversations,
		event.StartConversation,
		event.StartGroup,
		event.GetMessages,
	}
}

func (h *ConversationHandler) Handle(c *chat.Context) error {
	switch c.Event() {
	case event.GetDirectConversations:
		cmd, err := chat.Bind[event.ListConversationsCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.UserID); err != nil {
			return err
		}
		list, err := h.svc.ListDirect(c, cmd.UserID)
		if err != nil {
			return err
		}
		return respond(c, event.GetDirectConversations, list)

	case event.GetGroupConversations:
		cmd, err := chat.Bind[event.ListConversationsCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.UserID); err != nil {
			return err
		}
		list, err := h.svc.ListGroup(c, cmd.UserID)
		if err != nil {
			return err
		}
		return respond(c, event.GetGroupConversations, list)

	case event.StartConversation:
		cmd, err := chat.Bind[event.StartConversationCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.From); err != nil {
			return err
		}
		conv, err := h.svc.ResolveOrCreateDirect(c, cmd.From, cmd.To)
		if err != nil {
			return err
		}
		// only the initiator hears about it
		if err := c.Emit(event.StartChat, conv); err != nil {
			return err
		}
		return c.Reply(conv)

	case event.StartGroup:
		cmd, err := chat.Bind[event.StartGroupCmd](c)
		if err != nil {
			return err
		}
		// the creator has to be one of the members
		if err := actAs(c, cmd.Participants...); err != nil {
			return err
		}
		g, err := h.svc.CreateGroup(c, cmd.GroupName, cmd.Participants)
		if err != nil {
			return err
		}
		if err := c.Emit(event.StartGroupChat, g); err != nil {
			return err
		}
		return c.Reply(g)

	case event.GetMessages:
		cmd, err := chat.Bind[event.GetMessagesCmd](c)
		if err != nil {
			return err
		}
		if uid := c.UserID(); uid != "" {
			if err := h.svc.CheckMember(c, cmd.Kind, cmd.ConversationID, uid); err != nil {
				return err
			}
		}
		msgs, err := h.svc.GetMessages(c, cmd.ConversationID, cmd.Kind)
		if err != nil {
			return err
		}
		return respond(c, event.GetMessages, msgs)
	}
	return errs.ErrValidation.WrapMsg("unexpected event", "event", c.Event())
}
