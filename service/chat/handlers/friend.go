package handlers

import (
	"PTalk/module/chat/event"
	"PTalk/module/chat/service"
	"PTalk/service/chat"
	"PTalk/tools/errs"
)

type FriendHandler struct{ svc *service.FriendService }

func NewFriendHandler(svc *service.FriendService) chat.Handler { return &FriendHandler{svc: svc} }

func (h *FriendHandler) Events() []string {
	return []string{event.FriendRequest, event.AcceptRequest}
}

func (h *FriendHandler) Handle(c *chat.Context) error {
	switch c.Event() {
	case event.FriendRequest:
		cmd, err := chat.Bind[event.FriendRequestCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.From); err != nil {
			return err
		}
		req, err := h.svc.Send(c, cmd.From, cmd.To)
		if err != nil {
			return err
		}
		return c.Reply(req)

	case event.AcceptRequest:
		cmd, err := chat.Bind[event.AcceptRequestCmd](c)
		if err != nil {
			return err
		}
		if err := h.svc.Accept(c, cmd.RequestID, c.UserID()); err != nil {
			return err
		}
		return c.Reply(event.Notice{Message: event.MsgRequestAccepted})
	}
	return errs.ErrValidation.WrapMsg("unexpected event", "event", c.Event())
}
