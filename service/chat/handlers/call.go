package handlers

import (
	"PTalk/module/chat/event"
	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/service"
	"PTalk/service/chat"
	"PTalk/tools/errs"
)

type callRoute struct {
	kind   chatmodel.CallKind
	signal service.Signal // zero for start
}

var callRoutes = map[string]callRoute{
	event.StartAudioCall:     {kind: chatmodel.CallAudio},
	event.StartVideoCall:     {kind: chatmodel.CallVideo},
	event.AudioCallNotPicked: {chatmodel.CallAudio, service.SignalNotPicked},
	event.VideoCallNotPicked: {chatmodel.CallVideo, service.SignalNotPicked},
	event.AudioCallAccepted:  {chatmodel.CallAudio, service.SignalAccepted},
	event.VideoCallAccepted:  {chatmodel.CallVideo, service.SignalAccepted},
	event.AudioCallDenied:    {chatmodel.CallAudio, service.SignalDenied},
	event.VideoCallDenied:    {chatmodel.CallVideo, service.SignalDenied},
	event.UserBusyAudioCall:  {chatmodel.CallAudio, service.SignalBusy},
	event.UserBusyVideoCall:  {chatmodel.CallVideo, service.SignalBusy},
}

// CallHandler serves the start and signaling events of both call kinds.
type CallHandler struct{ svc *service.CallService }

func NewCallHandler(svc *service.CallService) chat.Handler { return &CallHandler{svc: svc} }

func (h *CallHandler) Events() []string {
	out := make([]string, 0, len(callRoutes))
	for ev := range callRoutes {
		out = append(out, ev)
	}
	return out
}

func (h *CallHandler) Handle(c *chat.Context) error {
	route, ok := callRoutes[c.Event()]
	if !ok {
		return errs.ErrValidation.WrapMsg("unexpected event", "event", c.Event())
	}

	if route.signal == 0 {
		cmd, err := chat.Bind[event.StartCallCmd](c)
		if err != nil {
			return err
		}
		if err := actAs(c, cmd.From); err != nil {
			return err
		}
		if err := h.svc.Start(c, route.kind, cmd.From, cmd.To, cmd.RoomID); err != nil {
			return err
		}
		return c.Reply(event.CallSignal{From: cmd.From, To: cmd.To})
	}

	cmd, err := chat.Bind[event.CallSignalCmd](c)
	if err != nil {
		return err
	}
	// either endpoint may report; from is always the caller
	if err := actAs(c, cmd.From, cmd.To); err != nil {
		return err
	}
	l, err := h.svc.Signal(c, route.kind, route.signal, cmd.From, cmd.To)
	if err != nil {
		return err
	}
	return c.Reply(l)
}
