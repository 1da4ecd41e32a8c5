package chat

import (
	"bytes"
	"encoding/json"

	"PTalk/module/chat/event"
	"PTalk/tools/errs"
)

// InFrame is one client frame: {"event", "ack"?, "data"}. A frame carrying
// ack expects exactly one reply frame with the same ack.
type InFrame struct {
	Event string          `json:"event"`
	Ack   *int64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutFrame is a notification, or with Ack set, the reply to a request.
type OutFrame struct {
	Event string `json:"event"`
	Ack   *int64 `json:"ack,omitempty"`
	Data  any    `json:"data"`
}

func ParseFrame(raw []byte) (*InFrame, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errs.ErrValidation.WrapMsg("empty frame")
	}
	f := &InFrame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errs.ErrValidation.WrapCause(err, "malformed frame")
	}
	if f.Event == "" {
		return nil, errs.ErrValidation.WrapMsg("frame without event")
	}
	return f, nil
}

func EncodeEvent(name string, data any) ([]byte, error) {
	b, err := json.Marshal(OutFrame{Event: name, Data: data})
	if err != nil {
		return nil, errs.WrapMsg(err, "encode frame", "event", name)
	}
	return b, nil
}

func EncodeAck(ack int64, data any) ([]byte, error) {
	b, err := json.Marshal(OutFrame{Event: event.Ack, Ack: &ack, Data: data})
	if err != nil {
		return nil, errs.WrapMsg(err, "encode ack", "ack", ack)
	}
	return b, nil
}

// ErrorReply turns a handler error into the reply body of a failed request.
// Details of uncoded errors stay in the log.
func ErrorReply(err error) event.ErrorReply {
	return event.ErrorReply{Error: event.ErrorBody{Code: errs.Code(err), Msg: errs.Msg(err)}}
}
