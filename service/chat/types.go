package chat

import (
	"context"

	"PTalk/module/chat/event"
	"PTalk/tools/decode"
)

// Handler serves one or more inbound events.
type Handler interface {
	Events() []string
	Handle(c *Context) error
}

// Context is what a handler sees of one inbound frame. It embeds the
// per-event context, which is bounded by server.handler_timeout.
type Context struct {
	context.Context

	Frame *InFrame
	Conn  *WsConn
	S     *Server
}

func (c *Context) Event() string { return c.Frame.Event }

// UserID is the identity the connection was opened with, empty when
// anonymous.
func (c *Context) UserID() string { return c.Conn.UserID }

// WantsReply reports whether the client asked for an ack.
func (c *Context) WantsReply() bool { return c.Frame.Ack != nil }

// Reply answers the frame's ack; without an ack it does nothing.
func (c *Context) Reply(data any) error {
	if c.Frame.Ack == nil {
		return nil
	}
	return c.Conn.Reply(*c.Frame.Ack, data)
}

// Emit sends a notification to this connection only.
func (c *Context) Emit(name string, data any) error {
	return c.Conn.Emit(name, data)
}

// Bind decodes the frame's data into a T and validates it.
func Bind[T any, P interface {
	*T
	event.Command
}](c *Context) (*T, error) {
	v, err := decode.DecodeJSON[T](c.Frame.Data)
	if err != nil {
		return nil, err
	}
	if err := P(v).Validate(); err != nil {
		return nil, err
	}
	return v, nil
}
