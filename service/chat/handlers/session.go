package handlers

import (
	"PTalk/logger"
	"PTalk/module/chat/event"
	"PTalk/service/chat"

	"go.uber.org/zap"
)

// SessionHandler serves "end": the client is leaving, so presence is
// dropped before the socket closes.
type SessionHandler struct{}

func NewSessionHandler() chat.Handler { return &SessionHandler{} }

func (h *SessionHandler) Events() []string { return []string{event.End} }

func (h *SessionHandler) Handle(c *chat.Context) error {
	cmd, err := chat.Bind[event.EndCmd](c)
	if err != nil {
		return err
	}
	uid := c.UserID()
	if uid == "" {
		uid = cmd.UserID
	}
	logger.Info("[Session] end requested", zap.String("user_id", uid), zap.String("conn", c.Conn.ID()))
	c.S.Presence().Disconnect(c, uid, c.Conn)
	return c.Conn.Close()
}
