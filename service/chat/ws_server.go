package chat

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"PTalk/logger"
	midsec "PTalk/middleware/security"
	"PTalk/tools/errs"
	"PTalk/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HandleWS upgrades the request, registers the connection under the caller's
// user id and serves its frames until the peer goes away. Each frame runs in
// its own goroutine, so a slow handler never stalls the read loop.
func (s *Server) HandleWS(c *gin.Context) {
	userID, err := midsec.Resolve(c.Request, s.auth)
	if err != nil {
		logger.Info("[HandleWS] rejected credentials", zap.String("remote", c.ClientIP()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": errs.Msg(err)})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the http error
		logger.Info("[HandleWS] upgrade failed", zap.String("remote", c.ClientIP()), zap.Error(err))
		return
	}

	conn := newWsConn(ws, userID, s.connConf)
	logger.Info("[HandleWS] connected",
		zap.String("conn", conn.SnowID), zap.String("user_id", userID), zap.String("remote", c.ClientIP()))

	s.presence.Connect(c.Request.Context(), userID, conn)
	safe.Go("ws-writer", conn.writePump)

	s.readLoop(conn, ws)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.presence.Disconnect(ctx, userID, conn)
	_ = conn.Close()
	logger.Info("[HandleWS] disconnected", zap.String("conn", conn.SnowID), zap.String("user_id", userID))
}

func (s *Server) readLoop(conn *WsConn, ws *websocket.Conn) {
	pongWait := conn.conf.pongWait()
	ws.SetReadLimit(conn.conf.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				logger.Debug("[WS] peer closed", zap.String("conn", conn.SnowID), zap.Error(err))
			case errors.As(err, &ne) && ne.Timeout():
				logger.Info("[WS] read timeout", zap.String("conn", conn.SnowID), zap.Error(err))
			default:
				logger.Debug("[WS] read ended", zap.String("conn", conn.SnowID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, err := ParseFrame(data)
		if err != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Info("[WS] bad frame", zap.String("conn", conn.SnowID), zap.ByteString("sample", sample), zap.Error(err))
			continue
		}
		safe.Go("ws-event:"+frame.Event, func() { s.serve(conn, frame) })
	}
}

// serve runs one frame through the dispatcher. Failures are logged; a
// request that asked for an ack gets an error reply, anything else stays
// silent.
func (s *Server) serve(conn *WsConn, frame *InFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
	defer cancel()

	c := &Context{Context: ctx, Frame: frame, Conn: conn, S: s}
	err := s.disp.Dispatch(c)
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event", frame.Event), zap.String("conn", conn.SnowID), zap.String("user_id", conn.UserID), zap.Error(err),
	}
	if errs.Code(err) == errs.ValidationError || errs.Code(err) == errs.NotFoundError {
		logger.Info("[WS] event rejected", fields...)
	} else {
		logger.Error("[WS] event failed", fields...)
	}
	if err := c.Reply(ErrorReply(err)); err != nil {
		logger.Debug("[WS] error reply dropped", zap.String("conn", conn.SnowID), zap.Error(err))
	}
}
