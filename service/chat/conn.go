package chat

import (
	"net"
	"sync"
	"time"

	"PTalk/logger"
	"PTalk/service/online"
	"PTalk/tools/errs"
	"PTalk/tools/ids"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ConnConf struct {
	SendQueue  int           // outbound frames buffered per connection
	WriteWait  time.Duration // deadline for one write
	PingPeriod time.Duration // server ping interval; the read deadline is 10/9 of it
	ReadLimit  int64
	Clock      func() time.Time
}

func (c *ConnConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 256
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 5 * time.Second
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 30 * time.Second
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 1 << 20
	}
}

func (c *ConnConf) pongWait() time.Duration {
	return c.PingPeriod * 10 / 9
}

var ErrQueueFull = errs.New("send queue full")

// WsConn is one live websocket. Reads happen on the goroutine running
// HandleWS; every write goes through SendChan to the single writePump.
type WsConn struct {
	SnowID    string
	UserID    string
	Remote    net.Addr
	CreatedAt time.Time

	conn     *websocket.Conn
	conf     ConnConf
	SendChan chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

var _ online.Handle = (*WsConn)(nil)

func newWsConn(ws *websocket.Conn, userID string, conf ConnConf) *WsConn {
	conf.norm()
	return &WsConn{
		SnowID:    ids.GenerateString(),
		UserID:    userID,
		Remote:    ws.RemoteAddr(),
		CreatedAt: conf.Clock(),
		conn:      ws,
		conf:      conf,
		SendChan:  make(chan []byte, conf.SendQueue),
		done:      make(chan struct{}),
	}
}

func (c *WsConn) ID() string { return c.SnowID }

// Emit queues a notification frame. It never blocks: a closed connection or
// a full queue is reported as an error and the frame is lost.
func (c *WsConn) Emit(name string, data any) error {
	b, err := EncodeEvent(name, data)
	if err != nil {
		return err
	}
	return c.send(b)
}

// Reply queues the ack frame answering request ack.
func (c *WsConn) Reply(ack int64, data any) error {
	b, err := EncodeAck(ack, data)
	if err != nil {
		return err
	}
	return c.send(b)
}

func (c *WsConn) send(b []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.SendChan <- b:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the writer, which sends a close frame and releases the socket.
// Safe to call more than once and from any goroutine.
func (c *WsConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *WsConn) Done() <-chan struct{} { return c.done }

// writePump is the only writer of the socket. Queued frames go first, pings
// keep the peer's read deadline alive.
func (c *WsConn) writePump() {
	ticker := time.NewTicker(c.conf.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.conf.WriteWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
		logger.Debug("[WS] writer stopped", zap.String("conn", c.SnowID), zap.String("user_id", c.UserID))
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.SendChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.conf.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Info("[WS] write failed", zap.String("conn", c.SnowID), zap.String("user_id", c.UserID), zap.Error(err))
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.conf.WriteWait)); err != nil {
				logger.Info("[WS] ping failed", zap.String("conn", c.SnowID), zap.String("user_id", c.UserID), zap.Error(err))
				_ = c.Close()
				return
			}
		}
	}
}
