package chat

import (
	"net/http"
	"time"

	"PTalk/global/config"
	"PTalk/middleware"
	midsec "PTalk/middleware/security"
	"PTalk/service/online"
	"PTalk/tools/safe"

	"github.com/gorilla/websocket"
)

// Server accepts websocket connections and feeds their frames to the
// dispatcher.
type Server struct {
	handlerTimeout time.Duration
	connConf       ConnConf
	auth           *midsec.Options

	presence *online.Presence
	disp     *Dispatcher
	upgrader websocket.Upgrader
}

// NewServer builds the websocket endpoint. origins is checked on every
// upgrade; a nil value falls back to a fixed list from conf.
func NewServer(conf config.ServerConfig, auth *midsec.Options, origins *middleware.Origins, presence *online.Presence, disp *Dispatcher) *Server {
	safe.MustNotNil(presence, "presence")
	safe.MustNotNil(disp, "dispatcher")
	safe.MustNotNil(auth, "auth")

	timeout := conf.HandlerTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if origins == nil {
		origins = middleware.NewOrigins(conf.AllowedOrigins)
	}
	return &Server{
		handlerTimeout: timeout,
		connConf: ConnConf{
			SendQueue:  conf.SendQueue,
			WriteWait:  conf.WriteWait,
			PingPeriod: conf.PingPeriod,
			ReadLimit:  conf.ReadLimit,
		},
		auth:     auth,
		presence: presence,
		disp:     disp,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return origins.Allowed(r.Header.Get("Origin"))
			},
		},
	}
}

func (s *Server) Presence() *online.Presence { return s.presence }
