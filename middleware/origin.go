package middleware

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"PTalk/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OriginAllowed reports whether origin may talk to the server. An empty
// allow list or a "*" entry admits everything, as does a request without
// an Origin header (non-browser clients).
func OriginAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// Origins is an allow list that can be replaced while the server runs. The
// HTTP chain and the websocket upgrader share one instance.
type Origins struct {
	list atomic.Pointer[[]string]
}

func NewOrigins(allowed []string) *Origins {
	o := &Origins{}
	o.Set(allowed)
	return o
}

func (o *Origins) Set(allowed []string) {
	cp := append([]string(nil), allowed...)
	o.list.Store(&cp)
}

func (o *Origins) Allowed(origin string) bool {
	return OriginAllowed(*o.list.Load(), origin)
}

// Origin rejects browser requests from origins outside allowed and answers
// CORS preflights for the ones inside. It is meant to run inside a Chain.
func Origin(allowed *Origins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !allowed.Allowed(origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-Id")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
		}
	}
}

// AccessLog writes one line per request once the handlers have run.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[HTTP] request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}
