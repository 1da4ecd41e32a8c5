package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
)

type entry struct {
	name string
	h    gin.HandlerFunc
}

// Chain is a named middleware list mounted as one gin handler. Entries can
// be swapped while the server runs. Each request runs the snapshot taken
// when it arrived.
type Chain struct {
	mu      sync.RWMutex
	entries []entry
}

func NewChain() *Chain {
	return &Chain{}
}

// Set installs h under name, replacing an entry of the same name in place.
func (c *Chain) Set(name string, h gin.HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].name == name {
			c.entries[i].h = h
			return
		}
	}
	c.entries = append(c.entries, entry{name: name, h: h})
}

// Handler runs the entries in order and stops at the first abort. Entries
// must not call gin's Next themselves.
func (c *Chain) Handler() gin.HandlerFunc {
	return func(gc *gin.Context) {
		c.mu.RLock()
		snap := make([]gin.HandlerFunc, len(c.entries))
		for i, e := range c.entries {
			snap[i] = e.h
		}
		c.mu.RUnlock()

		for _, h := range snap {
			h(gc)
			if gc.IsAborted() {
				return
			}
		}
	}
}
