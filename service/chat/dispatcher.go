package chat

import (
	"sort"

	"PTalk/logger"
	"PTalk/tools/errs"

	"go.uber.org/zap"
)

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds every event h serves. A later registration for the same
// event replaces the earlier one.
func (d *Dispatcher) Register(hs ...Handler) {
	for _, h := range hs {
		for _, ev := range h.Events() {
			if _, ok := d.handlers[ev]; ok {
				logger.Warn("[Dispatcher] handler replaced", zap.String("event", ev))
			}
			d.handlers[ev] = h
		}
	}
}

func (d *Dispatcher) GetHandler(ev string) Handler {
	return d.handlers[ev]
}

func (d *Dispatcher) Dispatch(c *Context) error {
	h, ok := d.handlers[c.Event()]
	if !ok {
		return errs.ErrValidation.WrapMsg("unknown event", "event", c.Event())
	}
	return h.Handle(c)
}

// Events lists the registered event names in order.
func (d *Dispatcher) Events() []string {
	out := make([]string, 0, len(d.handlers))
	for ev := range d.handlers {
		out = append(out, ev)
	}
	sort.Strings(out)
	return out
}
