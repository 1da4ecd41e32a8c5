package service

import (
	"sync/atomic"

	"PTalk/logger"
	"PTalk/service/online"

	"go.uber.org/zap"
)

// Lookup finds the live connection of a user.
type Lookup interface {
	Lookup(userID string) (online.Handle, bool)
}

// Notifier pushes events to whoever is connected right now. Delivery is at
// most once: a user without a live connection, or whose send queue is full,
// misses the event and the drop is counted.
type Notifier struct {
	reg     Lookup
	dropped atomic.Int64
}

func NewNotifier(reg Lookup) *Notifier {
	return &Notifier{reg: reg}
}

// Deliver reports whether the event was handed to the user's connection.
func (n *Notifier) Deliver(userID, event string, data any) bool {
	h, ok := n.reg.Lookup(userID)
	if !ok {
		n.dropped.Add(1)
		logger.Debug("[Notifier] peer unreachable, dropped", zap.String("user_id", userID), zap.String("event", event))
		return false
	}
	if err := h.Emit(event, data); err != nil {
		n.dropped.Add(1)
		logger.Debug("[Notifier] emit failed, dropped",
			zap.String("user_id", userID), zap.String("event", event), zap.String("conn", h.ID()), zap.Error(err))
		return false
	}
	return true
}

// Dropped is the number of notifications lost since start.
func (n *Notifier) Dropped() int64 {
	return n.dropped.Load()
}
