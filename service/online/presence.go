package online

import (
	"context"
	"time"

	"PTalk/logger"
	usermodel "PTalk/module/user/model"
	"PTalk/service/eventbus"

	"go.uber.org/zap"
)

// StatusWriter persists the presence flag on the user record.
type StatusWriter interface {
	SetUserStatus(ctx context.Context, id string, status usermodel.Status) error
}

// Mirror publishes presence to a shared cache so other processes can see
// who is online. Optional. Entries expire unless refreshed.
type Mirror interface {
	SetOnline(ctx context.Context, userID, connID string) error
	SetOffline(ctx context.Context, userID, connID string) error
	// Refresh extends the entry written for connID. It must not take over
	// an entry owned by another connection.
	Refresh(ctx context.Context, userID, connID string) error
	Lookup(ctx context.Context, userID string) (node string, online bool, err error)
}

const mirrorLookupTimeout = 500 * time.Millisecond

// PresenceChanged is the bus payload for presence.changed.
type PresenceChanged struct {
	UserID string           `json:"user_id"`
	ConnID string           `json:"conn_id"`
	Status usermodel.Status `json:"status"`
}

type Presence struct {
	reg    *Registry
	store  StatusWriter
	mirror Mirror
	bus    *eventbus.Bus
}

type Option func(*Presence)

func WithMirror(m Mirror) Option {
	return func(p *Presence) { p.mirror = m }
}

func WithBus(b *eventbus.Bus) Option {
	return func(p *Presence) { p.bus = b }
}

func NewPresence(reg *Registry, store StatusWriter, opts ...Option) *Presence {
	p := &Presence{reg: reg, store: store}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Connect registers h for userID and marks the user Online. An empty
// userID is an anonymous connection and is not tracked. A connection
// replaced by this one is closed. Store failures are logged and leave the
// registration in place.
func (p *Presence) Connect(ctx context.Context, userID string, h Handle) {
	if userID == "" {
		return
	}
	if prev := p.reg.Register(userID, h); prev != nil {
		logger.Info("[Presence] replacing connection",
			zap.String("user_id", userID), zap.String("old_conn", prev.ID()), zap.String("new_conn", h.ID()))
		_ = prev.Close()
	}
	p.setStatus(ctx, userID, h.ID(), usermodel.StatusOnline)
}

// Disconnect reverses Connect. It only marks the user Offline when h was
// still the registered connection, so a replaced connection going away does
// not flip a user who reconnected.
func (p *Presence) Disconnect(ctx context.Context, userID string, h Handle) {
	if userID == "" {
		return
	}
	if !p.reg.Unregister(userID, h) {
		logger.Debug("[Presence] stale disconnect ignored", zap.String("user_id", userID), zap.String("conn", h.ID()))
		return
	}
	p.setStatus(ctx, userID, h.ID(), usermodel.StatusOffline)
}

// Evict drops whatever connection userID holds and marks the user Offline.
// The dropped handle is returned for the caller to close; its later
// Disconnect is then a no-op.
func (p *Presence) Evict(ctx context.Context, userID string) Handle {
	h := p.reg.Remove(userID)
	if h == nil {
		return nil
	}
	p.setStatus(ctx, userID, h.ID(), usermodel.StatusOffline)
	return h
}

// Online reports whether userID has a live connection here or, when a
// mirror is set, anywhere the mirror knows of.
func (p *Presence) Online(userID string) bool {
	if p.reg.Online(userID) {
		return true
	}
	if p.mirror == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorLookupTimeout)
	defer cancel()
	_, ok, err := p.mirror.Lookup(ctx, userID)
	if err != nil {
		logger.Warn("[Presence] mirror lookup failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return ok
}

// RefreshMirror extends the mirror entry of every connection registered
// here and returns how many were refreshed.
func (p *Presence) RefreshMirror(ctx context.Context) int {
	if p.mirror == nil {
		return 0
	}
	n := 0
	for _, uid := range p.reg.Users() {
		h, ok := p.reg.Lookup(uid)
		if !ok {
			continue
		}
		if err := p.mirror.Refresh(ctx, uid, h.ID()); err != nil {
			logger.Warn("[Presence] mirror refresh failed", zap.String("user_id", uid), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// KeepAlive calls RefreshMirror every interval until ctx is done. Pick an
// interval well below the mirror TTL.
func (p *Presence) KeepAlive(ctx context.Context, every time.Duration) {
	if p.mirror == nil || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := p.RefreshMirror(ctx)
			logger.Debug("[Presence] mirror refreshed", zap.Int("connections", n))
		}
	}
}

func (p *Presence) setStatus(ctx context.Context, userID, connID string, st usermodel.Status) {
	if err := p.store.SetUserStatus(ctx, userID, st); err != nil {
		logger.Warn("[Presence] persist status failed",
			zap.String("user_id", userID), zap.String("status", string(st)), zap.Error(err))
	}
	if p.mirror != nil {
		var err error
		if st == usermodel.StatusOnline {
			err = p.mirror.SetOnline(ctx, userID, connID)
		} else {
			err = p.mirror.SetOffline(ctx, userID, connID)
		}
		if err != nil {
			logger.Warn("[Presence] mirror failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	p.bus.Emit(ctx, eventbus.TypePresenceChanged, userID, PresenceChanged{UserID: userID, ConnID: connID, Status: st})
}
