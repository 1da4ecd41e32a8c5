package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"PTalk/data/database/mgo/mongoutil"
	"PTalk/logger"
	"PTalk/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	baseBackoff = 200 * time.Millisecond
	maxBackoff  = 5 * time.Second
	healthEvery = 10 * time.Second
	failThresh  = 3
)

// MongoManager keeps the chat database handle alive. It connects with
// backoff, pings periodically and reconnects after failThresh consecutive
// ping failures. The store asks it for the handle on every call.
type MongoManager struct {
	cfg *mongoutil.Config

	mu        sync.RWMutex
	db        *mongo.Database
	readyCh   chan struct{}
	readyOnce sync.Once

	lastErr atomic.Value // error
}

func NewManager(cfg *mongoutil.Config) *MongoManager {
	return &MongoManager{cfg: cfg, readyCh: make(chan struct{})}
}

// StartAsync runs until ctx is done. Ready is closed on the first successful
// connection.
func (m *MongoManager) StartAsync(ctx context.Context) {
	go func() {
		for {
			if !m.connect(ctx) {
				return
			}
			if !m.watch(ctx) {
				return
			}
		}
	}()
}

func (m *MongoManager) connect(ctx context.Context) bool {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		db, err := mongoutil.Dial(ctx, m.cfg)
		if err == nil {
			m.mu.Lock()
			m.db = db
			m.mu.Unlock()
			m.readyOnce.Do(func() { close(m.readyCh) })
			logger.Info("[Mongo] connected", zap.String("database", m.cfg.Database))
			return true
		}

		m.lastErr.Store(err)
		if !mongoutil.Retryable(err) {
			logger.Error("[Mongo] giving up", zap.Error(err))
			return false
		}
		logger.Warn("[Mongo] connect failed", zap.Int("attempt", attempt), zap.Error(err))

		backoff := baseBackoff << attempt
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(rand.Int63n(int64(backoff / 5)))
		timer := time.NewTimer(backoff - jitter/2)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		if attempt < 6 {
			attempt++
		}
	}
}

// watch returns false when ctx is done, true when the client was dropped and
// a reconnect is needed.
func (m *MongoManager) watch(ctx context.Context) bool {
	fail := 0
	t := time.NewTicker(healthEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.drop()
			return false
		case <-t.C:
			db, ok := m.TryGetDB()
			if !ok {
				return true
			}
			if err := db.Client().Ping(ctx, nil); err != nil {
				fail++
				m.lastErr.Store(err)
				logger.Warn("[Mongo] ping failed", zap.Int("fail", fail), zap.Error(err))
				if fail >= failThresh {
					m.drop()
					return true
				}
			} else {
				fail = 0
			}
		}
	}
}

func (m *MongoManager) drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		_ = m.db.Client().Disconnect(context.Background())
		m.db = nil
	}
}

// Err returns the most recent connect or ping error.
func (m *MongoManager) Err() error {
	if v := m.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (m *MongoManager) TryGetDB() (*mongo.Database, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db, m.db != nil
}

// DB is the per-call accessor used by the store; it fails instead of
// blocking while a reconnect is in progress.
func (m *MongoManager) DB() (*mongo.Database, error) {
	if db, ok := m.TryGetDB(); ok {
		return db, nil
	}
	return nil, errs.ErrPersistence.WrapMsg("mongo not connected", "last_error", m.Err())
}

// WaitReady blocks until the first connection succeeds or ctx is done.
func (m *MongoManager) WaitReady(ctx context.Context) (*mongo.Database, error) {
	if db, ok := m.TryGetDB(); ok {
		return db, nil
	}
	select {
	case <-m.readyCh:
		if db, ok := m.TryGetDB(); ok {
			return db, nil
		}
		return nil, errs.ErrPersistence.WrapMsg("mongo dropped right after ready", "last_error", m.Err())
	case <-ctx.Done():
		return nil, errs.ErrPersistence.WrapCause(ctx.Err(), "wait mongo ready", "last_error", m.Err())
	}
}

func (m *MongoManager) Close() {
	m.drop()
}
