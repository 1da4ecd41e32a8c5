// Package storage mirrors node-local presence into redis so that other
// processes (admin tools, a future multi-node router) can ask who is online
// and on which node.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"PTalk/tools/errs"

	"github.com/redis/go-redis/v9"
)

// presence key: ptalk:presence:<user>, value: <node>|<conn>
func presenceKey(user string) string { return "ptalk:presence:" + user }

func presenceValue(node, conn string) string { return node + "|" + conn }

// Delete the key only while it still names this connection, so a replaced
// connection going offline cannot erase its successor.
// KEYS[1] = presence key, ARGV[1] = expected value
// returns 1 when deleted, 0 otherwise
var luaOfflineIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Extend the key while it names this connection, or restore it when it has
// expired. A key owned by another connection is left alone.
// KEYS[1] = presence key, ARGV[1] = expected value, ARGV[2] = ttl in ms
// returns 1 when extended or restored, 0 otherwise
var luaRefreshIfOwner = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if not cur then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
return 0
`)

type RedisPresence struct {
	rdb  redis.UniversalClient
	node string
	ttl  time.Duration
}

func NewRedisPresence(rdb redis.UniversalClient, node string, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisPresence{rdb: rdb, node: node, ttl: ttl}
}

// SetOnline writes the user's presence key with a fresh TTL. Long sessions
// rely on Refresh to keep it from expiring.
func (p *RedisPresence) SetOnline(ctx context.Context, userID, connID string) error {
	if err := p.rdb.Set(ctx, presenceKey(userID), presenceValue(p.node, connID), p.ttl).Err(); err != nil {
		return errs.WrapMsg(err, "presence online", "user_id", userID)
	}
	return nil
}

// SetOffline removes the key if connID on this node still owns it.
func (p *RedisPresence) SetOffline(ctx context.Context, userID, connID string) error {
	err := luaOfflineIfOwner.Run(ctx, p.rdb, []string{presenceKey(userID)}, presenceValue(p.node, connID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errs.WrapMsg(err, "presence offline", "user_id", userID)
	}
	return nil
}

// Refresh extends the TTL of the key written for connID on this node.
func (p *RedisPresence) Refresh(ctx context.Context, userID, connID string) error {
	err := luaRefreshIfOwner.Run(ctx, p.rdb, []string{presenceKey(userID)},
		presenceValue(p.node, connID), p.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errs.WrapMsg(err, "presence refresh", "user_id", userID)
	}
	return nil
}

// TTL returns how long a key lives without a refresh.
func (p *RedisPresence) TTL() time.Duration { return p.ttl }

// Lookup reports whether userID is online anywhere, and on which node.
func (p *RedisPresence) Lookup(ctx context.Context, userID string) (node string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.WrapMsg(err, "presence lookup", "user_id", userID)
	}
	node, _, _ = strings.Cut(val, "|")
	return node, true, nil
}
