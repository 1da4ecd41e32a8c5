package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PTalk/service/online"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ online.Mirror = (*RedisPresence)(nil)

// fakeRedis keeps string keys in memory and runs the presence scripts in
// Go. Anything else panics through the nil embedded client.
type fakeRedis struct {
	redis.UniversalClient

	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.vals[key] = value.(string)
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) EvalSha(_ context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	key, want := keys[0], args[0].(string)
	cur, ok := f.vals[key]
	switch sha {
	case luaOfflineIfOwner.Hash():
		if ok && cur == want {
			delete(f.vals, key)
			delete(f.ttls, key)
			return redis.NewCmdResult(int64(1), nil)
		}
	case luaRefreshIfOwner.Hash():
		ttl := time.Duration(args[1].(int64)) * time.Millisecond
		if !ok || cur == want {
			f.vals[key] = want
			f.ttls[key] = ttl
			return redis.NewCmdResult(int64(1), nil)
		}
	default:
		return redis.NewCmdResult(nil, errors.New("unknown script "+sha))
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vals, key)
	delete(f.ttls, key)
}

func TestPresenceKeys(t *testing.T) {
	assert.Equal(t, "ptalk:presence:u1", presenceKey("u1"))
	assert.Equal(t, "node-a|42", presenceValue("node-a", "42"))
}

func TestNewRedisPresenceDefaultsTTL(t *testing.T) {
	p := NewRedisPresence(newFakeRedis(), "n", 0)
	assert.Equal(t, 2*time.Hour, p.TTL())
}

func TestRedisPresenceLifecycle(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	p := NewRedisPresence(rdb, "node-a", time.Minute)

	require.NoError(t, p.SetOnline(ctx, "u1", "c1"))
	assert.Equal(t, time.Minute, rdb.ttls[presenceKey("u1")])

	node, online, err := p.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)
	assert.Equal(t, "node-a", node)

	// a replaced connection cannot clear its successor
	require.NoError(t, p.SetOnline(ctx, "u1", "c2"))
	require.NoError(t, p.SetOffline(ctx, "u1", "c1"))
	_, online, err = p.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, p.SetOffline(ctx, "u1", "c2"))
	_, online, err = p.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestRedisPresenceRefresh(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	p := NewRedisPresence(rdb, "node-a", time.Minute)
	key := presenceKey("u1")

	require.NoError(t, p.SetOnline(ctx, "u1", "c1"))
	rdb.ttls[key] = time.Second
	require.NoError(t, p.Refresh(ctx, "u1", "c1"))
	assert.Equal(t, time.Minute, rdb.ttls[key])

	// the key ran out during a long session and comes back
	rdb.expire(key)
	require.NoError(t, p.Refresh(ctx, "u1", "c1"))
	_, online, err := p.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	// a stale connection does not take the key over
	require.NoError(t, p.SetOnline(ctx, "u1", "c2"))
	require.NoError(t, p.Refresh(ctx, "u1", "c1"))
	assert.Equal(t, presenceValue("node-a", "c2"), rdb.vals[key])
}

func TestRedisPresenceErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	p := NewRedisPresence(rdb, "node-a", time.Minute)

	assert.Error(t, p.SetOnline(ctx, "u1", "c1"))
	assert.Error(t, p.SetOffline(ctx, "u1", "c1"))
	assert.Error(t, p.Refresh(ctx, "u1", "c1"))
	_, online, err := p.Lookup(ctx, "u1")
	assert.Error(t, err)
	assert.False(t, online)
}
