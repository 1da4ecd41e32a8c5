// Package online tracks which users are connected to this node and keeps
// their persisted presence in step with it.
package online

import (
	"sort"
	"sync"
)

// Handle is one live connection as seen by the rest of the system.
type Handle interface {
	ID() string
	// Emit queues one named event for the peer. It must not block on a slow
	// peer.
	Emit(event string, data any) error
	Close() error
}

// Registry maps a user id to its single live connection. The most recent
// connection wins. It is created once in main and injected where needed.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]Handle)}
}

// Register binds h to userID and returns the handle it replaced, if any.
func (r *Registry) Register(userID string, h Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.byUser[userID]
	r.byUser[userID] = h
	if prev == h {
		return nil
	}
	return prev
}

// Unregister removes the mapping only while it still points at h, so a
// late disconnect of a replaced connection leaves the newer one alone.
func (r *Registry) Unregister(userID string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[userID]
	if !ok || cur != h {
		return false
	}
	delete(r.byUser, userID)
	return true
}

// Remove drops userID whatever handle it holds and returns that handle.
func (r *Registry) Remove(userID string) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.byUser[userID]
	delete(r.byUser, userID)
	return h
}

func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byUser[userID]
	return h, ok
}

func (r *Registry) Online(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Users lists connected user ids, sorted.
func (r *Registry) Users() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
