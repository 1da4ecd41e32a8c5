package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"PTalk/module/chat/store"
	usermodel "PTalk/module/user/model"
	"PTalk/service/eventbus"
	"PTalk/service/online"
)

type sent struct {
	event string
	data  any
}

// recorder stands in for a websocket connection and keeps what it was sent.
type recorder struct {
	id string

	mu     sync.Mutex
	frames []sent
	full   bool
}

func (r *recorder) ID() string   { return r.id }
func (r *recorder) Close() error { return nil }

func (r *recorder) Emit(event string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return errors.New("send queue full")
	}
	r.frames = append(r.frames, sent{event: event, data: data})
	return nil
}

func (r *recorder) events(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, f := range r.frames {
		if f.event == name {
			out = append(out, f.data)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// busLog records published events.
type busLog struct {
	mu  sync.Mutex
	evs []eventbus.Event
}

func (b *busLog) Publish(_ context.Context, ev eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evs = append(b.evs, ev)
	return nil
}

func (b *busLog) Close() error { return nil }

func (b *busLog) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.evs))
	for _, ev := range b.evs {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store  *store.MemStore
	reg    *online.Registry
	notify *Notifier
	bus    *busLog
	conns  map[string]*recorder

	friends  *FriendService
	convs    *ConversationService
	messages *MessageService
	calls    *CallService
}

func newFixture(t *testing.T, users ...*usermodel.User) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewMemStore(),
		reg:   online.NewRegistry(),
		bus:   &busLog{},
		conns: make(map[string]*recorder),
	}
	for _, u := range users {
		f.store.PutUser(u)
	}
	f.notify = NewNotifier(f.reg)
	bus := eventbus.NewBus(f.bus, "test")
	f.friends = NewFriendService(f.store, f.notify, bus)
	f.convs = NewConversationService(f.store, "")
	f.messages = NewMessageService(f.store, f.notify, bus)
	f.calls = NewCallService(f.store, f.notify, f.reg, bus)
	return f
}

// connect registers a live connection for userID.
func (f *fixture) connect(userID string) *recorder {
	r := &recorder{id: "conn-" + userID}
	f.reg.Register(userID, r)
	f.conns[userID] = r
	return r
}

func user(id, first, last string) *usermodel.User {
	return &usermodel.User{ID: id, FirstName: first, LastName: last, Avatar: "https://img/" + id}
}
