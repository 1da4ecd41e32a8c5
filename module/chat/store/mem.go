package store

import (
	"context"
	"sort"
	"sync"

	chatmodel "PTalk/module/chat/model"
	usermodel "PTalk/module/user/model"
	"PTalk/tools/errs"
)

// MemStore keeps everything in process memory. Records are copied in and
// out so callers never share state with the store. Slices preserve
// insertion order, which is the "first returned" order of every query.
type MemStore struct {
	mu       sync.RWMutex
	users    map[string]*usermodel.User
	requests []*chatmodel.FriendRequest
	directs  []*chatmodel.DirectConversation
	groups   []*chatmodel.GroupConversation
	calls    []*chatmodel.CallLog
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]*usermodel.User)}
}

// PutUser inserts or replaces a user; registration is not part of Store.
func (s *MemStore) PutUser(u *usermodel.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
}

func (s *MemStore) FindUserByID(_ context.Context, id string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	return copyUser(u), nil
}

func (s *MemStore) FindUserByEmail(_ context.Context, email string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("user", "email", email)
}

func (s *MemStore) FindUsers(_ context.Context, ids []string) ([]*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*usermodel.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (s *MemStore) SetUserStatus(_ context.Context, id string, status usermodel.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	u.Status = status
	return nil
}

func (s *MemStore) AddFriend(_ context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return errs.ErrNotFound.WrapMsg("user", "id", userID)
	}
	if !u.HasFriend(friendID) {
		u.Friends = append(u.Friends, friendID)
	}
	return nil
}

func (s *MemStore) FindVerifiedUsers(_ context.Context) ([]*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*usermodel.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Verified {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) CreateFriendRequest(_ context.Context, req *chatmodel.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = NewID()
	}
	cp := *req
	s.requests = append(s.requests, &cp)
	return nil
}

func (s *MemStore) FindFriendRequestByID(_ context.Context, id string) (*chatmodel.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("friend request", "id", id)
}

func (s *MemStore) FindFriendRequestsByRecipient(_ context.Context, userID string) ([]*chatmodel.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.FriendRequest
	for _, r := range s.requests {
		if r.Recipient == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) FindFriendRequestsByUser(_ context.Context, userID string) ([]*chatmodel.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.FriendRequest
	for _, r := range s.requests {
		if r.Sender == userID || r.Recipient == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) DeleteFriendRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.ID == id {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound.WrapMsg("friend request", "id", id)
}

func (s *MemStore) findDirectLocked(a, b string) *chatmodel.DirectConversation {
	key := chatmodel.PairKey(a, b)
	for _, c := range s.directs {
		if c.PairKey == key {
			return c
		}
	}
	return nil
}

func (s *MemStore) FindOrCreateDirectConversation(_ context.Context, a, b string) (*chatmodel.DirectConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findDirectLocked(a, b); c != nil {
		return copyDirect(c), nil
	}
	c := &chatmodel.DirectConversation{
		ID:           NewID(),
		PairKey:      chatmodel.PairKey(a, b),
		Participants: []string{a, b},
		Messages:     []*chatmodel.Message{},
	}
	s.directs = append(s.directs, c)
	return copyDirect(c), nil
}

func (s *MemStore) FindDirectConversation(_ context.Context, a, b string) (*chatmodel.DirectConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findDirectLocked(a, b); c != nil {
		return copyDirect(c), nil
	}
	return nil, errs.ErrNotFound.WrapMsg("direct conversation", "pair", chatmodel.PairKey(a, b))
}

func (s *MemStore) FindDirectConversationByID(_ context.Context, id string) (*chatmodel.DirectConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.directs {
		if c.ID == id {
			return copyDirect(c), nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("direct conversation", "id", id)
}

func (s *MemStore) FindDirectConversations(_ context.Context, userID string) ([]*chatmodel.DirectConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.DirectConversation
	for _, c := range s.directs {
		if contains(c.Participants, userID) {
			out = append(out, copyDirect(c))
		}
	}
	return out, nil
}

func (s *MemStore) CreateGroupConversation(_ context.Context, g *chatmodel.GroupConversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = NewID()
	}
	if g.Messages == nil {
		g.Messages = []*chatmodel.Message{}
	}
	s.groups = append(s.groups, copyGroup(g))
	return nil
}

func (s *MemStore) FindGroupConversationByID(_ context.Context, id string) (*chatmodel.GroupConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.ID == id {
			return copyGroup(g), nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("group conversation", "id", id)
}

func (s *MemStore) FindGroupConversations(_ context.Context, userID string) ([]*chatmodel.GroupConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.GroupConversation
	for _, g := range s.groups {
		if g.HasParticipant(userID) {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

func (s *MemStore) ListMessages(_ context.Context, kind chatmodel.ChatType, id string) ([]*chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, _, ok := s.conversationLocked(kind, id)
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "chat_type", kind, "id", id)
	}
	return copyMessages(*msgs), nil
}

func (s *MemStore) AppendMessage(_ context.Context, kind chatmodel.ChatType, id string, msg *chatmodel.Message) (*chatmodel.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, summary, ok := s.conversationLocked(kind, id)
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "chat_type", kind, "id", id)
	}
	cp := *msg
	if cp.ID == "" {
		cp.ID = NewID()
	}
	*msgs = append(*msgs, &cp)
	*summary = chatmodel.SummaryOf(&cp)
	out := cp
	return &out, nil
}

// conversationLocked exposes the message slice and summary of one
// conversation so append and list share a single kind switch.
func (s *MemStore) conversationLocked(kind chatmodel.ChatType, id string) (*[]*chatmodel.Message, *chatmodel.Summary, bool) {
	switch kind {
	case chatmodel.ChatTypeIndividual:
		for _, c := range s.directs {
			if c.ID == id {
				return &c.Messages, &c.Summary, true
			}
		}
	case chatmodel.ChatTypeGroup:
		for _, g := range s.groups {
			if g.ID == id {
				return &g.Messages, &g.Summary, true
			}
		}
	}
	return nil, nil, false
}

func (s *MemStore) CreateCallLog(_ context.Context, l *chatmodel.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = NewID()
	}
	s.calls = append(s.calls, copyCall(l))
	return nil
}

func (s *MemStore) FindCallLog(_ context.Context, a, b string, kind chatmodel.CallKind) (*chatmodel.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.calls {
		if l.CallType == kind && samePair(l.Participants, a, b) {
			return copyCall(l), nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("call log", "pair", chatmodel.PairKey(a, b), "type", kind)
}

func (s *MemStore) UpdateCallLog(_ context.Context, a, b string, kind chatmodel.CallKind, upd chatmodel.CallUpdate) (*chatmodel.CallLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.calls {
		if l.CallType == kind && l.Verdict == chatmodel.VerdictUnset && samePair(l.Participants, a, b) {
			upd.Apply(l)
			return copyCall(l), nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("undecided call log", "pair", chatmodel.PairKey(a, b), "type", kind)
}

func (s *MemStore) FindCallLogsByParticipant(_ context.Context, userID string) ([]*chatmodel.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.CallLog
	// newest first, matching the mongo sort on start_time
	for i := len(s.calls) - 1; i >= 0; i-- {
		if contains(s.calls[i].Participants, userID) {
			out = append(out, copyCall(s.calls[i]))
		}
	}
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func samePair(participants []string, a, b string) bool {
	return len(participants) == 2 && chatmodel.PairKey(participants[0], participants[1]) == chatmodel.PairKey(a, b)
}

func copyUser(u *usermodel.User) *usermodel.User {
	cp := *u
	cp.Friends = append([]string(nil), u.Friends...)
	return &cp
}

func copyMessages(in []*chatmodel.Message) []*chatmodel.Message {
	out := make([]*chatmodel.Message, len(in))
	for i, m := range in {
		cp := *m
		out[i] = &cp
	}
	return out
}

func copySummary(s chatmodel.Summary) chatmodel.Summary {
	if s.LastMsgTime != nil {
		t := *s.LastMsgTime
		s.LastMsgTime = &t
	}
	return s
}

func copyDirect(c *chatmodel.DirectConversation) *chatmodel.DirectConversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.Messages = copyMessages(c.Messages)
	cp.Summary = copySummary(c.Summary)
	return &cp
}

func copyGroup(g *chatmodel.GroupConversation) *chatmodel.GroupConversation {
	cp := *g
	cp.Participants = append([]string(nil), g.Participants...)
	cp.Messages = copyMessages(g.Messages)
	cp.Summary = copySummary(g.Summary)
	return &cp
}

func copyCall(l *chatmodel.CallLog) *chatmodel.CallLog {
	cp := *l
	cp.Participants = append([]string(nil), l.Participants...)
	if l.EndTime != nil {
		t := *l.EndTime
		cp.EndTime = &t
	}
	return &cp
}
