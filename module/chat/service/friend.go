package service

import (
	"context"
	"time"

	"PTalk/logger"
	"PTalk/module/chat/event"
	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/store"
	usermodel "PTalk/module/user/model"
	"PTalk/service/eventbus"
	"PTalk/tools/errs"

	"go.uber.org/zap"
)

// FriendService negotiates friend requests between two users.
type FriendService struct {
	store  store.Store
	notify *Notifier
	bus    *eventbus.Bus
	now    func() time.Time
}

func NewFriendService(st store.Store, n *Notifier, bus *eventbus.Bus) *FriendService {
	return &FriendService{store: st, notify: n, bus: bus, now: time.Now}
}

// FriendAccepted is the bus payload for friend.accepted.
type FriendAccepted struct {
	RequestID string `json:"request_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// Send records a request from -> to and tells both sides. Duplicate
// requests are not detected; each call creates a new record.
func (s *FriendService) Send(ctx context.Context, from, to string) (*chatmodel.FriendRequest, error) {
	cmd := event.FriendRequestCmd{From: from, To: to}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	req := &chatmodel.FriendRequest{Sender: from, Recipient: to, CreatedAt: s.now().UTC()}
	if err := s.store.CreateFriendRequest(ctx, req); err != nil {
		return nil, err
	}
	s.notify.Deliver(to, event.NewFriendRequest, event.Notice{Message: event.MsgNewFriendRequest})
	s.notify.Deliver(from, event.RequestSent, event.Notice{Message: event.MsgRequestSent})
	return req, nil
}

// Accept makes sender and recipient friends of each other and consumes the
// request. A non-empty by must be the request's recipient. The steps are
// not atomic: a failure part way leaves the earlier writes in place, and
// retrying is safe because friend sets ignore repeats.
func (s *FriendService) Accept(ctx context.Context, requestID, by string) error {
	if requestID == "" {
		return errs.ErrValidation.WrapMsg("missing field", "field", "request_id")
	}
	req, err := s.store.FindFriendRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if by != "" && by != req.Recipient {
		return errs.ErrValidation.WrapMsg("only the recipient can accept", "request_id", req.ID, "user_id", by)
	}
	sender, err := s.store.FindUserByID(ctx, req.Sender)
	if err != nil {
		return err
	}
	recipient, err := s.store.FindUserByID(ctx, req.Recipient)
	if err != nil {
		return err
	}

	if err := s.store.AddFriend(ctx, recipient.ID, sender.ID); err != nil {
		return err
	}
	if err := s.store.AddFriend(ctx, sender.ID, recipient.ID); err != nil {
		return err
	}
	if err := s.store.DeleteFriendRequest(ctx, req.ID); err != nil {
		return err
	}
	logger.Info("[Friend] request accepted",
		zap.String("request_id", req.ID), zap.String("sender", sender.ID), zap.String("recipient", recipient.ID))

	notice := event.Notice{Message: event.MsgRequestAccepted}
	s.notify.Deliver(sender.ID, event.RequestAccepted, notice)
	s.notify.Deliver(recipient.ID, event.RequestAccepted, notice)
	s.bus.Emit(ctx, eventbus.TypeFriendAccepted, chatmodel.PairKey(sender.ID, recipient.ID),
		FriendAccepted{RequestID: req.ID, Sender: sender.ID, Recipient: recipient.ID})
	return nil
}

// ListRequests returns the pending requests addressed to userID.
func (s *FriendService) ListRequests(ctx context.Context, userID string) ([]event.FriendRequestView, error) {
	reqs, err := s.store.FindFriendRequestsByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	senders := make([]string, 0, len(reqs))
	for _, r := range reqs {
		senders = append(senders, r.Sender)
	}
	all, err := briefs(ctx, s.store, senders)
	if err != nil {
		return nil, err
	}
	out := make([]event.FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		sender, ok := all[r.Sender]
		if !ok {
			sender = usermodel.Brief{ID: r.Sender}
		}
		out = append(out, event.FriendRequestView{ID: r.ID, Sender: sender, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

// ListFriends returns userID's friends as display records.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]usermodel.Brief, error) {
	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := briefs(ctx, s.store, u.Friends)
	if err != nil {
		return nil, err
	}
	return pick(all, u.Friends), nil
}

// Discover lists the verified users userID could send a request to: not
// userID, not already a friend, and with no pending request either way.
func (s *FriendService) Discover(ctx context.Context, userID string) ([]usermodel.Brief, error) {
	me, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.store.FindFriendRequestsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		pending[r.Sender] = struct{}{}
		pending[r.Recipient] = struct{}{}
	}
	users, err := s.store.FindVerifiedUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]usermodel.Brief, 0, len(users))
	for _, u := range users {
		if _, ok := pending[u.ID]; ok || u.ID == me.ID || me.HasFriend(u.ID) {
			continue
		}
		out = append(out, u.Brief())
	}
	return out, nil
}

// ListVerified returns every verified user except userID.
func (s *FriendService) ListVerified(ctx context.Context, userID string) ([]usermodel.Brief, error) {
	users, err := s.store.FindVerifiedUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]usermodel.Brief, 0, len(users))
	for _, u := range users {
		if u.ID != userID {
			out = append(out, u.Brief())
		}
	}
	return out, nil
}
