package service

import (
	"context"
	"time"

	"PTalk/logger"
	"PTalk/module/chat/event"
	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/store"
	"PTalk/service/eventbus"
	"PTalk/tools/errs"

	"go.uber.org/zap"
)

// Signal is a call event sent by one endpoint about the other.
type Signal int

const (
	SignalNotPicked Signal = iota + 1
	SignalAccepted
	SignalDenied
	SignalBusy
)

func (s Signal) String() string {
	switch s {
	case SignalNotPicked:
		return "not_picked"
	case SignalAccepted:
		return "accepted"
	case SignalDenied:
		return "denied"
	case SignalBusy:
		return "busy"
	}
	return "unknown"
}

type transition struct {
	verdict      chatmodel.Verdict
	notifyCallee bool
	event        func(chatmodel.CallKind) string
}

// Not-picked tells the callee it missed a call; every other signal answers
// the caller.
var transitions = map[Signal]transition{
	SignalNotPicked: {verdict: chatmodel.VerdictMissed, notifyCallee: true, event: event.CallMissed},
	SignalAccepted:  {verdict: chatmodel.VerdictAccepted, event: event.CallAccepted},
	SignalDenied:    {verdict: chatmodel.VerdictDenied, event: event.CallDenied},
	SignalBusy:      {verdict: chatmodel.VerdictBusy, event: event.OnAnotherCall},
}

// OnlineChecker answers whether a user currently has a live connection.
type OnlineChecker interface {
	Online(userID string) bool
}

// CallUpdated is the bus payload for call.updated.
type CallUpdated struct {
	Signal string             `json:"signal"`
	Log    *chatmodel.CallLog `json:"log"`
}

// CallService creates call logs and advances them as the two endpoints
// signal each other.
type CallService struct {
	store    store.Store
	notify   *Notifier
	presence OnlineChecker
	bus      *eventbus.Bus
	now      func() time.Time
}

func NewCallService(st store.Store, n *Notifier, presence OnlineChecker, bus *eventbus.Bus) *CallService {
	return &CallService{store: st, notify: n, presence: presence, bus: bus, now: time.Now}
}

// Setup records a new Ongoing call from caller to callee and returns what
// the caller needs to join the media room.
func (s *CallService) Setup(ctx context.Context, kind chatmodel.CallKind, caller, callee string) (*event.CallInvite, error) {
	if caller == "" || callee == "" {
		return nil, errs.ErrValidation.WrapMsg("caller and callee are required")
	}
	if caller == callee {
		return nil, errs.ErrValidation.WrapMsg("cannot call yourself", "user_id", caller)
	}
	from, err := s.store.FindUserByID(ctx, caller)
	if err != nil {
		return nil, err
	}
	to, err := s.store.FindUserByID(ctx, callee)
	if err != nil {
		return nil, err
	}
	l := &chatmodel.CallLog{
		CallType:     kind,
		Participants: []string{caller, callee},
		From:         caller,
		To:           callee,
		StartTime:    s.now().UTC(),
		Status:       chatmodel.CallOngoing,
	}
	if err := s.store.CreateCallLog(ctx, l); err != nil {
		return nil, err
	}
	return &event.CallInvite{
		From:     to.Brief(),
		RoomID:   l.ID,
		StreamID: callee,
		UserID:   caller,
		UserName: from.DisplayName(),
	}, nil
}

// Start relays an incoming call notice to the callee. It touches no state;
// the log was created by Setup.
func (s *CallService) Start(ctx context.Context, kind chatmodel.CallKind, caller, callee, roomID string) error {
	if caller == "" || callee == "" {
		return errs.ErrValidation.WrapMsg("from and to are required")
	}
	from, err := s.store.FindUserByID(ctx, caller)
	if err != nil {
		return err
	}
	s.notify.Deliver(callee, event.CallNotification(kind), event.CallInvite{
		From:     from.Brief(),
		RoomID:   roomID,
		StreamID: caller,
		UserID:   callee,
		UserName: callee,
	})
	return nil
}

// Signal applies one call transition. caller and callee are the initial
// from and to of the call, whichever endpoint reports the signal. The log is
// matched by participant pair and kind, and only a log without a verdict is
// updated; when none matches the notice is still relayed.
func (s *CallService) Signal(ctx context.Context, kind chatmodel.CallKind, sig Signal, caller, callee string) (*chatmodel.CallLog, error) {
	tr, ok := transitions[sig]
	if !ok {
		return nil, errs.ErrValidation.WrapMsg("unknown call signal", "signal", int(sig))
	}
	if caller == "" || callee == "" {
		return nil, errs.ErrValidation.WrapMsg("from and to are required")
	}

	l, err := s.store.UpdateCallLog(ctx, caller, callee, kind, chatmodel.TransitionTo(tr.verdict, s.now().UTC()))
	switch {
	case err == nil:
		s.bus.Emit(ctx, eventbus.TypeCallUpdated, l.ID, CallUpdated{Signal: sig.String(), Log: l})
	case errs.Is(err, errs.ErrNotFound):
		logger.Warn("[Call] no undecided call log, relaying only",
			zap.String("signal", sig.String()), zap.String("call_type", string(kind)),
			zap.String("from", caller), zap.String("to", callee))
	default:
		return nil, err
	}

	target := caller
	if tr.notifyCallee {
		target = callee
	}
	s.notify.Deliver(target, tr.event(kind), event.CallSignal{From: caller, To: callee})
	return l, nil
}

// ListLogs returns userID's call history, newest first.
func (s *CallService) ListLogs(ctx context.Context, userID string) ([]event.CallLogEntry, error) {
	logs, err := s.store.FindCallLogsByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	others := make([]string, 0, len(logs))
	for _, l := range logs {
		others = append(others, peerOf(l, userID))
	}
	users, err := s.store.FindUsers(ctx, uniqueIDs(others))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(users))
	for i, u := range users {
		byID[u.ID] = i
	}

	out := make([]event.CallLogEntry, 0, len(logs))
	for _, l := range logs {
		peer := peerOf(l, userID)
		entry := event.CallLogEntry{
			ID:       l.ID,
			Online:   s.presence != nil && s.presence.Online(peer),
			Incoming: l.From != userID,
			Missed:   l.Verdict != chatmodel.VerdictAccepted,
			CallType: l.CallType,
			Time:     l.StartTime,
		}
		if i, ok := byID[peer]; ok {
			entry.Img = users[i].Avatar
			entry.Name = users[i].DisplayName()
		}
		out = append(out, entry)
	}
	return out, nil
}

func peerOf(l *chatmodel.CallLog, userID string) string {
	if l.From == userID {
		return l.To
	}
	return l.From
}
