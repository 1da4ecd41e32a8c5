package service

import (
	"context"
	"time"

	"PTalk/module/chat/event"
	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/store"
	"PTalk/service/eventbus"
	"PTalk/tools/errs"
)

// MessageService appends messages to conversations and relays them to the
// participants that are online.
type MessageService struct {
	store  store.Store
	notify *Notifier
	bus    *eventbus.Bus
	now    func() time.Time
}

func NewMessageService(st store.Store, n *Notifier, bus *eventbus.Bus) *MessageService {
	return &MessageService{store: st, notify: n, bus: bus, now: time.Now}
}

// build captures the sender's display name and avatar as of now; later
// profile edits do not touch sent messages.
func (s *MessageService) build(ctx context.Context, from, to string, kind chatmodel.MessageType, text string) (*chatmodel.Message, error) {
	if from == "" {
		return nil, errs.ErrValidation.WrapMsg("missing field", "field", "from")
	}
	kind, err := chatmodel.ParseMessageType(string(kind))
	if err != nil {
		return nil, err
	}
	sender, err := s.store.FindUserByID(ctx, from)
	if err != nil {
		return nil, err
	}
	// mongo keeps milliseconds, so the echoed message matches what is stored
	at := s.now().UTC().Truncate(time.Millisecond)
	return &chatmodel.Message{
		To:        to,
		From:      from,
		FromName:  sender.DisplayName(),
		FromImg:   sender.Avatar,
		Type:      kind,
		CreatedAt: at,
		Text:      text,
	}, nil
}

// SendDirect appends to a direct conversation and delivers the stored
// message to both to and from.
func (s *MessageService) SendDirect(ctx context.Context, conversationID, from, to string, kind chatmodel.MessageType, text string) (*chatmodel.Message, error) {
	if conversationID == "" || to == "" {
		return nil, errs.ErrValidation.WrapMsg("conversation_id and to are required")
	}
	msg, err := s.build(ctx, from, to, kind, text)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.AppendMessage(ctx, chatmodel.ChatTypeIndividual, conversationID, msg)
	if err != nil {
		return nil, err
	}

	payload := event.NewMessagePayload{
		ChatType:       chatmodel.ChatTypeIndividual,
		ConversationID: conversationID,
		Message:        stored,
	}
	s.notify.Deliver(to, event.NewMessage, payload)
	s.notify.Deliver(from, event.NewMessage, payload)
	s.bus.Emit(ctx, eventbus.TypeMessageCreated, conversationID, payload)
	return stored, nil
}

// SendGroup appends to a group and delivers the stored message to every
// other participant plus one copy back to the sender.
func (s *MessageService) SendGroup(ctx context.Context, groupID, from string, kind chatmodel.MessageType, text string) (*chatmodel.Message, error) {
	if groupID == "" {
		return nil, errs.ErrValidation.WrapMsg("missing field", "field", "group_id")
	}
	group, err := s.store.FindGroupConversationByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	msg, err := s.build(ctx, from, "", kind, text)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.AppendMessage(ctx, chatmodel.ChatTypeGroup, groupID, msg)
	if err != nil {
		return nil, err
	}

	payload := event.NewMessagePayload{
		ChatType: chatmodel.ChatTypeGroup,
		GroupID:  groupID,
		Message:  stored,
	}
	s.notify.Deliver(from, event.NewMessage, payload)
	for _, p := range uniqueIDs(group.Participants) {
		if p == from {
			continue
		}
		s.notify.Deliver(p, event.NewMessage, payload)
	}
	s.bus.Emit(ctx, eventbus.TypeMessageCreated, groupID, payload)
	return stored, nil
}
