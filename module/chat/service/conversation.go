package service

import (
	"context"
	"net/url"
	"slices"

	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/store"
	usermodel "PTalk/module/user/model"
	"PTalk/tools/errs"
)

// DefaultAvatarBase renders initials for a group name.
const DefaultAvatarBase = "https://ui-avatars.com/api/?rounded=true&format=svg&bold=true&name="

// ConversationService finds, creates and lists conversations.
type ConversationService struct {
	store      store.Store
	avatarBase string
}

func NewConversationService(st store.Store, avatarBase string) *ConversationService {
	if avatarBase == "" {
		avatarBase = DefaultAvatarBase
	}
	return &ConversationService{store: st, avatarBase: avatarBase}
}

// GroupAvatar is the generated avatar url for a group called name.
func (s *ConversationService) GroupAvatar(name string) string {
	return s.avatarBase + url.QueryEscape(name)
}

func (s *ConversationService) ListDirect(ctx context.Context, userID string) ([]*chatmodel.DirectConversationView, error) {
	convs, err := s.store.FindDirectConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([][]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.Participants)
	}
	all, err := briefs(ctx, s.store, uniqueIDs(ids...))
	if err != nil {
		return nil, err
	}
	out := make([]*chatmodel.DirectConversationView, 0, len(convs))
	for _, c := range convs {
		out = append(out, directView(c, all))
	}
	return out, nil
}

func (s *ConversationService) ListGroup(ctx context.Context, userID string) ([]*chatmodel.GroupConversationView, error) {
	groups, err := s.store.FindGroupConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([][]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.Participants)
	}
	all, err := briefs(ctx, s.store, uniqueIDs(ids...))
	if err != nil {
		return nil, err
	}
	out := make([]*chatmodel.GroupConversationView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView(g, all))
	}
	return out, nil
}

// ResolveOrCreateDirect returns the one conversation between a and b,
// creating it on first use. Calls for the same pair, in either order and
// concurrently, all get the same conversation.
func (s *ConversationService) ResolveOrCreateDirect(ctx context.Context, a, b string) (*chatmodel.DirectConversationView, error) {
	if a == "" || b == "" {
		return nil, errs.ErrValidation.WrapMsg("both participants are required")
	}
	if a == b {
		return nil, errs.ErrValidation.WrapMsg("a conversation needs two distinct users", "user_id", a)
	}
	c, err := s.store.FindOrCreateDirectConversation(ctx, a, b)
	if err != nil {
		return nil, err
	}
	all, err := briefs(ctx, s.store, c.Participants)
	if err != nil {
		return nil, err
	}
	return directView(c, all), nil
}

// CreateGroup always creates a new group, even when one with the same name
// and members exists.
func (s *ConversationService) CreateGroup(ctx context.Context, name string, participants []string) (*chatmodel.GroupConversationView, error) {
	if name == "" {
		return nil, errs.ErrValidation.WrapMsg("missing field", "field", "group_name")
	}
	members := uniqueIDs(participants)
	if len(members) == 0 {
		return nil, errs.ErrValidation.WrapMsg("missing field", "field", "participants")
	}
	g := &chatmodel.GroupConversation{
		GroupName:    name,
		Participants: members,
		Avatar:       s.GroupAvatar(name),
	}
	if err := s.store.CreateGroupConversation(ctx, g); err != nil {
		return nil, err
	}
	all, err := briefs(ctx, s.store, g.Participants)
	if err != nil {
		return nil, err
	}
	return groupView(g, all), nil
}

// GetMessages returns the messages of conversation id of the given kind in
// append order.
func (s *ConversationService) GetMessages(ctx context.Context, id string, kind chatmodel.ChatType) ([]*chatmodel.Message, error) {
	if id == "" {
		return nil, errs.ErrValidation.WrapMsg("missing field", "field", "conversation_id")
	}
	return s.store.ListMessages(ctx, kind, id)
}

// CheckMember fails with a validation error unless userID takes part in
// conversation id of kind.
func (s *ConversationService) CheckMember(ctx context.Context, kind chatmodel.ChatType, id, userID string) error {
	if id == "" {
		return errs.ErrValidation.WrapMsg("missing field", "field", "conversation_id")
	}
	var members []string
	switch kind {
	case chatmodel.ChatTypeGroup:
		g, err := s.store.FindGroupConversationByID(ctx, id)
		if err != nil {
			return err
		}
		members = g.Participants
	default:
		c, err := s.store.FindDirectConversationByID(ctx, id)
		if err != nil {
			return err
		}
		members = c.Participants
	}
	if !slices.Contains(members, userID) {
		return errs.ErrValidation.WrapMsg("not a participant", "conversation_id", id, "user_id", userID)
	}
	return nil
}

func directView(c *chatmodel.DirectConversation, all map[string]usermodel.Brief) *chatmodel.DirectConversationView {
	msgs := c.Messages
	if msgs == nil {
		msgs = []*chatmodel.Message{}
	}
	return &chatmodel.DirectConversationView{
		ID:           c.ID,
		Participants: pick(all, c.Participants),
		Messages:     msgs,
		Summary:      c.Summary,
	}
}

func groupView(g *chatmodel.GroupConversation, all map[string]usermodel.Brief) *chatmodel.GroupConversationView {
	msgs := g.Messages
	if msgs == nil {
		msgs = []*chatmodel.Message{}
	}
	return &chatmodel.GroupConversationView{
		ID:           g.ID,
		GroupName:    g.GroupName,
		Participants: pick(all, g.Participants),
		Messages:     msgs,
		Avatar:       g.Avatar,
		Summary:      g.Summary,
	}
}
