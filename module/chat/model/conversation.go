package model

import (
	"sort"
	"strings"

	usermodel "PTalk/module/user/model"
	"PTalk/tools/errs"
)

const (
	DirectConversationTableName = "direct_conversations"
	GroupConversationTableName  = "group_conversations"
)

// ChatType selects the conversation kind. It is the only switch between the
// direct and group code paths.
type ChatType string

const (
	ChatTypeIndividual ChatType = "individual"
	ChatTypeGroup      ChatType = "group"
)

func ParseChatType(s string) (ChatType, error) {
	switch normalize(s) {
	case "individual", "direct":
		return ChatTypeIndividual, nil
	case "group":
		return ChatTypeGroup, nil
	}
	return "", errs.ErrValidation.WrapMsg("unknown chat type", "chat_type", s)
}

// TableName is the collection that stores conversations of this kind.
func (t ChatType) TableName() string {
	if t == ChatTypeGroup {
		return GroupConversationTableName
	}
	return DirectConversationTableName
}

// PairKey is the order-independent key of a two-party relation.
func PairKey(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return p[0] + ":" + p[1]
}

// DirectConversation holds exactly two participants. At most one exists per
// PairKey.
type DirectConversation struct {
	ID           string     `bson:"_id" json:"_id"`
	PairKey      string     `bson:"pair_key" json:"-"`
	Participants []string   `bson:"participants" json:"participants"`
	Messages     []*Message `bson:"messages" json:"messages"`
	Summary      `bson:",inline"`
}

func (c *DirectConversation) GetTableName() string {
	return DirectConversationTableName
}

// GroupConversation has no de-duplication: every creation is a new record.
type GroupConversation struct {
	ID           string     `bson:"_id" json:"_id"`
	GroupName    string     `bson:"group_name" json:"groupName"`
	Participants []string   `bson:"participants" json:"participants"`
	Messages     []*Message `bson:"messages" json:"messages"`
	Avatar       string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Summary      `bson:",inline"`
}

func (g *GroupConversation) GetTableName() string {
	return GroupConversationTableName
}

func (g *GroupConversation) HasParticipant(id string) bool {
	for _, p := range g.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// DirectConversationView is a DirectConversation with participants expanded.
type DirectConversationView struct {
	ID           string            `json:"_id"`
	Participants []usermodel.Brief `json:"participants"`
	Messages     []*Message        `json:"messages"`
	Summary
}

// GroupConversationView is a GroupConversation with participants expanded.
type GroupConversationView struct {
	ID           string            `json:"_id"`
	GroupName    string            `json:"groupName"`
	Participants []usermodel.Brief `json:"participants"`
	Messages     []*Message        `json:"messages"`
	Avatar       string            `json:"avatar,omitempty"`
	Summary
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
