package service

import (
	"context"
	"testing"
	"time"

	"PTalk/module/chat/event"
	chatmodel "PTalk/module/chat/model"
	"PTalk/service/eventbus"
	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDirectHello(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", "Lee"), user("u2", "Bob", "Ray"))
	c1, c2 := f.connect("u1"), f.connect("u2")
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC)
	f.messages.now = func() time.Time { return fixed }

	conv, err := f.convs.ResolveOrCreateDirect(ctx, "u1", "u2")
	require.NoError(t, err)

	msg, err := f.messages.SendDirect(ctx, conv.ID, "u1", "u2", "", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Ann Lee", msg.FromName)
	assert.Equal(t, "https://img/u1", msg.FromImg)
	assert.Equal(t, chatmodel.MessageText, msg.Type)
	assert.Equal(t, fixed.Truncate(time.Millisecond), msg.CreatedAt)

	for _, c := range []*recorder{c1, c2} {
		got := c.events(event.NewMessage)
		require.Len(t, got, 1)
		p := got[0].(event.NewMessagePayload)
		assert.Equal(t, chatmodel.ChatTypeIndividual, p.ChatType)
		assert.Equal(t, conv.ID, p.ConversationID)
		assert.Equal(t, "hello", p.Message.Text)
	}

	msgs, err := f.convs.GetMessages(ctx, conv.ID, chatmodel.ChatTypeIndividual)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)

	list, err := f.convs.ListDirect(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].LastMsg)
	assert.Equal(t, "Ann Lee", list[0].LastMsgFrom)
	assert.Equal(t, []string{eventbus.TypeMessageCreated}, f.bus.types())
}

func TestSenderSnapshotSurvivesProfileChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", "Lee"), user("u2", "Bob", ""))
	conv, err := f.convs.ResolveOrCreateDirect(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = f.messages.SendDirect(ctx, conv.ID, "u1", "u2", chatmodel.MessageText, "first")
	require.NoError(t, err)

	f.store.PutUser(user("u1", "Annie", "Lee"))
	_, err = f.messages.SendDirect(ctx, conv.ID, "u1", "u2", chatmodel.MessageText, "second")
	require.NoError(t, err)

	msgs, err := f.convs.GetMessages(ctx, conv.ID, chatmodel.ChatTypeIndividual)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Ann Lee", msgs[0].FromName)
	assert.Equal(t, "Annie Lee", msgs[1].FromName)
}

func TestSendDirectErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", ""), user("u2", "Bob", ""))
	c2 := f.connect("u2")

	_, err := f.messages.SendDirect(ctx, "missing-conv", "u1", "u2", "", "hi")
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	_, err = f.messages.SendDirect(ctx, "", "u1", "u2", "", "hi")
	assert.True(t, errs.Is(err, errs.ErrValidation))
	_, err = f.messages.SendDirect(ctx, "c", "ghost", "u2", "", "hi")
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	_, err = f.messages.SendDirect(ctx, "c", "u1", "u2", "Sticker", "hi")
	assert.True(t, errs.Is(err, errs.ErrValidation))

	assert.Zero(t, c2.count())
	assert.Empty(t, f.bus.types())
}

func TestSendGroupDeliveryCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("a", "A", ""), user("b", "B", ""), user("c", "C", ""))
	ca, cb, cc := f.connect("a"), f.connect("b"), f.connect("c")

	g, err := f.convs.CreateGroup(ctx, "trio", []string{"a", "b", "c", "b"})
	require.NoError(t, err)
	assert.Len(t, g.Participants, 3)

	_, err = f.messages.SendGroup(ctx, g.ID, "a", "", "hi all")
	require.NoError(t, err)

	assert.Len(t, ca.events(event.NewMessage), 1)
	assert.Len(t, cb.events(event.NewMessage), 1)
	assert.Len(t, cc.events(event.NewMessage), 1)
	p := cb.events(event.NewMessage)[0].(event.NewMessagePayload)
	assert.Equal(t, chatmodel.ChatTypeGroup, p.ChatType)
	assert.Equal(t, g.ID, p.GroupID)
	assert.Empty(t, p.ConversationID)

	groups, err := f.convs.ListGroup(ctx, "c")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "hi all", groups[0].LastMsg)
	require.Len(t, groups[0].Messages, 1)
}

func TestSendGroupOfflineMemberIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("a", "A", ""), user("b", "B", ""))
	ca := f.connect("a")
	g, err := f.convs.CreateGroup(ctx, "pair", []string{"a", "b"})
	require.NoError(t, err)

	_, err = f.messages.SendGroup(ctx, g.ID, "a", "", "anyone?")
	require.NoError(t, err)
	assert.Len(t, ca.events(event.NewMessage), 1)
	assert.Equal(t, int64(1), f.notify.Dropped())

	msgs, err := f.convs.GetMessages(ctx, g.ID, chatmodel.ChatTypeGroup)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestNotifierCountsFullQueue(t *testing.T) {
	f := newFixture(t)
	c := f.connect("u1")
	c.full = true

	assert.False(t, f.notify.Deliver("u1", event.NewMessage, nil))
	assert.False(t, f.notify.Deliver("u2", event.NewMessage, nil))
	assert.Equal(t, int64(2), f.notify.Dropped())

	c.full = false
	assert.True(t, f.notify.Deliver("u1", event.NewMessage, nil))
	assert.Equal(t, int64(2), f.notify.Dropped())
}

func TestSendStoresCanonicalMessageType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", "Lee"), user("u2", "Bob", "Ray"))
	conv, err := f.convs.ResolveOrCreateDirect(ctx, "u1", "u2")
	require.NoError(t, err)

	msg, err := f.messages.SendDirect(ctx, conv.ID, "u1", "u2", " media ", "cat.png")
	require.NoError(t, err)
	assert.Equal(t, chatmodel.MessageMedia, msg.Type)

	msgs, err := f.convs.GetMessages(ctx, conv.ID, chatmodel.ChatTypeIndividual)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, chatmodel.MessageMedia, msgs[0].Type)

	_, err = f.messages.SendDirect(ctx, conv.ID, "u1", "u2", "video", "x")
	assert.True(t, errs.Is(err, errs.ErrValidation))
}
