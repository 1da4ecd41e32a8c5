package service

import (
	"context"
	"testing"

	"PTalk/module/chat/event"
	usermodel "PTalk/module/user/model"
	"PTalk/service/eventbus"
	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", "Lee"), user("u2", "Bob", "Ray"))
	c1, c2 := f.connect("u1"), f.connect("u2")

	req, err := f.friends.Send(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, []any{event.Notice{Message: event.MsgNewFriendRequest}}, c2.events(event.NewFriendRequest))
	assert.Equal(t, []any{event.Notice{Message: event.MsgRequestSent}}, c1.events(event.RequestSent))

	pending, err := f.friends.ListRequests(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ann", pending[0].Sender.FirstName)

	require.NoError(t, f.friends.Accept(ctx, req.ID, "u2"))
	assert.Len(t, c1.events(event.RequestAccepted), 1)
	assert.Len(t, c2.events(event.RequestAccepted), 1)

	u1, _ := f.store.FindUserByID(ctx, "u1")
	u2, _ := f.store.FindUserByID(ctx, "u2")
	assert.True(t, u1.HasFriend("u2"))
	assert.True(t, u2.HasFriend("u1"))

	_, err = f.store.FindFriendRequestByID(ctx, req.ID)
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	assert.Equal(t, []string{eventbus.TypeFriendAccepted}, f.bus.types())

	friends, err := f.friends.ListFriends(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "u2", friends[0].ID)
}

func TestFriendSendValidatesAndAllowsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", ""), user("u2", "Bob", ""))

	_, err := f.friends.Send(ctx, "u1", "u1")
	assert.True(t, errs.Is(err, errs.ErrValidation))
	_, err = f.friends.Send(ctx, "", "u2")
	assert.True(t, errs.Is(err, errs.ErrValidation))

	_, err = f.friends.Send(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = f.friends.Send(ctx, "u1", "u2")
	require.NoError(t, err)
	pending, err := f.friends.ListRequests(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// nobody connected: both notices are dropped, nothing fails
	assert.Equal(t, int64(4), f.notify.Dropped())
}

func TestFriendAcceptUnknownRequest(t *testing.T) {
	f := newFixture(t)
	err := f.friends.Accept(context.Background(), "nope", "")
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	assert.Empty(t, f.bus.types())
}

func TestFriendAcceptIsRepeatableAfterPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", ""), user("u2", "Bob", ""))
	req, err := f.friends.Send(ctx, "u1", "u2")
	require.NoError(t, err)

	// simulate an earlier attempt that added one side only
	require.NoError(t, f.store.AddFriend(ctx, "u2", "u1"))
	require.NoError(t, f.friends.Accept(ctx, req.ID, ""))

	u2, _ := f.store.FindUserByID(ctx, "u2")
	assert.Equal(t, []string{"u1"}, u2.Friends)
}

func TestFriendAcceptOnlyByRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", ""), user("u2", "Bob", ""), user("u3", "Cy", ""))
	req, err := f.friends.Send(ctx, "u1", "u2")
	require.NoError(t, err)

	for _, by := range []string{"u1", "u3"} {
		err = f.friends.Accept(ctx, req.ID, by)
		assert.True(t, errs.Is(err, errs.ErrValidation), by)
	}
	u1, _ := f.store.FindUserByID(ctx, "u1")
	assert.Empty(t, u1.Friends)
	_, err = f.store.FindFriendRequestByID(ctx, req.ID)
	require.NoError(t, err)

	require.NoError(t, f.friends.Accept(ctx, req.ID, "u2"))
}

func TestFriendDiscoverExcludes(t *testing.T) {
	ctx := context.Background()
	verified := func(id, first string) *usermodel.User {
		u := user(id, first, "")
		u.Verified = true
		return u
	}
	me := verified("me", "Me")
	me.Friends = []string{"pal"}
	f := newFixture(t, me,
		verified("pal", "Pal"),
		verified("asker", "Asker"),
		verified("asked", "Asked"),
		verified("open", "Open"),
		user("ghost", "Ghost", ""),
	)
	_, err := f.friends.Send(ctx, "asker", "me")
	require.NoError(t, err)
	_, err = f.friends.Send(ctx, "me", "asked")
	require.NoError(t, err)
	// requests between other users do not matter
	_, err = f.friends.Send(ctx, "pal", "open")
	require.NoError(t, err)

	ids := func(list []usermodel.Brief) []string {
		out := make([]string, 0, len(list))
		for _, b := range list {
			out = append(out, b.ID)
		}
		return out
	}

	found, err := f.friends.Discover(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"open"}, ids(found))

	all, err := f.friends.ListVerified(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"asked", "asker", "open", "pal"}, ids(all))

	_, err = f.friends.Discover(ctx, "nobody")
	assert.True(t, errs.Is(err, errs.ErrNotFound))
}
