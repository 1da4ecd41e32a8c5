package service

import (
	"context"
	"sync"
	"testing"

	chatmodel "PTalk/module/chat/model"
	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrCreateDirectIsSymmetricAndUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", ""), user("u2", "Bob", ""))

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "u1", "u2"
			if i%2 == 1 {
				a, b = b, a
			}
			c, err := f.convs.ResolveOrCreateDirect(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	list, err := f.convs.ListDirect(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Participants, 2)
	assert.NotNil(t, list[0].Messages)
}

func TestResolveOrCreateDirectRejectsSelf(t *testing.T) {
	f := newFixture(t, user("u1", "Ann", ""))
	_, err := f.convs.ResolveOrCreateDirect(context.Background(), "u1", "u1")
	assert.True(t, errs.Is(err, errs.ErrValidation))
}

func TestCreateGroupAlwaysCreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("a", "A", ""), user("b", "B", ""))

	g1, err := f.convs.CreateGroup(ctx, "Book Club", []string{"a", "b"})
	require.NoError(t, err)
	g2, err := f.convs.CreateGroup(ctx, "Book Club", []string{"a", "b"})
	require.NoError(t, err)
	assert.NotEqual(t, g1.ID, g2.ID)
	assert.Equal(t, DefaultAvatarBase+"Book+Club", g1.Avatar)

	_, err = f.convs.CreateGroup(ctx, "", []string{"a"})
	assert.True(t, errs.Is(err, errs.ErrValidation))
	_, err = f.convs.CreateGroup(ctx, "x", nil)
	assert.True(t, errs.Is(err, errs.ErrValidation))

	groups, err := f.convs.ListGroup(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestGetMessagesUnknownConversation(t *testing.T) {
	f := newFixture(t)
	_, err := f.convs.GetMessages(context.Background(), "nope", chatmodel.ChatTypeGroup)
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	_, err = f.convs.GetMessages(context.Background(), "", chatmodel.ChatTypeGroup)
	assert.True(t, errs.Is(err, errs.ErrValidation))
}

func TestCheckMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user("u1", "Ann", ""), user("u2", "Bob", ""), user("u3", "Cy", ""))

	d, err := f.convs.ResolveOrCreateDirect(ctx, "u1", "u2")
	require.NoError(t, err)
	g, err := f.convs.CreateGroup(ctx, "pair", []string{"u2", "u3"})
	require.NoError(t, err)

	assert.NoError(t, f.convs.CheckMember(ctx, chatmodel.ChatTypeIndividual, d.ID, "u2"))
	assert.NoError(t, f.convs.CheckMember(ctx, chatmodel.ChatTypeGroup, g.ID, "u3"))

	err = f.convs.CheckMember(ctx, chatmodel.ChatTypeIndividual, d.ID, "u3")
	assert.True(t, errs.Is(err, errs.ErrValidation))
	err = f.convs.CheckMember(ctx, chatmodel.ChatTypeGroup, g.ID, "u1")
	assert.True(t, errs.Is(err, errs.ErrValidation))

	err = f.convs.CheckMember(ctx, chatmodel.ChatTypeGroup, "missing", "u1")
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	err = f.convs.CheckMember(ctx, chatmodel.ChatTypeIndividual, "", "u1")
	assert.True(t, errs.Is(err, errs.ErrValidation))
}
